package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"script-analysis-backend/internal/models"
)

const userColumns = `id, email, username, full_name, hashed_password,
	oauth_provider, oauth_id, profile_picture_url, is_verified, is_active,
	last_login_at, created_at, updated_at`

// CreateUserParams covers both password registration and OAuth sign-up.
type CreateUserParams struct {
	Email             string
	Username          string
	FullName          *string
	HashedPassword    *string
	OAuthProvider     *string
	OAuthID           *string
	ProfilePictureURL *string
	IsVerified        bool
}

// CreateUser inserts a new active user. Callers check for existing email and
// username first; a unique violation here still surfaces as an error.
func (s *Store) CreateUser(params CreateUserParams) (*models.User, error) {
	if err := s.EnsureUsersTable(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:                uuid.New(),
		Email:             params.Email,
		Username:          params.Username,
		FullName:          nullString(params.FullName),
		HashedPassword:    nullString(params.HashedPassword),
		OAuthProvider:     nullString(params.OAuthProvider),
		OAuthID:           nullString(params.OAuthID),
		ProfilePictureURL: nullString(params.ProfilePictureURL),
		IsVerified:        params.IsVerified,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err := s.db.Exec(`
		INSERT INTO users (
			id, email, username, full_name, hashed_password,
			oauth_provider, oauth_id, profile_picture_url, is_verified, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, user.Email, user.Username, user.FullName, user.HashedPassword,
		user.OAuthProvider, user.OAuthID, user.ProfilePictureURL, user.IsVerified, user.IsActive,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("created user", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// GetUserByEmail returns a user by email, or nil when none matches.
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	return s.getUser(`email = $1`, email)
}

// GetUserByUsername returns a user by username, or nil when none matches.
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	return s.getUser(`username = $1`, username)
}

// GetUserByID returns a user by id, or nil when none matches.
func (s *Store) GetUserByID(id uuid.UUID) (*models.User, error) {
	return s.getUser(`id = $1`, id)
}

// GetUserByOAuth returns the user linked to an OAuth identity, or nil when
// none matches.
func (s *Store) GetUserByOAuth(provider, oauthID string) (*models.User, error) {
	return s.getUser(`oauth_provider = $1 AND oauth_id = $2`, provider, oauthID)
}

// LinkOAuth attaches an OAuth identity to an existing account and marks it
// verified. The profile picture is only set when the provider supplied one.
func (s *Store) LinkOAuth(userID uuid.UUID, provider, oauthID string, pictureURL *string) error {
	if err := s.EnsureUsersTable(); err != nil {
		return err
	}

	_, err := s.db.Exec(`UPDATE users
		SET oauth_provider = $1, oauth_id = $2,
			profile_picture_url = COALESCE($3, profile_picture_url),
			is_verified = TRUE, updated_at = $4
		WHERE id = $5`,
		provider, oauthID, nullString(pictureURL), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to link oauth identity: %w", err)
	}

	s.logger.Infow("linked oauth identity", "user_id", userID, "provider", provider)
	return nil
}

// SetUserActive enables or disables an account. Disabled accounts keep their
// data but cannot sign in.
func (s *Store) SetUserActive(userID uuid.UUID, active bool) error {
	if err := s.EnsureUsersTable(); err != nil {
		return err
	}

	_, err := s.db.Exec(`UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update user active flag: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps a successful sign-in.
func (s *Store) UpdateLastLogin(userID uuid.UUID) error {
	if err := s.EnsureUsersTable(); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE users SET last_login_at = $1, updated_at = $2 WHERE id = $3`,
		now, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (s *Store) getUser(where string, args ...interface{}) (*models.User, error) {
	if err := s.EnsureUsersTable(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s`, userColumns, where)
	var user models.User
	err := s.db.QueryRow(query, args...).Scan(
		&user.ID, &user.Email, &user.Username, &user.FullName, &user.HashedPassword,
		&user.OAuthProvider, &user.OAuthID, &user.ProfilePictureURL,
		&user.IsVerified, &user.IsActive,
		&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &user, nil
}
