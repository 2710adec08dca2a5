package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User is either password-authenticated (HashedPassword set), OAuth-authenticated
// (OAuthProvider and OAuthID set), or both after account linking.
type User struct {
	ID                uuid.UUID
	Email             string
	Username          string
	FullName          sql.NullString
	HashedPassword    sql.NullString
	OAuthProvider     sql.NullString
	OAuthID           sql.NullString
	ProfilePictureURL sql.NullString
	IsVerified        bool
	IsActive          bool
	LastLoginAt       sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
