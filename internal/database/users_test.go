package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateAndGetUser(t *testing.T) {
	store := newTestStore(t)

	user, err := store.CreateUser(CreateUserParams{
		Email:          "ripley@weyland.example",
		Username:       "ripley",
		FullName:       strPtr("Ellen Ripley"),
		HashedPassword: strPtr("$2a$10$notarealhash"),
	})
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsVerified)

	byEmail, err := store.GetUserByEmail("ripley@weyland.example")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "Ellen Ripley", byEmail.FullName.String)
	assert.Equal(t, "$2a$10$notarealhash", byEmail.HashedPassword.String)
	assert.False(t, byEmail.LastLoginAt.Valid)

	byUsername, err := store.GetUserByUsername("ripley")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, user.ID, byUsername.ID)

	byID, err := store.GetUserByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "ripley", byID.Username)
}

func TestGetUserMissing(t *testing.T) {
	store := newTestStore(t)

	user, err := store.GetUserByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = store.GetUserByID(uuid.New())
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateUser(CreateUserParams{Email: "dup@example.com", Username: "first"})
	require.NoError(t, err)

	_, err = store.CreateUser(CreateUserParams{Email: "dup@example.com", Username: "second"})
	assert.Error(t, err)
}

func TestOAuthUserLifecycle(t *testing.T) {
	store := newTestStore(t)

	user, err := store.CreateUser(CreateUserParams{
		Email:             "dallas@nostromo.example",
		Username:          "dallas",
		OAuthProvider:     strPtr("google"),
		OAuthID:           strPtr("google-123"),
		ProfilePictureURL: strPtr("https://img.example/dallas.png"),
		IsVerified:        true,
	})
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.False(t, user.HashedPassword.Valid)

	found, err := store.GetUserByOAuth("google", "google-123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	missing, err := store.GetUserByOAuth("google", "someone-else")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLinkOAuthToPasswordAccount(t *testing.T) {
	store := newTestStore(t)

	user, err := store.CreateUser(CreateUserParams{
		Email:          "ash@weyland.example",
		Username:       "ash",
		HashedPassword: strPtr("$2a$10$notarealhash"),
	})
	require.NoError(t, err)
	require.False(t, user.IsVerified)

	err = store.LinkOAuth(user.ID, "google", "google-777", strPtr("https://img.example/ash.png"))
	require.NoError(t, err)

	linked, err := store.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "google", linked.OAuthProvider.String)
	assert.Equal(t, "google-777", linked.OAuthID.String)
	assert.Equal(t, "https://img.example/ash.png", linked.ProfilePictureURL.String)
	assert.True(t, linked.IsVerified)
	assert.True(t, linked.HashedPassword.Valid, "password sign-in keeps working after linking")
}

func TestLinkOAuthKeepsExistingPicture(t *testing.T) {
	store := newTestStore(t)

	user, err := store.CreateUser(CreateUserParams{
		Email:             "lambert@nostromo.example",
		Username:          "lambert",
		HashedPassword:    strPtr("$2a$10$notarealhash"),
		ProfilePictureURL: strPtr("https://img.example/original.png"),
	})
	require.NoError(t, err)

	err = store.LinkOAuth(user.ID, "apple", "apple-1", nil)
	require.NoError(t, err)

	linked, err := store.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/original.png", linked.ProfilePictureURL.String)
}

func TestUpdateLastLogin(t *testing.T) {
	store := newTestStore(t)

	user, err := store.CreateUser(CreateUserParams{Email: "kane@nostromo.example", Username: "kane"})
	require.NoError(t, err)
	require.False(t, user.LastLoginAt.Valid)

	require.NoError(t, store.UpdateLastLogin(user.ID))

	refreshed, err := store.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.LastLoginAt.Valid)
}
