package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"script-analysis-backend/internal/auth"
	"script-analysis-backend/internal/config"
	"script-analysis-backend/internal/database"
	"script-analysis-backend/internal/middleware"
	"script-analysis-backend/internal/models"
)

type AuthHandler struct {
	store        *database.Store
	oauthService *auth.OAuthService
	cfg          *config.Config
}

func NewAuthHandler(store *database.Store, oauthService *auth.OAuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		store:        store,
		oauthService: oauthService,
		cfg:          cfg,
	}
}

// Register godoc
// @Summary     Register a new user
// @Description Creates a password-authenticated account and returns an access
// @Description token.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.RegisterRequest true "Account details"
// @Success     200 {object} models.AuthResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid email address"})
		return
	}
	if username == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "username is required"})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "password is required"})
		return
	}

	existing, err := h.store.GetUserByEmail(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to register user",
			Message: err.Error(),
		})
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Email already registered"})
		return
	}

	existing, err = h.store.GetUserByUsername(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to register user",
			Message: err.Error(),
		})
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Username already taken"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to register user",
			Message: err.Error(),
		})
		return
	}

	var fullName *string
	if req.FullName != "" {
		fullName = &req.FullName
	}

	user, err := h.store.CreateUser(database.CreateUserParams{
		Email:          email,
		Username:       username,
		FullName:       fullName,
		HashedPassword: &hash,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to register user",
			Message: err.Error(),
		})
		return
	}

	h.issueAuthResponse(c, user)
}

// Login godoc
// @Summary     Log in with email and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.LoginRequest true "Credentials"
// @Success     200 {object} models.AuthResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	user, err := h.store.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "login failed",
			Message: err.Error(),
		})
		return
	}
	if user == nil || !user.HashedPassword.Valid || !auth.CheckPassword(req.Password, user.HashedPassword.String) {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Incorrect email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "User account is disabled"})
		return
	}

	// Best effort; a failed timestamp update should not block the login.
	h.store.UpdateLastLogin(user.ID)

	h.issueAuthResponse(c, user)
}

// Me godoc
// @Summary     Current user
// @Tags        auth
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.UserResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := h.lookupCurrentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.NewUserResponse(user))
}

// VerifyToken godoc
// @Summary     Verify the presented token
// @Tags        auth
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.VerifyTokenResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /auth/verify-token [get]
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	user, ok := h.lookupCurrentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.VerifyTokenResponse{
		Valid: true,
		User:  models.NewUserResponse(user),
	})
}

// Logout godoc
// @Summary     Log out
// @Description Tokens are stateless; the client simply discards its copy.
// @Tags        auth
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// Status godoc
// @Summary     Authentication configuration status
// @Tags        auth
// @Produce     json
// @Success     200 {object} models.AuthStatusResponse
// @Router      /auth/status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, models.AuthStatusResponse{
		GoogleConfigured: h.cfg.GoogleOAuthConfigured(),
		AppleConfigured:  h.cfg.AppleOAuthConfigured(),
		PasswordAuth:     true,
		JWTConfigured:    h.cfg.JWTSecretConfigured(),
	})
}

// OAuthAuthorize godoc
// @Summary     Start an OAuth login
// @Description Redirects the browser to the provider's consent page.
// @Tags        auth
// @Param       provider path string true "google or apple"
// @Success     302
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /auth/oauth/{provider}/authorize [get]
func (h *AuthHandler) OAuthAuthorize(c *gin.Context) {
	provider := c.Param("provider")
	if provider != auth.ProviderGoogle && provider != auth.ProviderApple {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "unknown oauth provider"})
		return
	}
	if h.oauthService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "oauth not available"})
		return
	}

	consentURL, _, err := h.oauthService.AuthURL(provider)
	if err != nil {
		if errors.Is(err, auth.ErrProviderNotConfigured) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "oauth provider not configured",
				Message: fmt.Sprintf("%s login is not enabled on this deployment", provider),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to initiate oauth login",
			Message: err.Error(),
		})
		return
	}

	c.Redirect(http.StatusFound, consentURL)
}

// OAuthCallback godoc
// @Summary     OAuth provider callback
// @Description Exchanges the authorization code, signs the user in (creating
// @Description or linking the account as needed), and redirects back to the
// @Description frontend with a token.
// @Tags        auth
// @Param       provider path string true "google or apple"
// @Param       code query string true "Authorization code"
// @Param       state query string true "State issued at authorize time"
// @Success     302
// @Failure     404 {object} models.ErrorResponse
// @Router      /auth/oauth/{provider}/callback [get]
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")
	if provider != auth.ProviderGoogle && provider != auth.ProviderApple {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "unknown oauth provider"})
		return
	}
	if h.oauthService == nil || h.store == nil {
		h.redirectAuthError(c, "Authentication failed")
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || !auth.VerifyState(state) {
		h.redirectAuthError(c, "Invalid state parameter")
		return
	}

	identity, err := h.oauthService.Exchange(c.Request.Context(), provider, code)
	if err != nil {
		h.redirectAuthError(c, "Authentication failed")
		return
	}

	user, err := h.store.GetUserByOAuth(identity.Provider, identity.ProviderID)
	if err != nil {
		h.redirectAuthError(c, "Authentication failed")
		return
	}
	if user == nil {
		user, err = h.findOrCreateOAuthUser(identity)
		if err != nil {
			h.redirectAuthError(c, "Failed to create user")
			return
		}
	}

	// Best effort; a failed timestamp update should not block the login.
	h.store.UpdateLastLogin(user.ID)

	token, err := auth.IssueToken(h.cfg.JWTSecret, user.ID, user.Email, user.Username,
		time.Duration(h.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		h.redirectAuthError(c, "Authentication failed")
		return
	}

	query := url.Values{"token": {token}, "provider": {provider}}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/auth/callback?%s", h.frontendBase(), query.Encode()))
}

// findOrCreateOAuthUser links the OAuth identity to an existing account with
// the same email, or registers a fresh verified account.
func (h *AuthHandler) findOrCreateOAuthUser(identity *auth.Identity) (*models.User, error) {
	user, err := h.store.GetUserByEmail(identity.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		var picture *string
		if identity.Picture != "" {
			picture = &identity.Picture
		}
		if err := h.store.LinkOAuth(user.ID, identity.Provider, identity.ProviderID, picture); err != nil {
			return nil, err
		}
		return user, nil
	}

	username := strings.TrimSpace(identity.Name)
	if username == "" {
		username = strings.SplitN(identity.Email, "@", 2)[0]
	}
	var fullName *string
	if identity.Name != "" {
		fullName = &identity.Name
	}
	var picture *string
	if identity.Picture != "" {
		picture = &identity.Picture
	}

	return h.store.CreateUser(database.CreateUserParams{
		Email:             identity.Email,
		Username:          username,
		FullName:          fullName,
		OAuthProvider:     &identity.Provider,
		OAuthID:           &identity.ProviderID,
		ProfilePictureURL: picture,
		IsVerified:        true,
	})
}

func (h *AuthHandler) issueAuthResponse(c *gin.Context, user *models.User) {
	token, err := auth.IssueToken(h.cfg.JWTSecret, user.ID, user.Email, user.Username,
		time.Duration(h.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to issue token",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Success:     true,
		AccessToken: token,
		TokenType:   auth.TokenType,
		ExpiresIn:   h.cfg.JWTExpirationHours * 3600,
		User:        models.NewUserResponse(user),
	})
}

// lookupCurrentUser resolves the authenticated user from the context set by
// the auth middleware. It writes the error response itself when the lookup
// fails.
func (h *AuthHandler) lookupCurrentUser(c *gin.Context) (*models.User, bool) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return nil, false
	}

	raw, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return nil, false
	}
	userID, err := uuid.Parse(raw.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return nil, false
	}

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get user information",
			Message: err.Error(),
		})
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "User not found"})
		return nil, false
	}

	return user, true
}

func (h *AuthHandler) redirectAuthError(c *gin.Context, message string) {
	query := url.Values{"message": {message}}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/auth/error?%s", h.frontendBase(), query.Encode()))
}

func (h *AuthHandler) frontendBase() string {
	return strings.TrimSuffix(h.cfg.FrontendURL, "/")
}
