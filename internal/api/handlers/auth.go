package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/irfndi/pricecast-go/internal/config"
	"github.com/irfndi/pricecast-go/internal/database"
	"github.com/irfndi/pricecast-go/internal/middleware"
	"github.com/irfndi/pricecast-go/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// AuthHandler registers accounts and exchanges credentials for JWTs.
type AuthHandler struct {
	users       UserStore
	auth        *middleware.AuthMiddleware
	cost        int
	expiry      time.Duration
	adminEmails map[string]struct{}
	logger      logrus.FieldLogger
	now         func() time.Time
}

// NewAuthHandler creates the handler. Accounts registered with one of
// cfg.AdminEmails get the admin role.
func NewAuthHandler(users UserStore, auth *middleware.AuthMiddleware, cfg config.SecurityConfig, logger logrus.FieldLogger) *AuthHandler {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[normalizeEmail(email)] = struct{}{}
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthHandler{
		users:       users,
		auth:        auth,
		cost:        cost,
		expiry:      cfg.JWTExpiryDuration(),
		adminEmails: admins,
		logger:      logger.WithField("component", "auth_handler"),
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		Role:         middleware.RoleUser,
	}
	if _, ok := h.adminEmails[user.Email]; ok {
		user.Role = middleware.RoleAdmin
	}

	if err := h.users.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login handles POST /auth/login. Unknown emails and wrong passwords get the
// same 401.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetUserByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		respondError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.WithField("user_id", user.ID).Warn("Login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.auth.GenerateToken(user.ID, user.Role, h.expiry)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		User:      *user,
		Token:     token,
		ExpiresAt: h.now().Add(h.expiry).UTC(),
	})
}
