package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/irfndi/pricecast-go/internal/api/handlers/testmocks"
	"github.com/irfndi/pricecast-go/internal/config"
	"github.com/irfndi/pricecast-go/internal/database"
	"github.com/irfndi/pricecast-go/internal/middleware"
	"github.com/irfndi/pricecast-go/internal/models"
)

const (
	testEmail    = "anna@example.com"
	testPassword = "correct-horse"
	testSecret   = "test-secret"
)

func newAuthRouter(users *testmocks.MockUserStore) (*AuthHandler, *middleware.AuthMiddleware, http.Handler) {
	auth := middleware.NewAuthMiddleware(testSecret)
	h := NewAuthHandler(users, auth, config.SecurityConfig{
		JWTExpiry:   "2h",
		BcryptCost:  bcrypt.MinCost,
		AdminEmails: []string{"Ops@Example.com"},
	}, quietLogger())
	h.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	router := newTestRouter()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	return h, auth, router
}

func storedUser(t *testing.T, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "u-1", Email: testEmail, PasswordHash: string(hash), Role: role}
}

func TestAuthHandler_Register(t *testing.T) {
	users := new(testmocks.MockUserStore)
	var created *models.User
	users.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*models.User) }).
		Return(nil)
	_, _, router := newAuthRouter(users)

	w := performRequest(router, http.MethodPost, "/auth/register", RegisterRequest{Email: "  Anna@Example.com ", Password: testPassword})
	require.Equal(t, http.StatusCreated, w.Code)

	require.NotNil(t, created)
	assert.Equal(t, testEmail, created.Email)
	assert.Equal(t, middleware.RoleUser, created.Role)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, testPassword, created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(testPassword)))

	user := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, testEmail, user["email"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "PasswordHash")
	users.AssertExpectations(t)
}

func TestAuthHandler_Register_AdminEmail(t *testing.T) {
	users := new(testmocks.MockUserStore)
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "ops@example.com" && u.Role == middleware.RoleAdmin
	})).Return(nil)
	_, _, router := newAuthRouter(users)

	w := performRequest(router, http.MethodPost, "/auth/register", RegisterRequest{Email: "ops@example.com", Password: testPassword})
	assert.Equal(t, http.StatusCreated, w.Code)
	users.AssertExpectations(t)
}

func TestAuthHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     interface{}
		storeErr error
		status   int
	}{
		{"invalid email", RegisterRequest{Email: "not-an-email", Password: testPassword}, nil, http.StatusBadRequest},
		{"short password", RegisterRequest{Email: testEmail, Password: "short"}, nil, http.StatusBadRequest},
		{"missing fields", map[string]string{}, nil, http.StatusBadRequest},
		{"duplicate email", RegisterRequest{Email: testEmail, Password: testPassword}, database.ErrAlreadyExists, http.StatusConflict},
		{"store failure", RegisterRequest{Email: testEmail, Password: testPassword}, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(testmocks.MockUserStore)
			users.On("CreateUser", mock.Anything, mock.Anything).Return(tt.storeErr).Maybe()
			_, _, router := newAuthRouter(users)

			w := performRequest(router, http.MethodPost, "/auth/register", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decodeBody(t, w)["error"])
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	users := new(testmocks.MockUserStore)
	users.On("GetUserByEmail", mock.Anything, testEmail).Return(storedUser(t, middleware.RoleAdmin), nil)
	_, auth, router := newAuthRouter(users)

	w := performRequest(router, http.MethodPost, "/auth/login", LoginRequest{Email: "ANNA@example.com", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	token, ok := body["token"].(string)
	require.True(t, ok)
	assert.Equal(t, "2024-03-01T14:00:00Z", body["expires_at"])

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, middleware.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, time.Minute)
	assert.NotContains(t, body["user"], "password_hash")
	users.AssertExpectations(t)
}

func TestAuthHandler_Login_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		user   *models.User
		err    error
		body   interface{}
		status int
	}{
		{"wrong password", nil, nil, LoginRequest{Email: testEmail, Password: "wrong-password"}, http.StatusUnauthorized},
		{"unknown email", nil, database.ErrNotFound, LoginRequest{Email: testEmail, Password: testPassword}, http.StatusUnauthorized},
		{"store failure", nil, errors.New("db down"), LoginRequest{Email: testEmail, Password: testPassword}, http.StatusInternalServerError},
		{"missing password", nil, nil, map[string]string{"email": testEmail}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(testmocks.MockUserStore)
			if tt.err != nil {
				users.On("GetUserByEmail", mock.Anything, testEmail).Return(nil, tt.err)
			} else {
				users.On("GetUserByEmail", mock.Anything, testEmail).Return(storedUser(t, middleware.RoleUser), nil).Maybe()
			}
			_, _, router := newAuthRouter(users)

			w := performRequest(router, http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.status, w.Code)
			body := decodeBody(t, w)
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body, "token")
		})
	}
}

func TestAuthHandler_TokenPassesAdminChain(t *testing.T) {
	users := new(testmocks.MockUserStore)
	users.On("GetUserByEmail", mock.Anything, testEmail).Return(storedUser(t, middleware.RoleUser), nil)
	_, auth, router := newAuthRouter(users)

	w := performRequest(router, http.MethodPost, "/auth/login", LoginRequest{Email: testEmail, Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	token := decodeBody(t, w)["token"].(string)

	admin := newTestRouter()
	admin.GET("/admin/ping", append(auth.AdminChain(), func(c *gin.Context) { c.Status(http.StatusNoContent) })...)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
