package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sarashino/voice-diary-api/internal/dto"
	"github.com/sarashino/voice-diary-api/internal/middleware"
	"github.com/sarashino/voice-diary-api/internal/models"
	"github.com/sarashino/voice-diary-api/internal/repository"
	"github.com/sarashino/voice-diary-api/internal/services"
	"github.com/sarashino/voice-diary-api/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	disk   *storage.LocalDisk
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Session{}, &models.Project{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	disk, err := storage.NewLocalDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	authService := services.NewAuthService(userRepo)
	sessionService := services.NewSessionService(sessionRepo, time.Hour)
	projectService := services.NewProjectService(projectRepo, disk, nil)

	authHandler := NewAuthHandler(authService, sessionService)
	projectHandler := NewProjectHandler(projectService, false)

	r := gin.New()
	r.Use(middleware.Authenticate(sessionService))

	api := r.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)

	projects := api.Group("/projects")
	projects.GET("", projectHandler.ListProjects)
	projects.GET("/:id", projectHandler.GetProject)
	projects.POST("", middleware.RequireAuth(), projectHandler.CreateProject)
	projects.PATCH("/:id", middleware.RequireAuth(), middleware.RequireProjectWrite(projectRepo), projectHandler.RenameProject)
	projects.DELETE("/:id", middleware.RequireAuth(), middleware.RequireProjectWrite(projectRepo), projectHandler.DeleteProject)

	return testEnv{db: db, router: r, disk: disk}
}

func (env testEnv) doJSON(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env testEnv) signup(t *testing.T, username, password string) dto.AuthResponse {
	t.Helper()

	w := env.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuth_SignupLoginMe(t *testing.T) {
	env := setupTestEnv(t)

	signupResp := env.signup(t, "alice", "secret1")
	require.Equal(t, "alice", signupResp.User.Username)
	require.Equal(t, models.RoleUser, signupResp.User.Role)
	require.NotEmpty(t, signupResp.Token)

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var loginResp dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)
	require.NotEqual(t, signupResp.Token, loginResp.Token)

	w = env.doJSON(t, http.MethodGet, "/api/auth/me", loginResp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, "alice", me.Username)
	require.Equal(t, models.RoleUser, me.Role)
}

func TestAuth_UsernameIsCaseNormalized(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.signup(t, "  Alice ", "secret1")
	require.Equal(t, "alice", resp.User.Username)

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "ALICE",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAuth_SignupValidation(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "ab",
		"password": "secret1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "alice",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env.signup(t, "alice", "secret1")
	w = env.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "alice",
		"password": "secret1",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	env.signup(t, "alice", "secret1")

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown users fail identically
	w = env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "nobody",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_LogoutRevokesToken(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.signup(t, "alice", "secret1")

	w := env.doJSON(t, http.MethodGet, "/api/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/auth/logout", resp.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Logging out again with the same token stays a no-op
	w = env.doJSON(t, http.MethodPost, "/api/auth/logout", resp.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuth_MeWithoutToken(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
