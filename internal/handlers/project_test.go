package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/sarashino/voice-diary-api/internal/dto"
	"github.com/sarashino/voice-diary-api/internal/models"
	"github.com/stretchr/testify/require"
)

func (env testEnv) uploadAudio(t *testing.T, token, name, filename string, audio []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="audio"; filename="`+filename+`"`)
	header.Set("Content-Type", "audio/webm")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)

	if name != "" {
		require.NoError(t, writer.WriteField("name", name))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/projects", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestProject_UploadAsOwner(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.signup(t, "alice", "secret1")

	w := env.uploadAudio(t, alice.Token, "First entry", "rec.webm", []byte("audio-bytes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var project dto.ProjectDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))
	require.Equal(t, "First entry", project.Name)
	require.NotNil(t, project.UserID)
	require.Equal(t, alice.User.ID, *project.UserID)

	// Local backend: relative URL under the uploads path, no object key
	require.Contains(t, project.AudioURL, "/uploads/audio/")
	var stored models.Project
	require.NoError(t, env.db.First(&stored, project.ID).Error)
	require.Nil(t, stored.AudioObjectKey)

	// Without an AI service the analysis degrades to placeholders
	require.NotNil(t, project.Transcription)
	require.NotNil(t, project.EmotionalAnalysis)
}

func TestProject_UploadRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.uploadAudio(t, "", "Entry", "rec.webm", []byte("audio-bytes"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProject_ReadsArePublic(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.signup(t, "alice", "secret1")

	w := env.uploadAudio(t, alice.Token, "Entry", "rec.webm", []byte("audio-bytes"))
	require.Equal(t, http.StatusCreated, w.Code)
	var project dto.ProjectDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))

	w = env.doJSON(t, http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list dto.ProjectListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.EqualValues(t, 1, list.Total)
	require.Len(t, list.Projects, 1)

	w = env.doJSON(t, http.MethodGet, "/api/projects/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProject_RenameByNonOwnerIsForbidden(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.signup(t, "alice", "secret1")
	bob := env.signup(t, "bob", "secret2")

	w := env.uploadAudio(t, alice.Token, "Alice's entry", "rec.webm", []byte("audio-bytes"))
	require.Equal(t, http.StatusCreated, w.Code)
	var project dto.ProjectDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))

	w = env.doJSON(t, http.MethodPatch, "/api/projects/1", bob.Token, map[string]string{
		"name": "Bob's now",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Owner succeeds
	w = env.doJSON(t, http.MethodPatch, "/api/projects/1", alice.Token, map[string]string{
		"name": "Renamed",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Project
	require.NoError(t, env.db.First(&stored, project.ID).Error)
	require.Equal(t, "Renamed", stored.Name)
}

func TestProject_AdminMayRename(t *testing.T) {
	env := setupTestEnv(t)
	env.signup(t, "alice", "secret1")
	admin := env.signup(t, "root", "secret3")
	require.NoError(t, env.db.Model(&models.User{}).
		Where("username = ?", "root").
		Update("role", models.RoleAdmin).Error)

	// Re-login so the resolved principal carries the admin role
	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "root",
		"password": "secret3",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &admin))

	alice := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, alice.Code)
	var aliceResp dto.AuthResponse
	require.NoError(t, json.Unmarshal(alice.Body.Bytes(), &aliceResp))

	up := env.uploadAudio(t, aliceResp.Token, "Entry", "rec.webm", []byte("audio-bytes"))
	require.Equal(t, http.StatusCreated, up.Code)

	w = env.doJSON(t, http.MethodPatch, "/api/projects/1", admin.Token, map[string]string{
		"name": "Moderated",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestProject_MutateMissingProject(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.signup(t, "alice", "secret1")

	w := env.doJSON(t, http.MethodPatch, "/api/projects/999", alice.Token, map[string]string{
		"name": "Ghost",
	})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.doJSON(t, http.MethodPatch, "/api/projects/not-a-number", alice.Token, map[string]string{
		"name": "Ghost",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProject_DeleteRemovesRowAndFile(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.signup(t, "alice", "secret1")

	w := env.uploadAudio(t, alice.Token, "Entry", "rec.webm", []byte("audio-bytes"))
	require.Equal(t, http.StatusCreated, w.Code)
	var project dto.ProjectDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))

	w = env.doJSON(t, http.MethodDelete, "/api/projects/1", alice.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Project{}).Count(&count).Error)
	require.Zero(t, count)

	w = env.doJSON(t, http.MethodGet, "/api/projects/1", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
