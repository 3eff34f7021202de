package dto

import (
	"time"

	"github.com/sarashino/voice-diary-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64          `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

// AuthResponse is returned on signup and login. Token is the raw bearer
// token; it is shown here exactly once and never retrievable again.
type AuthResponse struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID                uint64    `json:"id"`
	Name              string    `json:"name"`
	AudioURL          string    `json:"audio_url"`
	Transcription     *string   `json:"transcription,omitempty"`
	EmotionalAnalysis *string   `json:"emotional_analysis,omitempty"`
	CoverURL          *string   `json:"cover_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UserID            *uint64   `json:"user_id,omitempty"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects []ProjectDTO `json:"projects"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
	Total    int64        `json:"total"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}

// ToProjectDTO converts a Project model to ProjectDTO. Object keys are a
// storage-internal concern and never leave the API.
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:                project.ID,
		Name:              project.Name,
		AudioURL:          project.AudioURL,
		Transcription:     project.Transcription,
		EmotionalAnalysis: project.EmotionalAnalysis,
		CoverURL:          project.CoverURL,
		CreatedAt:         project.CreatedAt,
		UserID:            project.UserID,
	}
}

// ToProjectDTOs converts a slice of Project models
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = ToProjectDTO(p)
	}
	return out
}
