package repository

import (
	"time"

	"github.com/sarashino/voice-diary-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by its case-normalized username
	FindByUsername(username string) (*models.User, error)

	// PromoteToAdmin sets the admin role on an existing user
	PromoteToAdmin(username string) error
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	// Create persists a new session row
	Create(session *models.Session) error

	// FindActiveByTokenHash finds a non-expired session by token hash with
	// its user preloaded. Expired and unknown tokens are indistinguishable.
	FindActiveByTokenHash(tokenHash string, now time.Time) (*models.Session, error)

	// DeleteByTokenHash deletes the session matching the hash; deleting an
	// unknown hash is a no-op
	DeleteByTokenHash(tokenHash string) error

	// DeleteExpired removes all sessions expired at the given instant and
	// returns how many rows were removed
	DeleteExpired(now time.Time) (int64, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// List returns projects ordered by creation time, newest first
	List(offset, limit int) ([]models.Project, int64, error)

	// Update saves all fields of the project row
	Update(project *models.Project) error

	// UpdateCover atomically rewrites the cover pointer pair
	UpdateCover(id uint64, coverURL, coverObjectKey *string) error

	// UpdateAnalysis rewrites the transcription and emotional analysis
	UpdateAnalysis(id uint64, transcription, emotionalAnalysis *string) error

	// Delete removes the project row
	Delete(id uint64) error
}
