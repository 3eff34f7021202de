package repository

import (
	"time"

	"github.com/sarashino/voice-diary-api/internal/models"
	"gorm.io/gorm"
)

// GormSessionRepository is a GORM implementation of SessionRepository
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db: db}
}

// Create persists a new session row
func (r *GormSessionRepository) Create(session *models.Session) error {
	return r.db.Create(session).Error
}

// FindActiveByTokenHash finds a non-expired session by token hash. A single
// query shape covers both unknown and expired tokens, so neither the timing
// nor the result distinguishes the two cases.
func (r *GormSessionRepository) FindActiveByTokenHash(tokenHash string, now time.Time) (*models.Session, error) {
	var session models.Session
	err := r.db.Preload("User").
		Where("token_hash = ? AND expires_at > ?", tokenHash, now).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteByTokenHash deletes the session matching the hash
func (r *GormSessionRepository) DeleteByTokenHash(tokenHash string) error {
	return r.db.Where("token_hash = ?", tokenHash).Delete(&models.Session{}).Error
}

// DeleteExpired removes all sessions whose expiry has passed
func (r *GormSessionRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at <= ?", now).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
