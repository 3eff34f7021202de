package repository

import (
	"github.com/sarashino/voice-diary-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns projects ordered by creation time, newest first
func (r *GormProjectRepository) List(offset, limit int) ([]models.Project, int64, error) {
	var total int64
	if err := r.db.Model(&models.Project{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	err := r.db.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update saves all fields of the project row
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// UpdateCover atomically rewrites the cover pointer pair. Both columns move
// in one UPDATE so no reader ever sees a key without its URL.
func (r *GormProjectRepository) UpdateCover(id uint64, coverURL, coverObjectKey *string) error {
	return r.db.Model(&models.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cover_url":        coverURL,
			"cover_object_key": coverObjectKey,
		}).Error
}

// UpdateAnalysis rewrites the transcription and emotional analysis
func (r *GormProjectRepository) UpdateAnalysis(id uint64, transcription, emotionalAnalysis *string) error {
	return r.db.Model(&models.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"transcription":      transcription,
			"emotional_analysis": emotionalAnalysis,
		}).Error
}

// Delete removes the project row
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Project{}, id).Error
}
