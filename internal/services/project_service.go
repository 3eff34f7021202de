package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sarashino/voice-diary-api/internal/constants"
	"github.com/sarashino/voice-diary-api/internal/models"
	"github.com/sarashino/voice-diary-api/internal/repository"
	"github.com/sarashino/voice-diary-api/internal/storage"
	"gorm.io/gorm"
)

var ErrProjectNotFound = errors.New("project not found")
var ErrNameRequired = errors.New("project name is required")

// Placeholder content used when the AI collaborator fails. Upstream errors
// are recovered per request, never fatal.
const (
	PlaceholderTranscription = "Transcription is not available for this recording."
	PlaceholderAnalysis      = "Emotional analysis is not available for this recording."
)

// placeholderCoverPNG is a 1x1 transparent PNG stored when cover generation
// fails or no AI service is configured.
var placeholderCoverPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// ProjectService orchestrates project rows against the active storage
// backend. Every mutation keeps the row's pointer fields consistent with the
// bytes: uploads commit the object before the row and compensate with a
// delete when the row write fails; replacements delete the previous object
// only after the new pointers are durable; project deletion removes the row
// first and treats blob cleanup as best-effort.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	backend     storage.Backend
	aiService   *AIService
	httpClient  *http.Client
}

// NewProjectService creates a new ProjectService. aiService may be nil when
// no API key is configured; AI-derived content then falls back to
// placeholders.
func NewProjectService(projectRepo repository.ProjectRepository, backend storage.Backend, aiService *AIService) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		backend:     backend,
		aiService:   aiService,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateProjectInput carries an uploaded recording as delivered by the
// inbound transfer layer.
type CreateProjectInput struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
	OwnerID     uint64
}

// CreateProject stores the audio bytes under a fresh key and inserts the
// project row. The upload happens first; if the insert fails the uploaded
// object is deleted before the error is surfaced, so no committed row ever
// points at a missing object and no orphan survives a failed create.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSuffix(input.Filename, storage.SanitizeExtension(input.Filename)))
	}
	if name == "" {
		name = "Voice note " + time.Now().Format("2006-01-02 15:04")
	}

	ext := storage.SanitizeExtension(input.Filename)
	if ext == "" {
		ext = storage.ExtensionForMIME(input.ContentType)
	}
	key := s.freshKey("audio", ext)

	if err := s.backend.Put(ctx, key, bytes.NewReader(input.Data), input.ContentType, int64(len(input.Data))); err != nil {
		return nil, err
	}

	ownerID := input.OwnerID
	project := &models.Project{
		Name:     name,
		AudioURL: s.backend.PublicURL(key),
		UserID:   &ownerID,
	}
	if s.backend.Remote() {
		project.AudioObjectKey = &key
	}

	if err := s.projectRepo.Create(project); err != nil {
		if derr := s.backend.Delete(ctx, key); derr != nil {
			log.Printf("compensating delete of %s failed: %v", key, derr)
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// GetProject retrieves a project by ID.
func (s *ProjectService) GetProject(id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// ListProjects returns a page of projects, newest first.
func (s *ProjectService) ListProjects(offset, limit int) ([]models.Project, int64, error) {
	projects, total, err := s.projectRepo.List(offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// Rename updates the project name.
func (s *ProjectService) Rename(project *models.Project, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	project.Name = name
	if err := s.projectRepo.Update(project); err != nil {
		return fmt.Errorf("failed to rename project: %w", err)
	}
	return nil
}

// Analyze transcribes the recording and derives an emotional analysis,
// updating both columns. AI failures degrade to placeholder text.
func (s *ProjectService) Analyze(ctx context.Context, project *models.Project, audio []byte, filename string) (*models.Project, error) {
	transcription := PlaceholderTranscription
	analysis := PlaceholderAnalysis

	if text, err := s.aiService.Transcribe(ctx, audio, filename); err != nil {
		log.Printf("transcription failed for project %d: %v", project.ID, err)
	} else {
		transcription = text
		if result, err := s.aiService.AnalyzeEmotion(ctx, text); err != nil {
			log.Printf("emotional analysis failed for project %d: %v", project.ID, err)
		} else {
			analysis = result
		}
	}

	if err := s.projectRepo.UpdateAnalysis(project.ID, &transcription, &analysis); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	project.Transcription = &transcription
	project.EmotionalAnalysis = &analysis
	return project, nil
}

// Reanalyze re-derives the emotional analysis from the stored transcription
// without re-uploading audio.
func (s *ProjectService) Reanalyze(ctx context.Context, project *models.Project) (*models.Project, error) {
	transcription := PlaceholderTranscription
	if project.Transcription != nil && *project.Transcription != "" {
		transcription = *project.Transcription
	}

	analysis := PlaceholderAnalysis
	if result, err := s.aiService.AnalyzeEmotion(ctx, transcription); err != nil {
		log.Printf("emotional analysis failed for project %d: %v", project.ID, err)
	} else {
		analysis = result
	}

	if err := s.projectRepo.UpdateAnalysis(project.ID, &transcription, &analysis); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	project.Transcription = &transcription
	project.EmotionalAnalysis = &analysis
	return project, nil
}

// GenerateCover renders a new cover for the project and replaces the
// previous one. The new object is stored and the pointer fields are
// committed before the previous object is deleted; a failed row update
// leaves the previous cover untouched and removes only the new object.
func (s *ProjectService) GenerateCover(ctx context.Context, project *models.Project, prompt string) (*models.Project, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = s.defaultCoverPrompt(project)
	}

	data, contentType := placeholderCoverPNG, "image/png"
	if source, err := s.aiService.GenerateCoverImage(ctx, prompt); err != nil {
		log.Printf("cover generation failed for project %d: %v", project.ID, err)
	} else {
		fetched, fetchedType, err := s.fetchCoverSource(ctx, source)
		if err != nil {
			return nil, err
		}
		data, contentType = fetched, fetchedType
	}

	return s.ReplaceCover(ctx, project, data, contentType)
}

// ReplaceCover stores new cover bytes and swaps the project's cover pointer
// fields, reclaiming the previous object only after the update is durable.
func (s *ProjectService) ReplaceCover(ctx context.Context, project *models.Project, data []byte, contentType string) (*models.Project, error) {
	key := s.freshKey("covers", storage.ExtensionForMIME(contentType))

	if err := s.backend.Put(ctx, key, bytes.NewReader(data), contentType, int64(len(data))); err != nil {
		return nil, err
	}

	newURL := s.backend.PublicURL(key)
	var newKey *string
	if s.backend.Remote() {
		newKey = &key
	}

	prevURL, prevKey := project.CoverURL, project.CoverObjectKey

	if err := s.projectRepo.UpdateCover(project.ID, &newURL, newKey); err != nil {
		if derr := s.backend.Delete(ctx, key); derr != nil {
			log.Printf("compensating delete of %s failed: %v", key, derr)
		}
		return nil, fmt.Errorf("failed to update cover: %w", err)
	}

	project.CoverURL = &newURL
	project.CoverObjectKey = newKey

	// Pointer update is durable; the previous object is now orphaned and
	// safe to reclaim.
	if prevURL != nil {
		s.deleteAsset(ctx, *prevURL, prevKey, key)
	}

	return project, nil
}

// DeleteProject removes the row first, then best-effort deletes both asset
// slots. The row is the authority: a failed blob delete leaves a harmless
// orphan, never a dangling reference.
func (s *ProjectService) DeleteProject(ctx context.Context, project *models.Project) error {
	if err := s.projectRepo.Delete(project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.deleteAsset(ctx, project.AudioURL, project.AudioObjectKey, "")
	if project.CoverURL != nil {
		s.deleteAsset(ctx, *project.CoverURL, project.CoverObjectKey, "")
	}
	return nil
}

// deleteAsset reclaims a single asset slot, resolving its key from the
// pointer pair. External cover URLs and assets held by an inactive backend
// are skipped. exclude guards replace-with-same-key cycles.
func (s *ProjectService) deleteAsset(ctx context.Context, assetURL string, objectKey *string, exclude string) {
	var key string
	switch {
	case objectKey != nil:
		if !s.backend.Remote() {
			// Pointer references the object store but local disk is
			// active; nothing to reclaim here.
			log.Printf("skipping cleanup of %s: object store not active", *objectKey)
			return
		}
		key = *objectKey
	default:
		resolved, ok := s.backend.KeyFromURL(assetURL)
		if !ok {
			return
		}
		key = resolved
	}

	if key == "" || key == exclude {
		return
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		log.Printf("failed to delete asset %s: %v", key, err)
	}
}

// freshKey builds a collision-resistant backend key for an asset slot.
func (s *ProjectService) freshKey(slot, ext string) string {
	logical := fmt.Sprintf("%s/%s-%s%s", slot, time.Now().UTC().Format("20060102-150405"), uuid.NewString(), ext)
	return s.backend.KeyFor(logical)
}

// defaultCoverPrompt builds an image prompt from what the project already
// knows about itself.
func (s *ProjectService) defaultCoverPrompt(project *models.Project) string {
	if project.Transcription != nil && *project.Transcription != "" && *project.Transcription != PlaceholderTranscription {
		return fmt.Sprintf("An evocative abstract cover illustration for a voice diary entry about: %s", *project.Transcription)
	}
	return fmt.Sprintf("An evocative abstract cover illustration for a voice diary entry titled %q", project.Name)
}

// fetchCoverSource materializes cover bytes from a data URI or an HTTP(S)
// URL. Any other scheme is rejected.
func (s *ProjectService) fetchCoverSource(ctx context.Context, source string) ([]byte, string, error) {
	if strings.HasPrefix(source, "data:") {
		return decodeDataURI(source)
	}

	parsed, err := url.Parse(source)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, "", &storage.Error{Kind: storage.KindInvalidSource, Op: "cover.fetch", Err: fmt.Errorf("unsupported source %q", source)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, "", &storage.Error{Kind: storage.KindInvalidSource, Op: "cover.fetch", Err: err}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", &storage.Error{Kind: storage.KindUnavailable, Op: "cover.fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &storage.Error{Kind: storage.KindUnavailable, Op: "cover.fetch", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxCoverFetchBytes))
	if err != nil {
		return nil, "", &storage.Error{Kind: storage.KindUnavailable, Op: "cover.fetch", Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}

// decodeDataURI parses "data:<mime>;base64,<payload>".
func decodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", &storage.Error{Kind: storage.KindInvalidSource, Op: "cover.decode", Err: errors.New("malformed data URI")}
	}

	contentType := "image/png"
	if mime, _, found := strings.Cut(meta, ";"); found && mime != "" {
		contentType = mime
	} else if !found && meta != "" && !strings.EqualFold(meta, "base64") {
		contentType = meta
	}

	if strings.HasSuffix(meta, ";base64") || meta == "base64" {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", &storage.Error{Kind: storage.KindInvalidSource, Op: "cover.decode", Err: err}
		}
		return data, contentType, nil
	}

	decoded, err := url.QueryUnescape(payload)
	if err != nil {
		return nil, "", &storage.Error{Kind: storage.KindInvalidSource, Op: "cover.decode", Err: err}
	}
	return []byte(decoded), contentType, nil
}
