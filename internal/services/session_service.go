package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/sarashino/voice-diary-api/internal/constants"
	"github.com/sarashino/voice-diary-api/internal/models"
	"github.com/sarashino/voice-diary-api/internal/repository"
	"gorm.io/gorm"
)

// ErrInvalidSession covers unknown, expired, and revoked tokens alike so the
// response shape never reveals which case occurred.
var ErrInvalidSession = errors.New("session invalid or expired")

// Principal is the authenticated identity resolved from a bearer token.
type Principal struct {
	ID       uint64
	Username string
	Role     models.UserRole
}

func (p *Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// SessionService issues and resolves opaque bearer tokens. Raw tokens are
// returned to the caller exactly once; only their SHA-256 hash is stored.
type SessionService struct {
	sessionRepo repository.SessionRepository
	ttl         time.Duration
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessionRepo repository.SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		ttl:         ttl,
	}
}

// Issue creates a session for the user and returns the raw token with its
// expiry. The token carries 32 bytes of entropy in URL-safe encoding.
func (s *SessionService) Issue(user *models.User) (string, time.Time, error) {
	buf := make([]byte, constants.SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	expiresAt := time.Now().Add(s.ttl)

	session := &models.Session{
		TokenHash: HashToken(token),
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to persist session: %w", err)
	}

	return token, expiresAt, nil
}

// Resolve maps a presented raw token to its principal. Unknown and expired
// tokens both return ErrInvalidSession.
func (s *SessionService) Resolve(token string) (*Principal, error) {
	session, err := s.sessionRepo.FindActiveByTokenHash(HashToken(token), time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	return &Principal{
		ID:       session.User.ID,
		Username: session.User.Username,
		Role:     session.User.Role,
	}, nil
}

// Revoke deletes the session for a raw token. Revoking an unknown or
// already-revoked token is a no-op.
func (s *SessionService) Revoke(token string) error {
	if err := s.sessionRepo.DeleteByTokenHash(HashToken(token)); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Sweep deletes all expired sessions and returns the number removed.
func (s *SessionService) Sweep() (int64, error) {
	removed, err := s.sessionRepo.DeleteExpired(time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	return removed, nil
}

// HashToken derives the stored lookup hash for a raw bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
