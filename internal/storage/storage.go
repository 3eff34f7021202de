package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sarashino/voice-diary-api/internal/config"
)

// Backend is the blob storage capability shared by the local-disk and
// object-store variants. Exactly one variant is active per process, chosen
// once at startup; the value is immutable afterwards and safe for concurrent
// use.
type Backend interface {
	// Put stores the body under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error

	// Delete removes the object. Deleting a missing object is a no-op.
	Delete(ctx context.Context, key string) error

	// PublicURL returns the URL clients use to fetch the object.
	PublicURL(key string) string

	// KeyFor maps a logical path to a backend key (applies any prefix).
	KeyFor(logicalPath string) string

	// KeyFromURL maps a previously issued public URL back to its key.
	// Returns false for URLs this backend did not issue.
	KeyFromURL(rawURL string) (string, bool)

	// Remote reports whether objects live outside the local filesystem.
	Remote() bool
}

// ErrorKind discriminates storage failures so callers can map them to
// distinct responses instead of sniffing error strings.
type ErrorKind string

const (
	KindNotFound       ErrorKind = "not_found"
	KindNotConfigured  ErrorKind = "not_configured"
	KindInvalidSource  ErrorKind = "invalid_source"
	KindUploadRejected ErrorKind = "upload_rejected"
	KindUnavailable    ErrorKind = "unavailable"
)

// Error is a storage failure tagged with its kind.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("storage: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a storage Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == kind
}

// FromConfig selects the active backend: the object store when a complete
// set of remote credentials is configured, local disk otherwise.
func FromConfig(ctx context.Context, cfg *config.Config) (Backend, error) {
	if cfg.RemoteStorageConfigured() {
		return NewObjectStore(ctx, cfg)
	}
	return NewLocalDisk(cfg.UploadsDir, cfg.UploadsPublicPath)
}
