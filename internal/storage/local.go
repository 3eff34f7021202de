package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalDisk stores objects as files under a fixed root directory and serves
// them statically under a public URL path. Every externally supplied key or
// URL is canonicalized and verified to stay inside the root before any
// filesystem access.
type LocalDisk struct {
	root       string // absolute, symlink-resolved
	publicPath string // e.g. "/uploads"
}

func NewLocalDisk(root, publicPath string) (*LocalDisk, error) {
	if root == "" {
		return nil, &Error{Kind: KindNotConfigured, Op: "local.new", Err: errors.New("uploads directory not set")}
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: "local.new", Err: err}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: "local.new", Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: "local.new", Err: err}
	}
	publicPath = "/" + strings.Trim(publicPath, "/")
	return &LocalDisk{root: resolved, publicPath: publicPath}, nil
}

func (l *LocalDisk) Remote() bool { return false }

func (l *LocalDisk) KeyFor(logicalPath string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(logicalPath)), "/")
}

func (l *LocalDisk) PublicURL(key string) string {
	return l.publicPath + "/" + strings.TrimPrefix(key, "/")
}

// KeyFromURL inverts PublicURL. External URLs and paths outside the public
// prefix are not ours.
func (l *LocalDisk) KeyFromURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, l.publicPath+"/") {
		return "", false
	}
	key := strings.TrimPrefix(rawURL, l.publicPath+"/")
	if _, err := l.resolve(key); err != nil {
		return "", false
	}
	return key, true
}

func (l *LocalDisk) Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error {
	full, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &Error{Kind: KindUploadRejected, Op: "local.put", Err: err}
	}
	// MkdirAll may have followed a symlinked intermediate directory; verify
	// the final location again now that the parent exists.
	if err := l.verifyInsideRoot(full); err != nil {
		return err
	}
	f, err := os.Create(full)
	if err != nil {
		return &Error{Kind: KindUploadRejected, Op: "local.put", Err: err}
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(full)
		return &Error{Kind: KindUploadRejected, Op: "local.put", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return &Error{Kind: KindUploadRejected, Op: "local.put", Err: err}
	}
	return nil
}

func (l *LocalDisk) Delete(ctx context.Context, key string) error {
	full, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &Error{Kind: KindUnavailable, Op: "local.delete", Err: err}
	}
	return nil
}

// resolve maps a relative key to an absolute path, rejecting absolute
// inputs, ".." segments, and symlink escapes.
func (l *LocalDisk) resolve(key string) (string, error) {
	key = filepath.ToSlash(key)
	if key == "" || key == "." || strings.HasPrefix(key, "/") || strings.Contains(key, "\x00") {
		return "", &Error{Kind: KindInvalidSource, Op: "local.resolve", Err: fmt.Errorf("invalid key %q", key)}
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", &Error{Kind: KindInvalidSource, Op: "local.resolve", Err: fmt.Errorf("path escape in key %q", key)}
		}
	}
	full := filepath.Join(l.root, filepath.FromSlash(key))
	if err := l.verifyInsideRoot(full); err != nil {
		return "", err
	}
	return full, nil
}

// verifyInsideRoot resolves symlinks on the deepest existing ancestor of
// full and checks the result is still under the root.
func (l *LocalDisk) verifyInsideRoot(full string) error {
	probe := full
	for {
		resolved, err := filepath.EvalSymlinks(probe)
		if err == nil {
			if resolved != l.root && !strings.HasPrefix(resolved, l.root+string(filepath.Separator)) {
				return &Error{Kind: KindInvalidSource, Op: "local.resolve", Err: fmt.Errorf("path %q escapes uploads root", full)}
			}
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return &Error{Kind: KindUnavailable, Op: "local.resolve", Err: err}
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return &Error{Kind: KindInvalidSource, Op: "local.resolve", Err: fmt.Errorf("path %q has no existing ancestor", full)}
		}
		probe = parent
	}
}
