package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDisk(t *testing.T) *LocalDisk {
	t.Helper()
	disk, err := NewLocalDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)
	return disk
}

func TestLocalDisk_PutAndDelete(t *testing.T) {
	disk := newTestDisk(t)
	ctx := context.Background()

	err := disk.Put(ctx, "audio/rec.webm", bytes.NewReader([]byte("audio-bytes")), "audio/webm", 11)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(disk.root, "audio", "rec.webm"))
	require.NoError(t, err)
	require.Equal(t, []byte("audio-bytes"), data)

	require.NoError(t, disk.Delete(ctx, "audio/rec.webm"))
	_, err = os.Stat(filepath.Join(disk.root, "audio", "rec.webm"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalDisk_DeleteMissingIsNoOp(t *testing.T) {
	disk := newTestDisk(t)

	require.NoError(t, disk.Delete(context.Background(), "audio/never-written.webm"))
}

func TestLocalDisk_RejectsPathEscapes(t *testing.T) {
	disk := newTestDisk(t)
	ctx := context.Background()

	escapes := []string{
		"../outside.txt",
		"audio/../../outside.txt",
		"audio/../..",
		"/etc/passwd",
		"",
		".",
	}
	for _, key := range escapes {
		t.Run(key, func(t *testing.T) {
			err := disk.Put(ctx, key, bytes.NewReader([]byte("x")), "text/plain", 1)
			require.Error(t, err)
			require.True(t, IsKind(err, KindInvalidSource), "put %q: %v", key, err)

			err = disk.Delete(ctx, key)
			require.Error(t, err)
			require.True(t, IsKind(err, KindInvalidSource), "delete %q: %v", key, err)
		})
	}
}

func TestLocalDisk_RejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	disk, err := NewLocalDisk(root, "/uploads")
	require.NoError(t, err)

	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	err = disk.Put(context.Background(), "link/escaped.txt", bytes.NewReader([]byte("x")), "text/plain", 1)
	require.Error(t, err)
	require.True(t, IsKind(err, KindInvalidSource))
}

func TestLocalDisk_PublicURL(t *testing.T) {
	disk := newTestDisk(t)

	require.Equal(t, "/uploads/audio/rec.webm", disk.PublicURL("audio/rec.webm"))

	key, ok := disk.KeyFromURL("/uploads/audio/rec.webm")
	require.True(t, ok)
	require.Equal(t, "audio/rec.webm", key)

	_, ok = disk.KeyFromURL("https://cdn.example.com/audio/rec.webm")
	require.False(t, ok)

	_, ok = disk.KeyFromURL("/uploads/../etc/passwd")
	require.False(t, ok)
}

func TestLocalDisk_Remote(t *testing.T) {
	disk := newTestDisk(t)
	require.False(t, disk.Remote())
}
