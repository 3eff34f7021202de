package storage

import (
	"path"
	"strings"
)

// mimeExtensions maps the MIME types this service stores to file extensions.
// Covers fetched from data URIs or remote URLs arrive with a declared type
// only, so unknown types get a safe default rather than an empty extension.
var mimeExtensions = map[string]string{
	"image/png":   ".png",
	"image/jpeg":  ".jpg",
	"image/gif":   ".gif",
	"image/webp":  ".webp",
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/mpeg":  ".mp3",
	"audio/mp4":   ".m4a",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/flac":  ".flac",
}

const defaultExtension = ".png"

// ExtensionForMIME returns the file extension for a MIME type, ignoring any
// parameters ("audio/webm;codecs=opus"). Unknown types default to ".png".
func ExtensionForMIME(contentType string) string {
	mediaType := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if ext, ok := mimeExtensions[mediaType]; ok {
		return ext
	}
	return defaultExtension
}

// SanitizeExtension extracts a safe extension from a client-declared
// filename. Anything other than a short alphanumeric extension is dropped.
func SanitizeExtension(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(filename)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
