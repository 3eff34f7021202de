package constants

// Context keys set by middleware for handlers downstream.
const (
	ContextKeyPrincipal = "principal"
	ContextKeyProject   = "project"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 64
	MinPasswordLength = 6

	// SessionTokenBytes is the entropy of a raw bearer token before encoding.
	SessionTokenBytes = 32

	// MaxAudioUploadBytes bounds a single recording upload.
	MaxAudioUploadBytes = 50 << 20

	// MaxCoverFetchBytes bounds a fetched cover image.
	MaxCoverFetchBytes = 20 << 20
)
