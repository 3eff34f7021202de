package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Existing hash records encode their derived key under
// these costs, so changing them requires a new algorithm tag.
const (
	algorithmTag = "argon2id"

	saltLength   = 16
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// HashPassword derives an argon2id hash with a fresh random salt and encodes
// it as "argon2id$<salt>$<key>" with raw base64 segments. The '$' delimiter
// cannot appear in the base64 alphabet, so parsing is unambiguous.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	record := strings.Join([]string{
		algorithmTag,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$")
	return record, nil
}

// VerifyPassword checks a password against a stored hash record. It fails
// closed: malformed records, unknown algorithm tags, and decode errors all
// verify as false rather than surfacing an error. The comparison is constant
// time regardless of where the derived keys differ.
func VerifyPassword(password, record string) bool {
	parts := strings.Split(record, "$")
	if len(parts) != 3 {
		return false
	}
	if parts[0] != algorithmTag {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	stored, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	if len(stored) == 0 {
		return false
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, uint32(len(stored)))
	return subtle.ConstantTimeCompare(key, stored) == 1
}
