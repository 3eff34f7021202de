package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	record, err := HashPassword("secret-password-1")
	require.NoError(t, err)

	require.True(t, VerifyPassword("secret-password-1", record))
	require.False(t, VerifyPassword("secret-password-2", record))
	require.False(t, VerifyPassword("", record))
}

func TestHashPassword_RecordFormat(t *testing.T) {
	record, err := HashPassword("anything")
	require.NoError(t, err)

	parts := strings.Split(record, "$")
	require.Len(t, parts, 3)
	require.Equal(t, "argon2id", parts[0])
	require.NotEmpty(t, parts[1])
	require.NotEmpty(t, parts[2])
}

func TestHashPassword_FreshSaltPerCall(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, VerifyPassword("same-password", first))
	require.True(t, VerifyPassword("same-password", second))
}

func TestVerifyPassword_FailsClosed(t *testing.T) {
	valid, err := HashPassword("password-123")
	require.NoError(t, err)

	cases := map[string]string{
		"empty record":      "",
		"missing segments":  "argon2id$onlysalt",
		"too many segments": valid + "$extra",
		"unknown algorithm": strings.Replace(valid, "argon2id", "bcrypt", 1),
		"bad salt encoding": "argon2id$!!!$" + strings.Split(valid, "$")[2],
		"bad key encoding":  "argon2id$" + strings.Split(valid, "$")[1] + "$!!!",
		"empty derived key": "argon2id$" + strings.Split(valid, "$")[1] + "$",
		"plain garbage":     "not-a-hash-record",
	}

	for name, record := range cases {
		t.Run(name, func(t *testing.T) {
			require.False(t, VerifyPassword("password-123", record))
		})
	}
}
