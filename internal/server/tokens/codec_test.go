package tokens

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSecret_Format(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(secret)
	require.NoError(t, err)
	require.Len(t, raw, secretSize)

	// URL-safe: no padding, no '+', no '/'
	require.NotContains(t, secret, "=")
	require.NotContains(t, secret, "+")
	require.NotContains(t, secret, "/")
}

func TestHashSecret_Deterministic(t *testing.T) {
	require.Equal(t, HashSecret("abc"), HashSecret("abc"))
	require.NotEqual(t, HashSecret("abc"), HashSecret("abd"))
	require.Len(t, HashSecret("abc"), 64)
}

func TestGenerateSecret_NoCollisions(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		secret, err := GenerateSecret()
		require.NoError(t, err)
		hash := HashSecret(secret)
		if _, dup := seen[hash]; dup {
			t.Fatalf("hash collision after %d secrets", i)
		}
		seen[hash] = struct{}{}
	}
}

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, c := range code {
		require.True(t, c >= '0' && c <= '9')
	}
}

func TestGenerateNumericCode_InvalidLength(t *testing.T) {
	_, err := GenerateNumericCode(3)
	require.Error(t, err)
	_, err = GenerateNumericCode(11)
	require.Error(t, err)
}
