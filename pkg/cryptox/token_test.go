package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintToken(t *testing.T) {
	token1 := "test-token-1"
	token2 := "test-token-2"

	fp1a := FingerprintToken(token1)
	fp1b := FingerprintToken(token1)
	fp2 := FingerprintToken(token2)

	// Fingerprint should be deterministic
	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")

	// Different tokens should have different fingerprints
	require.NotEqual(t, fp1a, fp2, "different tokens should have different fingerprints")

	// Fingerprint should be base64url encoded SHA-256 (43 chars)
	require.Len(t, fp1a, 43, "SHA-256 base64url should be 43 chars")
}

func TestGenerateNumericCode(t *testing.T) {
	tests := []struct {
		name   string
		digits int
	}{
		{"six digits", 6},
		{"single digit", 1},
		{"max digits", 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := GenerateNumericCode(tt.digits)
			require.NoError(t, err)
			require.Len(t, code, tt.digits)
			for _, c := range code {
				require.True(t, c >= '0' && c <= '9', "code should only contain digits")
			}
		})
	}
}

func TestGenerateNumericCode_InvalidLength(t *testing.T) {
	for _, n := range []int{0, -1, 19} {
		code, err := GenerateNumericCode(n)
		require.Error(t, err)
		require.Empty(t, code)
	}
}

func TestGenerateNumericCode_Distribution(t *testing.T) {
	// 300 draws of a 6 digit code should cover more than one leading digit
	// and should almost never repeat.
	seen := make(map[string]bool)
	leading := make(map[byte]bool)

	for range 300 {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		seen[code] = true
		leading[code[0]] = true
	}

	require.Greater(t, len(seen), 250)
	require.Greater(t, len(leading), 1)
}
