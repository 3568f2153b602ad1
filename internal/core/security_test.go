// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyPasswordTimingSafeNilHash(t *testing.T) {
	// Unknown accounts still burn a hash comparison.
	ok, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGenerateInviteCode(t *testing.T) {
	seen := make(map[string]struct{})

	for range 50 {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		require.Len(t, code, InviteCodeLength)

		for _, r := range code {
			require.Contains(t, codeAlphabet, string(r),
				"codes use the unambiguous alphabet only")
		}

		seen[code] = struct{}{}
	}

	require.Greater(t, len(seen), 1)
}
