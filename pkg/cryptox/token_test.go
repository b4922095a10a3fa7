package cryptox_test

import (
	"testing"

	"github.com/aussiebroadwan/cliq/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	for _, size := range []int{cryptox.TokenSize128, cryptox.TokenSize256} {
		a, err := cryptox.GenerateToken(size)
		require.NoError(t, err)
		b, err := cryptox.GenerateToken(size)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	}

	_, err := cryptox.GenerateToken(0)
	require.Error(t, err)
}

func TestFingerprintToken(t *testing.T) {
	fp := cryptox.FingerprintToken("invite-token")
	require.Equal(t, fp, cryptox.FingerprintToken("invite-token"))
	require.NotEqual(t, fp, cryptox.FingerprintToken("invite-token2"))
	require.Len(t, fp, 43)

	require.True(t, cryptox.EqualFingerprint("invite-token", fp))
	require.False(t, cryptox.EqualFingerprint("other", fp))
}
