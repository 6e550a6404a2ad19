package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyAPIKey(t *testing.T) {
	hash, err := HashAPIKey("sk-agent-1234")
	require.NoError(t, err)
	require.NotEqual(t, "sk-agent-1234", hash)

	require.True(t, VerifyAPIKey(hash, "sk-agent-1234"))
	require.False(t, VerifyAPIKey(hash, "sk-agent-9999"))
}

func TestVerifyAPIKeyRejectsSentinel(t *testing.T) {
	// The anonymization job overwrites credential hashes with a plain
	// sentinel; verification must fail for any candidate.
	require.False(t, VerifyAPIKey("ANONYMIZED_1700000000000_ab12cd34", "sk-agent-1234"))
	require.False(t, VerifyAPIKey("ANONYMIZED_1700000000000_ab12cd34", ""))
}
