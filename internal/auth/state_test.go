package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	state, err := SignState("test-secret", "/link-discord")
	require.NoError(t, err)

	redirect, err := ParseState("test-secret", state)
	require.NoError(t, err)
	assert.Equal(t, "/link-discord", redirect)
}

func TestParseStateRejectsWrongSecret(t *testing.T) {
	state, err := SignState("test-secret", "/link-discord")
	require.NoError(t, err)

	_, err = ParseState("other-secret", state)
	assert.Error(t, err)
}

func TestParseStateRejectsGarbage(t *testing.T) {
	_, err := ParseState("test-secret", "not-a-token")
	assert.Error(t, err)
}
