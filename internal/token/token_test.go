package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier() *Verifier {
	return NewVerifier("test-secret", "atelier-test", time.Hour)
}

func TestVerifyValidToken(t *testing.T) {
	v := newTestVerifier()
	raw, expiresAt, err := v.Issue(Identity{UserID: 42})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	identity, err := v.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
}

func TestVerifyMissing(t *testing.T) {
	v := newTestVerifier()
	_, err := v.Verify("")
	assert.ErrorIs(t, err, ErrMissing)
	_, err = v.Verify("   ")
	assert.ErrorIs(t, err, ErrMissing)
}

func TestVerifyExpired(t *testing.T) {
	v := newTestVerifier()
	raw, _, err := v.IssueWithTTL(Identity{UserID: 7}, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(raw)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyMalformed(t *testing.T) {
	v := newTestVerifier()
	for _, raw := range []string{"not-a-token", "a.b", "%%%.%%%.%%%"} {
		_, err := v.Verify(raw)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	other := NewVerifier("other-secret", "atelier-test", time.Hour)
	raw, _, err := other.Issue(Identity{UserID: 9})
	require.NoError(t, err)

	_, err = newTestVerifier().Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyWrongIssuer(t *testing.T) {
	other := NewVerifier("test-secret", "someone-else", time.Hour)
	raw, _, err := other.Issue(Identity{UserID: 9})
	require.NoError(t, err)

	_, err = newTestVerifier().Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyDeterministic(t *testing.T) {
	v := newTestVerifier()
	raw, _, err := v.Issue(Identity{UserID: 3})
	require.NoError(t, err)

	first, err := v.Verify(raw)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := v.Verify(raw)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
