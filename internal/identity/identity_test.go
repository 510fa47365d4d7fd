package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

func TestSignParse(t *testing.T) {
	v := NewVerifier("s3cret")
	want := model.Viewer{ID: "u1", Username: "dr.kim", Role: model.RoleDoctor, Verified: true}

	tok, err := v.Sign(want, time.Minute)
	require.NoError(t, err)

	got, err := v.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseRejectsOtherSecretAndExpired(t *testing.T) {
	tok, err := NewVerifier("a").Sign(model.Viewer{ID: "u1"}, time.Minute)
	require.NoError(t, err)
	_, err = NewVerifier("b").Parse(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	expired, err := NewVerifier("a").Sign(model.Viewer{ID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = NewVerifier("a").Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseDefaultsRole(t *testing.T) {
	v := NewVerifier("k")
	tok, err := v.Sign(model.Viewer{ID: "u2", Username: "anon"}, time.Minute)
	require.NoError(t, err)
	got, err := v.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, got.Role)
}

func TestFromHeader(t *testing.T) {
	tok, ok := FromHeader("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	_, ok = FromHeader("Basic xyz")
	assert.False(t, ok)
	_, ok = FromHeader("Bearer ")
	assert.False(t, ok)
}
