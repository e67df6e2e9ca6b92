package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := hashPassword("s3cret")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", hash)
	require.True(t, comparePassword(hash, "s3cret"))
	require.False(t, comparePassword(hash, "wrong"))
}

func TestGenToken(t *testing.T) {
	a, err := genToken(resetTokenBytes)
	require.NoError(t, err)
	require.Len(t, a, 2*resetTokenBytes)

	b, err := genToken(resetTokenBytes)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	jwtSecret = []byte("unit-test-secret")
	accessTokenTTL = 60 * time.Second

	token, err := createAccessToken("a@x.com", RoleAdmin)
	require.NoError(t, err)

	id, err := parseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", id.Email)
	require.Equal(t, RoleAdmin, id.Role)
}

func TestAccessTokenExpiryBoundary(t *testing.T) {
	jwtSecret = []byte("unit-test-secret")

	// one second of validity left: still accepted
	accessTokenTTL = time.Second
	token, err := createAccessToken("a@x.com", RoleUser)
	require.NoError(t, err)
	_, err = parseAccessToken(token)
	require.NoError(t, err)

	// expired one second ago: rejected
	accessTokenTTL = -time.Second
	expired, err := createAccessToken("a@x.com", RoleUser)
	require.NoError(t, err)
	_, err = parseAccessToken(expired)
	require.ErrorIs(t, err, errInvalidToken)
}

func TestAccessTokenRejectsBadSignature(t *testing.T) {
	jwtSecret = []byte("unit-test-secret")
	accessTokenTTL = time.Minute

	token, err := createAccessToken("a@x.com", RoleUser)
	require.NoError(t, err)

	jwtSecret = []byte("a-different-secret")
	_, err = parseAccessToken(token)
	require.ErrorIs(t, err, errInvalidToken)
}

func TestAccessTokenRejectsMalformed(t *testing.T) {
	jwtSecret = []byte("unit-test-secret")
	for _, bad := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := parseAccessToken(bad)
		require.Error(t, err, "token %q", bad)
	}
}
