package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResetRequestValidation(t *testing.T) {
	_, r := newTestApp(t)

	rec, _ := doJSON(t, r, "POST", "/request-password-reset", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := doJSON(t, r, "POST", "/request-password-reset", "", map[string]string{"email": "nobody@x.com"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, msgNoAccount, body["message"])
}

func TestResetFlowSingleUse(t *testing.T) {
	app, r := newTestApp(t)
	register(t, r, "a@x.com", "oldpw", "user", "S1")

	rec, body := doJSON(t, r, "POST", "/request-password-reset", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, body["link"], "token=")

	u, err := app.Store.GetUser("a@x.com")
	require.NoError(t, err)
	require.True(t, u.ResetPending())
	require.Len(t, u.ResetToken, 2*resetTokenBytes)
	require.Contains(t, body["link"], u.ResetToken)
	token := u.ResetToken

	// wrong token rejected without touching state
	rec, _ = doJSON(t, r, "POST", "/reset-password", "", map[string]string{
		"email": "a@x.com", "token": "deadbeef", "newPassword": "newpw",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	u, _ = app.Store.GetUser("a@x.com")
	require.True(t, u.ResetPending())

	// correct token succeeds exactly once
	rec, _ = doJSON(t, r, "POST", "/reset-password", "", map[string]string{
		"email": "a@x.com", "token": token, "newPassword": "newpw",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	u, _ = app.Store.GetUser("a@x.com")
	require.False(t, u.ResetPending())

	// old password rejected, new one works
	rec, _ = doJSON(t, r, "POST", "/login", "", map[string]string{"email": "a@x.com", "password": "oldpw"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	login(t, r, "a@x.com", "newpw")

	// replaying the consumed token fails
	rec, body = doJSON(t, r, "POST", "/reset-password", "", map[string]string{
		"email": "a@x.com", "token": token, "newPassword": "again",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, msgResetInvalid, body["message"])
}

func TestResetExpiredToken(t *testing.T) {
	app, r := newTestApp(t)
	register(t, r, "a@x.com", "oldpw", "user", "S1")

	// token issued over an hour ago
	expired := time.Now().Add(-time.Minute).Unix()
	require.NoError(t, app.Store.SetResetToken("a@x.com", "tok-expired", expired))

	rec, body := doJSON(t, r, "POST", "/reset-password", "", map[string]string{
		"email": "a@x.com", "token": "tok-expired", "newPassword": "newpw",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, msgResetInvalid, body["message"])

	// expired token is dropped from the record and the password untouched
	u, _ := app.Store.GetUser("a@x.com")
	require.False(t, u.ResetPending())
	login(t, r, "a@x.com", "oldpw")
}

func TestResetMissingFields(t *testing.T) {
	_, r := newTestApp(t)
	register(t, r, "a@x.com", "pw", "user", "S1")

	for _, body := range []map[string]string{
		{"token": "t", "newPassword": "n"},
		{"email": "a@x.com", "newPassword": "n"},
		{"email": "a@x.com", "token": "t"},
	} {
		rec, out := doJSON(t, r, "POST", "/reset-password", "", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, msgResetFieldsRequired, out["message"])
	}

	rec, _ := doJSON(t, r, "POST", "/reset-password", "", map[string]string{
		"email": "nobody@x.com", "token": "t", "newPassword": "n",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestResetUnknownThenKnown(t *testing.T) {
	app, r := newTestApp(t)
	register(t, r, "a@x.com", "pw", "user", "S1")

	rec, _ := doJSON(t, r, "POST", "/request-password-reset", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	first, _ := app.Store.GetUser("a@x.com")

	// a second request replaces the pending token
	rec, _ = doJSON(t, r, "POST", "/request-password-reset", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	second, _ := app.Store.GetUser("a@x.com")
	require.NotEqual(t, first.ResetToken, second.ResetToken)

	// the superseded token no longer works
	rec, _ = doJSON(t, r, "POST", "/reset-password", "", map[string]string{
		"email": "a@x.com", "token": first.ResetToken, "newPassword": "newpw",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
