package main

import (
	"context"
	"net/http"
	"strings"
)

type contextKey int

const identityKey contextKey = iota

// RequireAuth verifies the bearer session token and stores the caller identity
// in the request context. Missing or malformed credentials are 401, distinct
// from the 403 an authenticated-but-unprivileged caller gets later.
func (a *App) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, msgNoToken)
			return
		}
		tokenString := strings.TrimPrefix(auth, "Bearer ")
		id, err := parseAccessToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, msgBadToken)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) *Identity {
	id, _ := r.Context().Value(identityKey).(*Identity)
	return id
}

// requireAdmin re-checks the caller's role against the persisted record. The
// token's role claim can be stale relative to a role change, so privileged
// operations never trust it alone. Returns a zero status when authorized.
func (a *App) requireAdmin(w http.ResponseWriter, r *http.Request) *Identity {
	id := identityFrom(r)
	if id == nil {
		writeError(w, http.StatusUnauthorized, msgNoToken)
		return nil
	}
	caller, err := a.Store.GetUser(id.Email)
	if err != nil {
		writeInternal(w, "admin lookup", err)
		return nil
	}
	if caller == nil {
		writeError(w, http.StatusNotFound, msgAdminNotFound)
		return nil
	}
	if caller.Role != RoleAdmin {
		writeError(w, http.StatusForbidden, msgAdminsOnly)
		return nil
	}
	return id
}
