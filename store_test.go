package main

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestUser(email, role string) *User {
	return &User{
		Email:        email,
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhash",
		Role:         role,
		Name:         "Test User",
		StudentID:    "S1",
	}
}

func TestMemStoreUserLifecycle(t *testing.T) {
	s := NewMemStore()

	require.NoError(t, s.CreateUser(newTestUser("a@x.com", RoleUser)))
	require.ErrorIs(t, s.CreateUser(newTestUser("a@x.com", RoleUser)), ErrDuplicate)

	u, err := s.GetUser("a@x.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, RoleUser, u.Role)

	missing, err := s.GetUser("nobody@x.com")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, s.UpdateRole("a@x.com", RoleAdmin))
	u, _ = s.GetUser("a@x.com")
	require.Equal(t, RoleAdmin, u.Role)

	require.NoError(t, s.DeleteUser("a@x.com"))
	require.ErrorIs(t, s.DeleteUser("a@x.com"), ErrNotFound)
	require.ErrorIs(t, s.UpdateRole("a@x.com", RoleUser), ErrNotFound)
}

func TestMemStoreReturnsCopies(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.CreateUser(newTestUser("a@x.com", RoleUser)))

	u, _ := s.GetUser("a@x.com")
	u.Role = RoleAdmin // mutating the copy must not affect the store

	again, _ := s.GetUser("a@x.com")
	require.Equal(t, RoleUser, again.Role)
}

func TestMemStoreConcurrentIncrements(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.CreateUser(newTestUser("a@x.com", RoleUser)))

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := s.IncrementAPICount("a@x.com")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	u, err := s.GetUser("a@x.com")
	require.NoError(t, err)
	require.EqualValues(t, n, u.APICount)
}

func TestMemStoreResetPasswordClearsToken(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.CreateUser(newTestUser("a@x.com", RoleUser)))

	expiry := time.Now().Add(time.Hour).Unix()
	require.NoError(t, s.SetResetToken("a@x.com", "tok", expiry))
	u, _ := s.GetUser("a@x.com")
	require.True(t, u.ResetPending())

	require.NoError(t, s.ResetPassword("a@x.com", "newhash"))
	u, _ = s.GetUser("a@x.com")
	require.Equal(t, "newhash", u.PasswordHash)
	require.False(t, u.ResetPending())
	require.Empty(t, u.ResetToken)
	require.Zero(t, u.ResetTokenExpiry)
}

func TestMemStoreEndpointStats(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.RecordEndpointHit("POST", "/login"))
	require.NoError(t, s.RecordEndpointHit("POST", "/login"))
	require.NoError(t, s.RecordEndpointHit("GET", "/dashboard"))

	stats, err := s.ListEndpointStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Equal(t, "/dashboard", stats[0].Endpoint)
	require.EqualValues(t, 1, stats[0].Count)
	require.Equal(t, "/login", stats[1].Endpoint)
	require.EqualValues(t, 2, stats[1].Count)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.close()

	require.NoError(t, s.CreateUser(newTestUser("a@x.com", RoleUser)))
	require.ErrorIs(t, s.CreateUser(newTestUser("a@x.com", RoleUser)), ErrDuplicate)

	u, err := s.GetUser("a@x.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, "a@x.com", u.Email)
	require.False(t, u.ResetPending())

	missing, err := s.GetUser("nobody@x.com")
	require.NoError(t, err)
	require.Nil(t, missing)

	// counter increments atomically and returns the new value
	for i := int64(1); i <= 3; i++ {
		count, err := s.IncrementAPICount("a@x.com")
		require.NoError(t, err)
		require.Equal(t, i, count)
	}
	_, err = s.IncrementAPICount("nobody@x.com")
	require.ErrorIs(t, err, ErrNotFound)

	// reset token lifecycle
	expiry := time.Now().Add(time.Hour).Unix()
	require.NoError(t, s.SetResetToken("a@x.com", "tok", expiry))
	u, _ = s.GetUser("a@x.com")
	require.Equal(t, "tok", u.ResetToken)
	require.Equal(t, expiry, u.ResetTokenExpiry)

	require.NoError(t, s.ResetPassword("a@x.com", "newhash"))
	u, _ = s.GetUser("a@x.com")
	require.Equal(t, "newhash", u.PasswordHash)
	require.False(t, u.ResetPending())

	// endpoint stats upsert
	require.NoError(t, s.RecordEndpointHit("POST", "/login"))
	require.NoError(t, s.RecordEndpointHit("POST", "/login"))
	stats, err := s.ListEndpointStats()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.EqualValues(t, 2, stats[0].Count)

	// role + delete
	require.NoError(t, s.UpdateRole("a@x.com", RoleAdmin))
	require.NoError(t, s.DeleteUser("a@x.com"))
	require.ErrorIs(t, s.DeleteUser("a@x.com"), ErrNotFound)
}
