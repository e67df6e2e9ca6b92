package main

import "time"

// Role values stored on a user record.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a credential record, keyed by email
type User struct {
	Email            string
	PasswordHash     string
	Role             string
	Name             string
	StudentID        string
	APICount         int64
	ResetToken       string
	ResetTokenExpiry int64 // unix seconds; zero when no reset is pending
	CreatedAt        time.Time
}

// ResetPending reports whether a reset token is set on the record.
func (u *User) ResetPending() bool {
	return u.ResetToken != "" && u.ResetTokenExpiry != 0
}

// Identity is the authenticated caller extracted from a session token
type Identity struct {
	Email string
	Role  string
}

// EndpointStat is a persisted call counter for one logical endpoint
type EndpointStat struct {
	Method    string
	Endpoint  string
	Count     int64
	UpdatedAt time.Time
}
