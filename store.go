package main

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrDuplicate is returned when a user with the same email already exists.
	ErrDuplicate = errors.New("user already exists")
	// ErrNotFound is returned by mutations that matched no record.
	ErrNotFound = errors.New("not found")
)

// Store interface for credential and usage persistence
type Store interface {
	// User operations
	CreateUser(u *User) error
	GetUser(email string) (*User, error)
	ListUsers() ([]*User, error)
	DeleteUser(email string) error
	UpdateRole(email, role string) error
	// Usage counter: atomic server-side increment, returns the new count
	IncrementAPICount(email string) (int64, error)
	// Reset token operations
	SetResetToken(email, token string, expiresAt int64) error
	ClearResetToken(email string) error
	// ResetPassword overwrites the hash and clears both reset fields in one update
	ResetPassword(email, passwordHash string) error
	// Endpoint stats
	RecordEndpointHit(method, endpoint string) error
	ListEndpointStats() ([]*EndpointStat, error)
}

// Memory store, used by tests and DB_ADAPTER=memory
type MemStore struct {
	mu    sync.Mutex
	users map[string]*User
	stats map[string]*EndpointStat
}

func NewMemStore() *MemStore {
	return &MemStore{users: map[string]*User{}, stats: map[string]*EndpointStat{}}
}

func (m *MemStore) CreateUser(u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return ErrDuplicate
	}
	cp := *u
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.users[u.Email] = &cp
	return nil
}

func (m *MemStore) GetUser(email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemStore) ListUsers() ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *MemStore) DeleteUser(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; !ok {
		return ErrNotFound
	}
	delete(m.users, email)
	return nil
}

func (m *MemStore) UpdateRole(email, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *MemStore) IncrementAPICount(email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return 0, ErrNotFound
	}
	u.APICount++
	return u.APICount, nil
}

func (m *MemStore) SetResetToken(email, token string, expiresAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpiry = expiresAt
	return nil
}

func (m *MemStore) ClearResetToken(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrNotFound
	}
	u.ResetToken = ""
	u.ResetTokenExpiry = 0
	return nil
}

func (m *MemStore) ResetPassword(email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = ""
	u.ResetTokenExpiry = 0
	return nil
}

func (m *MemStore) RecordEndpointHit(method, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := method + " " + endpoint
	s, ok := m.stats[key]
	if !ok {
		s = &EndpointStat{Method: method, Endpoint: endpoint}
		m.stats[key] = s
	}
	s.Count++
	s.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) ListEndpointStats() ([]*EndpointStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*EndpointStat, 0, len(m.stats))
	for _, s := range m.stats {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Endpoint != out[j].Endpoint {
			return out[i].Endpoint < out[j].Endpoint
		}
		return out[i].Method < out[j].Method
	})
	return out, nil
}

// lifecycle helpers
func (m *MemStore) close() error { return nil }
func (m *MemStore) ping() bool   { return true }
