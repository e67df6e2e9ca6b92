package main

import (
	"database/sql"
	"strings"
	"time"
)

// SQLite store
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// the modernc driver is not safe for concurrent writes over multiple conns
	d.SetMaxOpenConns(1)
	s := &SQLiteStore{db: d, path: path}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			email TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			student_id TEXT NOT NULL DEFAULT '',
			api_count INTEGER NOT NULL DEFAULT 0,
			reset_token TEXT,
			reset_token_expiry INTEGER,
			created_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS endpoint_stats (
			method TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT,
			PRIMARY KEY (method, endpoint)
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) CreateUser(u *User) error {
	_, err := s.db.Exec(
		`INSERT INTO users(email,password_hash,role,name,student_id,api_count,created_at) VALUES(?,?,?,?,?,?,datetime('now'))`,
		u.Email, u.PasswordHash, u.Role, u.Name, u.StudentID, u.APICount,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) GetUser(email string) (*User, error) {
	row := s.db.QueryRow(
		`SELECT email,password_hash,role,name,student_id,api_count,reset_token,reset_token_expiry,created_at FROM users WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var resetToken sql.NullString
	var resetExpiry sql.NullInt64
	var created sql.NullString
	if err := row.Scan(&u.Email, &u.PasswordHash, &u.Role, &u.Name, &u.StudentID, &u.APICount, &resetToken, &resetExpiry, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if resetToken.Valid {
		u.ResetToken = resetToken.String
	}
	if resetExpiry.Valid {
		u.ResetTokenExpiry = resetExpiry.Int64
	}
	if created.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", created.String); err == nil {
			u.CreatedAt = t
		}
	}
	return &u, nil
}

func (s *SQLiteStore) ListUsers() ([]*User, error) {
	rows, err := s.db.Query(`SELECT email,role,name,student_id,api_count FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Email, &u.Role, &u.Name, &u.StudentID, &u.APICount); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) DeleteUser(email string) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) UpdateRole(email, role string) error {
	res, err := s.db.Exec(`UPDATE users SET role = ? WHERE email = ?`, role, email)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) IncrementAPICount(email string) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		`UPDATE users SET api_count = api_count + 1 WHERE email = ? RETURNING api_count`,
		email,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return count, err
}

func (s *SQLiteStore) SetResetToken(email, token string, expiresAt int64) error {
	res, err := s.db.Exec(`UPDATE users SET reset_token = ?, reset_token_expiry = ? WHERE email = ?`, token, expiresAt, email)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) ClearResetToken(email string) error {
	res, err := s.db.Exec(`UPDATE users SET reset_token = NULL, reset_token_expiry = NULL WHERE email = ?`, email)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) ResetPassword(email, passwordHash string) error {
	res, err := s.db.Exec(
		`UPDATE users SET password_hash = ?, reset_token = NULL, reset_token_expiry = NULL WHERE email = ?`,
		passwordHash, email,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) RecordEndpointHit(method, endpoint string) error {
	_, err := s.db.Exec(
		`INSERT INTO endpoint_stats(method,endpoint,count,updated_at) VALUES(?,?,1,datetime('now'))
		 ON CONFLICT(method,endpoint) DO UPDATE SET count = count + 1, updated_at = datetime('now')`,
		method, endpoint,
	)
	return err
}

func (s *SQLiteStore) ListEndpointStats() ([]*EndpointStat, error) {
	rows, err := s.db.Query(`SELECT method,endpoint,count FROM endpoint_stats ORDER BY endpoint, method`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []*EndpointStat
	for rows.Next() {
		var st EndpointStat
		if err := rows.Scan(&st.Method, &st.Endpoint, &st.Count); err != nil {
			return nil, err
		}
		stats = append(stats, &st)
	}
	return stats, rows.Err()
}

func requireAffected(res sql.Result) error {
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) close() error { return s.db.Close() }
func (s *SQLiteStore) ping() bool   { return s.db.Ping() == nil }
