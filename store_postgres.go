package main

import (
	"database/sql"

	"github.com/lib/pq"
)

type PostgresStore struct {
	db  *sql.DB
	dsn string
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	d, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	p := &PostgresStore{db: d, dsn: dsn}
	if err := p.Init(); err != nil {
		d.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresStore) Init() error {
	// rely on migrations to create tables; just verify connectivity
	return p.db.Ping()
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

func (p *PostgresStore) CreateUser(u *User) error {
	_, err := p.db.Exec(
		`INSERT INTO users(email,password_hash,role,name,student_id,api_count,created_at) VALUES($1,$2,$3,$4,$5,$6,now())`,
		u.Email, u.PasswordHash, u.Role, u.Name, u.StudentID, u.APICount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (p *PostgresStore) GetUser(email string) (*User, error) {
	row := p.db.QueryRow(
		`SELECT email,password_hash,role,name,student_id,api_count,reset_token,reset_token_expiry,created_at FROM users WHERE email = $1`,
		email,
	)
	var u User
	var resetToken sql.NullString
	var resetExpiry sql.NullInt64
	if err := row.Scan(&u.Email, &u.PasswordHash, &u.Role, &u.Name, &u.StudentID, &u.APICount, &resetToken, &resetExpiry, &u.CreatedAt); err != nil {
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
	return &u, nil
}

func (p *PostgresStore) ListUsers() ([]*User, error) {
	rows, err := p.db.Query(`SELECT email,role,name,student_id,api_count FROM users ORDER BY email`)
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

func (p *PostgresStore) DeleteUser(email string) error {
	res, err := p.db.Exec(`DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *PostgresStore) UpdateRole(email, role string) error {
	res, err := p.db.Exec(`UPDATE users SET role = $1 WHERE email = $2`, role, email)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *PostgresStore) IncrementAPICount(email string) (int64, error) {
	var count int64
	err := p.db.QueryRow(
		`UPDATE users SET api_count = api_count + 1 WHERE email = $1 RETURNING api_count`,
		email,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return count, err
}

func (p *PostgresStore) SetResetToken(email, token string, expiresAt int64) error {
	res, err := p.db.Exec(`UPDATE users SET reset_token = $1, reset_token_expiry = $2 WHERE email = $3`, token, expiresAt, email)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *PostgresStore) ClearResetToken(email string) error {
	res, err := p.db.Exec(`UPDATE users SET reset_token = NULL, reset_token_expiry = NULL WHERE email = $1`, email)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *PostgresStore) ResetPassword(email, passwordHash string) error {
	res, err := p.db.Exec(
		`UPDATE users SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL WHERE email = $2`,
		passwordHash, email,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (p *PostgresStore) RecordEndpointHit(method, endpoint string) error {
	_, err := p.db.Exec(
		`INSERT INTO endpoint_stats(method,endpoint,count,updated_at) VALUES($1,$2,1,now())
		 ON CONFLICT(method,endpoint) DO UPDATE SET count = endpoint_stats.count + 1, updated_at = now()`,
		method, endpoint,
	)
	return err
}

func (p *PostgresStore) ListEndpointStats() ([]*EndpointStat, error) {
	rows, err := p.db.Query(`SELECT method,endpoint,count,updated_at FROM endpoint_stats ORDER BY endpoint, method`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []*EndpointStat
	for rows.Next() {
		var st EndpointStat
		if err := rows.Scan(&st.Method, &st.Endpoint, &st.Count, &st.UpdatedAt); err != nil {
			return nil, err
		}
		stats = append(stats, &st)
	}
	return stats, rows.Err()
}

func (p *PostgresStore) close() error { return p.db.Close() }
func (p *PostgresStore) ping() bool   { return p.db.Ping() == nil }
