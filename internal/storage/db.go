package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"finance-client/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// ErrNoSession is returned when no session is stored for an API.
var ErrNoSession = errors.New("no stored session")

// DB wraps a sql.DB connection holding client-local state.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases alive across calls and
	// serializes writers on file databases.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := migrateUp(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveSession stores s, replacing any session held for the same API.
func (db *DB) SaveSession(ctx context.Context, s models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sessions (api_url, token, user_id, email, first_name, last_name, expires_at, created_at, last_used)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(api_url) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at,
			last_used = excluded.last_used
	`,
		s.APIURL, s.Token, s.User.ID, s.User.Email, s.User.FirstName, s.User.LastName,
		nullTime(s.ExpiresAt), s.CreatedAt, s.CreatedAt,
	)
	return err
}

// LoadSession returns the session stored for apiURL or ErrNoSession.
func (db *DB) LoadSession(ctx context.Context, apiURL string) (*models.Session, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT api_url, token, user_id, email, first_name, last_name, expires_at, created_at, last_used
		FROM sessions
		WHERE api_url = ?
	`, apiURL)

	var (
		s                   models.Session
		expiresAt, lastUsed sql.NullTime
	)
	err := row.Scan(&s.APIURL, &s.Token, &s.User.ID, &s.User.Email, &s.User.FirstName, &s.User.LastName,
		&expiresAt, &s.CreatedAt, &lastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		s.ExpiresAt = expiresAt.Time
	}
	if lastUsed.Valid {
		s.LastUsedAt = lastUsed.Time
	}
	return &s, nil
}

// TouchSession records that the session for apiURL was used at the given time.
func (db *DB) TouchSession(ctx context.Context, apiURL string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, "UPDATE sessions SET last_used = ? WHERE api_url = ?", at, apiURL)
	return err
}

// DeleteSession removes the session stored for apiURL. Deleting a missing
// session is not an error.
func (db *DB) DeleteSession(ctx context.Context, apiURL string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE api_url = ?", apiURL)
	return err
}

// ListSessions returns every stored session, most recently used first.
func (db *DB) ListSessions(ctx context.Context) ([]models.Session, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT api_url, user_id, email, first_name, last_name, expires_at, created_at, last_used
		FROM sessions
		ORDER BY COALESCE(last_used, created_at) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var (
			s                   models.Session
			expiresAt, lastUsed sql.NullTime
		)
		if err := rows.Scan(&s.APIURL, &s.User.ID, &s.User.Email, &s.User.FirstName, &s.User.LastName,
			&expiresAt, &s.CreatedAt, &lastUsed); err != nil {
			return nil, err
		}
		if expiresAt.Valid {
			s.ExpiresAt = expiresAt.Time
		}
		if lastUsed.Valid {
			s.LastUsedAt = lastUsed.Time
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
