package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the interactive scene.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
	Targets   int
}

// SessionRepository records sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start creates a new open session.
func (r *SessionRepository) Start(targets int) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Targets:   targets,
	}
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at, targets) VALUES (?, ?, ?)`,
		sess.ID, sess.StartedAt, sess.Targets,
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// End marks a session as finished.
func (r *SessionRepository) End(id string) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime
	err := r.db.QueryRow(
		`SELECT id, started_at, ended_at, targets FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.StartedAt, &ended, &sess.Targets)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}
