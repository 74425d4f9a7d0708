package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// InteractionKind classifies a logged interaction.
type InteractionKind string

const (
	InteractionDragStart    InteractionKind = "drag_start"
	InteractionDragEnd      InteractionKind = "drag_end"
	InteractionCollisionOn  InteractionKind = "collision_on"
	InteractionCollisionOff InteractionKind = "collision_off"
)

// DefaultInteractionLimit caps List when no limit is given.
const DefaultInteractionLimit = 100

// Interaction is one logged controller event.
type Interaction struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Kind      InteractionKind `json:"kind"`
	TargetID  string          `json:"target_id,omitempty"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Z         float64         `json:"z"`
	CreatedAt time.Time       `json:"created_at"`
}

// InteractionRepository stores the interaction log.
type InteractionRepository struct {
	db *sql.DB
}

// Interactions returns the interaction repository for this store.
func (s *Store) Interactions() *InteractionRepository {
	return &InteractionRepository{db: s.db}
}

// Record inserts an interaction, filling in ID and CreatedAt when unset.
func (r *InteractionRepository) Record(i *Interaction) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(
		`INSERT INTO interactions (id, session_id, kind, target_id, x, y, z, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.SessionID, string(i.Kind), i.TargetID, i.X, i.Y, i.Z, i.CreatedAt,
	)
	return err
}

// List returns the most recent interactions, newest first. A non-positive
// limit means DefaultInteractionLimit.
func (r *InteractionRepository) List(limit int) ([]*Interaction, error) {
	if limit <= 0 {
		limit = DefaultInteractionLimit
	}
	rows, err := r.db.Query(
		`SELECT id, session_id, kind, target_id, x, y, z, created_at
		 FROM interactions ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Interaction
	for rows.Next() {
		i := &Interaction{}
		var kind string
		if err := rows.Scan(&i.ID, &i.SessionID, &kind, &i.TargetID, &i.X, &i.Y, &i.Z, &i.CreatedAt); err != nil {
			return nil, err
		}
		i.Kind = InteractionKind(kind)
		out = append(out, i)
	}
	return out, rows.Err()
}

// CountBySession returns how many interactions a session logged.
func (r *InteractionRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM interactions WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
