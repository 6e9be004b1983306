package store

import (
	"database/sql"
	"errors"
	"time"
)

// Transcript is the text a session produced, saved when the session closes.
type Transcript struct {
	ID        string
	SessionID string
	Source    string
	Text      string
	Letters   int
	StartedAt time.Time
	EndedAt   time.Time
}

// TranscriptRepository provides access to saved transcripts.
type TranscriptRepository struct {
	db *sql.DB
}

// Transcripts returns the transcript repository for this store.
func (s *Store) Transcripts() *TranscriptRepository {
	return &TranscriptRepository{db: s.db}
}

// Create inserts a transcript. EndedAt defaults to now.
func (r *TranscriptRepository) Create(t *Transcript) error {
	if t.EndedAt.IsZero() {
		t.EndedAt = time.Now()
	}
	if t.StartedAt.IsZero() {
		t.StartedAt = t.EndedAt
	}
	if t.Source == "" {
		t.Source = "websocket"
	}

	_, err := r.db.Exec(
		`INSERT INTO transcripts (id, session_id, source, text, letters, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SessionID, t.Source, t.Text, t.Letters, t.StartedAt.UTC(), t.EndedAt.UTC(),
	)
	return err
}

// GetByID retrieves a transcript by its ID.
func (r *TranscriptRepository) GetByID(id string) (*Transcript, error) {
	t := &Transcript{}
	err := r.db.QueryRow(
		`SELECT id, session_id, source, text, letters, started_at, ended_at
		 FROM transcripts WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.SessionID, &t.Source, &t.Text, &t.Letters, &t.StartedAt, &t.EndedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// List returns the most recent transcripts first. limit <= 0 returns all.
func (r *TranscriptRepository) List(limit int) ([]*Transcript, error) {
	query := `SELECT id, session_id, source, text, letters, started_at, ended_at
		 FROM transcripts ORDER BY ended_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transcripts []*Transcript
	for rows.Next() {
		t := &Transcript{}
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Source, &t.Text, &t.Letters, &t.StartedAt, &t.EndedAt); err != nil {
			return nil, err
		}
		transcripts = append(transcripts, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transcripts, nil
}

// Delete removes a transcript by its ID.
func (r *TranscriptRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
