package store

import (
	"database/sql"
	"time"
)

// Emission is one committed letter.
type Emission struct {
	ID         int64
	SessionID  string
	Letter     rune
	Confidence float64
	EmittedAt  time.Time
}

// LetterCount is the number of times a letter was committed.
type LetterCount struct {
	Letter rune
	Count  int
}

// EmissionRepository records committed letters.
type EmissionRepository struct {
	db *sql.DB
}

// Emissions returns the emission repository for this store.
func (s *Store) Emissions() *EmissionRepository {
	return &EmissionRepository{db: s.db}
}

// Record inserts an emission and fills in its ID.
func (r *EmissionRepository) Record(e *Emission) error {
	if e.EmittedAt.IsZero() {
		e.EmittedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO emissions (session_id, letter, confidence, emitted_at) VALUES (?, ?, ?, ?)`,
		e.SessionID, string(e.Letter), e.Confidence, e.EmittedAt.UTC(),
	)
	if err != nil {
		return err
	}

	e.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns a session's emissions in commit order.
func (r *EmissionRepository) ListBySession(sessionID string) ([]*Emission, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, letter, confidence, emitted_at
		 FROM emissions WHERE session_id = ? ORDER BY emitted_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emissions []*Emission
	for rows.Next() {
		e := &Emission{}
		var letter string
		if err := rows.Scan(&e.ID, &e.SessionID, &letter, &e.Confidence, &e.EmittedAt); err != nil {
			return nil, err
		}
		e.Letter = firstRune(letter)
		emissions = append(emissions, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return emissions, nil
}

// CountByLetter tallies committed letters across all sessions, most frequent first.
func (r *EmissionRepository) CountByLetter() ([]LetterCount, error) {
	rows, err := r.db.Query(
		`SELECT letter, COUNT(*) FROM emissions GROUP BY letter ORDER BY COUNT(*) DESC, letter`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []LetterCount
	for rows.Next() {
		var letter string
		var c LetterCount
		if err := rows.Scan(&letter, &c.Count); err != nil {
			return nil, err
		}
		c.Letter = firstRune(letter)
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// DeleteBySession removes a session's emissions and reports how many were removed.
func (r *EmissionRepository) DeleteBySession(sessionID string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM emissions WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
