package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per closed session with the text it produced.
		`CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT 'websocket',
			text TEXT NOT NULL DEFAULT '',
			letters INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME NOT NULL
		)`,

		// Every committed letter, recorded as it happens.
		`CREATE TABLE IF NOT EXISTS emissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			letter TEXT NOT NULL CHECK(length(letter) = 1),
			confidence REAL NOT NULL,
			emitted_at DATETIME NOT NULL
		)`,

		// Application settings as key-value pairs.
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_emissions_session_id ON emissions(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_ended_at ON transcripts(ended_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
