package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Attempts table - one row per finished verification session
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			outcome TEXT NOT NULL CHECK(outcome IN ('success', 'timed_out', 'abandoned')),
			blink_count INTEGER NOT NULL DEFAULT 0,
			wave_count INTEGER NOT NULL DEFAULT 0,
			photo_path TEXT NOT NULL DEFAULT '',
			photo_error TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_attempts_finished_at ON attempts(finished_at)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_outcome ON attempts(outcome)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
