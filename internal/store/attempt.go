package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Outcome is how a verification attempt ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeAbandoned Outcome = "abandoned"
)

// Attempt is the audit record of one finished verification session.
type Attempt struct {
	ID         string
	Outcome    Outcome
	BlinkCount int
	WaveCount  int
	PhotoPath  string
	PhotoError string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the attempt ran.
func (a *Attempt) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}

// AttemptRepository records and queries attempts.
type AttemptRepository struct {
	db *sql.DB
}

// Attempts returns the attempt repository for this store.
func (s *Store) Attempts() *AttemptRepository {
	return &AttemptRepository{db: s.db}
}

const attemptColumns = `id, outcome, blink_count, wave_count, photo_path, photo_error, started_at, finished_at`

// Create inserts a finished attempt. FinishedAt defaults to now.
func (r *AttemptRepository) Create(a *Attempt) error {
	if a.FinishedAt.IsZero() {
		a.FinishedAt = time.Now()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = a.FinishedAt
	}

	_, err := r.db.Exec(
		`INSERT INTO attempts (`+attemptColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Outcome), a.BlinkCount, a.WaveCount, a.PhotoPath, a.PhotoError,
		a.StartedAt.UTC(), a.FinishedAt.UTC(),
	)
	return err
}

// GetByID retrieves an attempt by its ID.
func (r *AttemptRepository) GetByID(id string) (*Attempt, error) {
	row := r.db.QueryRow(`SELECT `+attemptColumns+` FROM attempts WHERE id = ?`, id)

	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns the most recently finished attempts first. A limit of zero
// or less returns every attempt.
func (r *AttemptRepository) List(limit int) ([]*Attempt, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT `+attemptColumns+` FROM attempts ORDER BY finished_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return attempts, nil
}

// CountByOutcome returns the number of attempts per outcome.
func (r *AttemptRepository) CountByOutcome() (map[Outcome]int, error) {
	rows, err := r.db.Query(`SELECT outcome, COUNT(*) FROM attempts GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Outcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[Outcome(outcome)] = n
	}

	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row scanner) (*Attempt, error) {
	a := &Attempt{}
	var outcome string

	err := row.Scan(&a.ID, &outcome, &a.BlinkCount, &a.WaveCount, &a.PhotoPath, &a.PhotoError, &a.StartedAt, &a.FinishedAt)
	if err != nil {
		return nil, err
	}

	a.Outcome = Outcome(outcome)
	return a, nil
}
