package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// AttemptsStore is the attempt ledger for one account kind. Every kind gets
// its own store instance over the shared login_attempts table, keyed by
// (kind, email).
type AttemptsStore struct {
	db   Querier
	kind domain.AccountKind
}

func NewAttemptsStore(db Querier, kind domain.AccountKind) *AttemptsStore {
	return &AttemptsStore{db: db, kind: kind}
}

func (s *AttemptsStore) AttemptCount(ctx context.Context, email string) (int, error) {
	const q = `
		SELECT attempt_count FROM login_attempts
		WHERE kind = $1 AND email = $2
	`

	var count int
	err := s.db.QueryRow(ctx, q, s.kind, email).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get attempt count: %w", err)
	}
	return count, nil
}

func (s *AttemptsStore) LastAttemptTime(ctx context.Context, email string) (time.Time, error) {
	const q = `
		SELECT last_attempt_at FROM login_attempts
		WHERE kind = $1 AND email = $2
	`

	var at pgtype.Timestamptz
	err := s.db.QueryRow(ctx, q, s.kind, email).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("get last attempt time: %w", err)
	}
	return timestamptzOrZero(at), nil
}

func (s *AttemptsStore) RecordAttempt(ctx context.Context, email string, count int, at time.Time) error {
	const q = `
		INSERT INTO login_attempts (kind, email, attempt_count, last_attempt_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, email)
		DO UPDATE SET attempt_count = $3, last_attempt_at = $4
	`

	if _, err := s.db.Exec(ctx, q, s.kind, email, count, at); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// IncrementAttempt adds one failed attempt in a single statement and returns
// the new count, so concurrent failures for the same email never undercount.
func (s *AttemptsStore) IncrementAttempt(ctx context.Context, email string, at time.Time) (int, error) {
	const q = `
		INSERT INTO login_attempts (kind, email, attempt_count, last_attempt_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (kind, email)
		DO UPDATE SET
			attempt_count = login_attempts.attempt_count + 1,
			last_attempt_at = EXCLUDED.last_attempt_at
		RETURNING attempt_count
	`

	var count int
	if err := s.db.QueryRow(ctx, q, s.kind, email, at).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment attempt: %w", err)
	}
	return count, nil
}
