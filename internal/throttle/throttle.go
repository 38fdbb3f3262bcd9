// Package throttle implements login-attempt throttling and credential
// verification as a state machine shared by every account kind. One engine is
// bound per kind to its own credential store and attempt ledger, so user,
// customer and seller lockout state never mix.
package throttle

import (
	"context"
	"fmt"
	"time"

	"marketserver/internal/auth"
	"marketserver/internal/domain"
)

const (
	DefaultMaxAttempts   = 5
	DefaultLockoutWindow = 30 * time.Minute
)

// Credentials is the account shape the engine needs from a credential store.
type Credentials struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

// CredentialStore looks up one account by email. found is false when no
// account exists; that is not an error.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (creds Credentials, found bool, err error)
}

// Ledger is the persistent per-email attempt counter for one account kind.
type Ledger interface {
	// AttemptCount returns 0 when no record exists.
	AttemptCount(ctx context.Context, email string) (int, error)
	// LastAttemptTime returns the zero time when no record exists.
	LastAttemptTime(ctx context.Context, email string) (time.Time, error)
	// RecordAttempt upserts the record to an explicit count.
	RecordAttempt(ctx context.Context, email string, count int, at time.Time) error
	// IncrementAttempt atomically adds one failed attempt and returns the new
	// count, so concurrent failures are counted exactly.
	IncrementAttempt(ctx context.Context, email string, at time.Time) (int, error)
}

// TokenSource issues a signed credential bound to (email, accountID).
type TokenSource interface {
	Issue(email, accountID string) (string, error)
}

// VerifyFunc compares a plaintext password against a stored hash.
type VerifyFunc func(hash, plaintext string) (bool, error)

// Result is the outcome of one login evaluation. A wrong password or unknown
// email is a normal outcome (OK false, Attempts set), not an error.
type Result struct {
	OK        bool
	Email     string
	Name      string
	AccountID string
	Token     string

	// Attempts is the consecutive failed-attempt count after this evaluation.
	Attempts int
}

// Engine decides accept/deny/lockout for a login attempt.
//
// The policy: the lockout state is checked before any verification, the
// password is verified unconditionally otherwise (against a dummy hash when
// the email is unknown, so timing does not leak account existence), and every
// failure is charged to the ledger.
type Engine struct {
	Store  CredentialStore
	Ledger Ledger
	Verify VerifyFunc
	Tokens TokenSource

	MaxAttempts   int           // failed attempts before lockout; default 5
	LockoutWindow time.Duration // lockout duration after the last failure; default 30m
	DummyHash     string        // stand-in hash for unknown emails
	Now           func() time.Time
}

// Authenticate evaluates one login attempt for email.
//
// It returns a *domain.LockoutError while the lockout window is active, a
// Result otherwise, or a collaborator error. A ledger or store failure is
// never swallowed: skipping a ledger write would defeat the lockout.
func (e *Engine) Authenticate(ctx context.Context, email, password string) (Result, error) {
	now := e.now()

	creds, found, err := e.Store.FindByEmail(ctx, email)
	if err != nil {
		return Result{}, fmt.Errorf("find account: %w", err)
	}

	count, err := e.Ledger.AttemptCount(ctx, email)
	if err != nil {
		return Result{}, fmt.Errorf("read attempt count: %w", err)
	}

	if count >= e.maxAttempts() {
		last, err := e.Ledger.LastAttemptTime(ctx, email)
		if err != nil {
			return Result{}, fmt.Errorf("read last attempt time: %w", err)
		}
		deadline := last.Add(e.lockoutWindow())
		if now.Before(deadline) {
			// Locked out: no verification, no ledger mutation.
			return Result{}, &domain.LockoutError{RetryAfter: deadline.Sub(now)}
		}
		// The window has elapsed. Reset the counter and evaluate this very
		// attempt as a fresh one.
		if err := e.Ledger.RecordAttempt(ctx, email, 0, now); err != nil {
			return Result{}, fmt.Errorf("reset attempt count: %w", err)
		}
	}

	hash := e.dummyHash()
	if found {
		hash = creds.PasswordHash
	}
	matched, err := e.Verify(hash, password)
	if err != nil {
		return Result{}, fmt.Errorf("verify password: %w", err)
	}

	if found && matched {
		if err := e.Ledger.RecordAttempt(ctx, email, 0, now); err != nil {
			return Result{}, fmt.Errorf("reset attempt count: %w", err)
		}
		token, err := e.Tokens.Issue(creds.Email, creds.ID)
		if err != nil {
			return Result{}, fmt.Errorf("issue token: %w", err)
		}
		return Result{
			OK:        true,
			Email:     creds.Email,
			Name:      creds.Name,
			AccountID: creds.ID,
			Token:     token,
		}, nil
	}

	attempts, err := e.Ledger.IncrementAttempt(ctx, email, now)
	if err != nil {
		return Result{}, fmt.Errorf("record failed attempt: %w", err)
	}
	return Result{Attempts: attempts}, nil
}

func (e *Engine) maxAttempts() int {
	if e.MaxAttempts > 0 {
		return e.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (e *Engine) lockoutWindow() time.Duration {
	if e.LockoutWindow > 0 {
		return e.LockoutWindow
	}
	return DefaultLockoutWindow
}

func (e *Engine) dummyHash() string {
	if e.DummyHash != "" {
		return e.DummyHash
	}
	return auth.DummyPasswordHash
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
