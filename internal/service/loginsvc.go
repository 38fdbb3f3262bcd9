package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketserver/internal/auth"
	"marketserver/internal/domain"
	"marketserver/internal/throttle"
)

// LoginService binds the throttle engine to one account kind's credential
// store and attempt ledger. Three instances cover users, customers and
// sellers; they share no state.
type LoginService struct {
	Kind   domain.AccountKind
	Engine *throttle.Engine
}

// LoginConfig tunes one engine instance. Zero values fall back to the
// engine defaults (5 attempts, 30 minute window, wall clock).
type LoginConfig struct {
	MaxAttempts   int
	LockoutWindow time.Duration
	Now           func() time.Time
}

func newLoginService(kind domain.AccountKind, store throttle.CredentialStore, ledger throttle.Ledger, tokens *auth.TokenIssuer, cfg LoginConfig) *LoginService {
	return &LoginService{
		Kind: kind,
		Engine: &throttle.Engine{
			Store:         store,
			Ledger:        ledger,
			Verify:        auth.VerifyPassword,
			Tokens:        kindTokens{issuer: tokens, kind: kind},
			MaxAttempts:   cfg.MaxAttempts,
			LockoutWindow: cfg.LockoutWindow,
			Now:           cfg.Now,
		},
	}
}

// NewUserLoginService builds the login service for the user account kind.
func NewUserLoginService(users UserLookup, ledger throttle.Ledger, tokens *auth.TokenIssuer, cfg LoginConfig) *LoginService {
	return newLoginService(domain.KindUser, userCredentialStore{users: users}, ledger, tokens, cfg)
}

// NewCustomerLoginService builds the login service for the customer kind.
func NewCustomerLoginService(customers CustomerLookup, ledger throttle.Ledger, tokens *auth.TokenIssuer, cfg LoginConfig) *LoginService {
	return newLoginService(domain.KindCustomer, customerCredentialStore{customers: customers}, ledger, tokens, cfg)
}

// NewSellerLoginService builds the login service for the seller kind.
func NewSellerLoginService(sellers SellerLookup, ledger throttle.Ledger, tokens *auth.TokenIssuer, cfg LoginConfig) *LoginService {
	return newLoginService(domain.KindSeller, sellerCredentialStore{sellers: sellers}, ledger, tokens, cfg)
}

func (s *LoginService) Login(ctx context.Context, email, password string) (throttle.Result, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	return s.Engine.Authenticate(ctx, email, password)
}

// kindTokens stamps the account kind into every issued token.
type kindTokens struct {
	issuer *auth.TokenIssuer
	kind   domain.AccountKind
}

func (t kindTokens) Issue(email, accountID string) (string, error) {
	return t.issuer.Issue(email, accountID, t.kind)
}

type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error)
}

type CustomerLookup interface {
	GetCustomerByEmail(ctx context.Context, email string) (domain.CustomerWithPassword, error)
}

type SellerLookup interface {
	GetSellerByEmail(ctx context.Context, email string) (domain.SellerWithPassword, error)
}

type userCredentialStore struct{ users UserLookup }

func (s userCredentialStore) FindByEmail(ctx context.Context, email string) (throttle.Credentials, bool, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return throttle.Credentials{}, false, nil
		}
		return throttle.Credentials{}, false, err
	}
	return throttle.Credentials{ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash}, true, nil
}

type customerCredentialStore struct{ customers CustomerLookup }

func (s customerCredentialStore) FindByEmail(ctx context.Context, email string) (throttle.Credentials, bool, error) {
	c, err := s.customers.GetCustomerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return throttle.Credentials{}, false, nil
		}
		return throttle.Credentials{}, false, err
	}
	return throttle.Credentials{ID: c.ID, Name: c.Name, Email: c.Email, PasswordHash: c.PasswordHash}, true, nil
}

type sellerCredentialStore struct{ sellers SellerLookup }

func (s sellerCredentialStore) FindByEmail(ctx context.Context, email string) (throttle.Credentials, bool, error) {
	sl, err := s.sellers.GetSellerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return throttle.Credentials{}, false, nil
		}
		return throttle.Credentials{}, false, err
	}
	return throttle.Credentials{ID: sl.ID, Name: sl.Name, Email: sl.Email, PasswordHash: sl.PasswordHash}, true, nil
}
