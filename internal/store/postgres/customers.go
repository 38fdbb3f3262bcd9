package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type CustomersStore struct {
	db Querier
}

func NewCustomersStore(db Querier) *CustomersStore {
	return &CustomersStore{db: db}
}

func (s *CustomersStore) CreateCustomer(ctx context.Context, name, email, passwordHash string) (domain.Customer, error) {
	const q = `
		INSERT INTO customers (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, wallet, created_at, updated_at
	`

	var (
		c      domain.Customer
		idUUID pgtype.UUID
	)
	err := s.db.QueryRow(ctx, q, name, email, passwordHash).Scan(
		&idUUID,
		&c.Name,
		&c.Email,
		&c.Wallet,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Customer{}, domain.ErrEmailTaken
		}
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}

	c.ID = uuidOrEmpty(idUUID)
	return c, nil
}

func (s *CustomersStore) ListCustomers(ctx context.Context, f domain.ListFilter) ([]domain.Customer, error) {
	q := `SELECT id, name, email, wallet, created_at, updated_at FROM customers`
	tail, args := listTail(f)

	rows, err := s.db.Query(ctx, q+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var (
			c      domain.Customer
			idUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &c.Name, &c.Email, &c.Wallet, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c.ID = uuidOrEmpty(idUUID)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

func (s *CustomersStore) GetCustomerByID(ctx context.Context, id string) (domain.Customer, error) {
	const q = `
		SELECT id, name, email, wallet, created_at, updated_at
		FROM customers
		WHERE id = $1
	`

	var (
		c      domain.Customer
		idUUID pgtype.UUID
	)
	err := s.db.QueryRow(ctx, q, id).Scan(&idUUID, &c.Name, &c.Email, &c.Wallet, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Customer{}, domain.ErrNotFound
		}
		return domain.Customer{}, fmt.Errorf("get customer by id: %w", err)
	}

	c.ID = uuidOrEmpty(idUUID)
	return c, nil
}

func (s *CustomersStore) GetCustomerByEmail(ctx context.Context, email string) (domain.CustomerWithPassword, error) {
	const q = `
		SELECT id, name, email, password_hash, wallet, created_at, updated_at
		FROM customers
		WHERE email = $1
	`

	var (
		c      domain.CustomerWithPassword
		idUUID pgtype.UUID
	)
	err := s.db.QueryRow(ctx, q, email).Scan(&idUUID, &c.Name, &c.Email, &c.PasswordHash, &c.Wallet, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CustomerWithPassword{}, domain.ErrNotFound
		}
		return domain.CustomerWithPassword{}, fmt.Errorf("get customer by email: %w", err)
	}

	c.ID = uuidOrEmpty(idUUID)
	return c, nil
}

func (s *CustomersStore) UpdateCustomer(ctx context.Context, id, name, email string) error {
	const q = `
		UPDATE customers
		SET name = $2, email = $3, updated_at = now()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, q, id, name, email)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *CustomersStore) CustomerPasswordHash(ctx context.Context, id string) (string, error) {
	const q = `SELECT password_hash FROM customers WHERE id = $1`

	var hash string
	if err := s.db.QueryRow(ctx, q, id).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get customer password: %w", err)
	}
	return hash, nil
}

func (s *CustomersStore) SetCustomerPasswordHash(ctx context.Context, id, passwordHash string) error {
	const q = `
		UPDATE customers
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, q, id, passwordHash)
	if err != nil {
		return fmt.Errorf("set customer password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *CustomersStore) DeleteCustomer(ctx context.Context, id string) error {
	const q = `DELETE FROM customers WHERE id = $1`

	tag, err := s.db.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TopUpWallet credits the wallet and returns the new balance.
func (s *CustomersStore) TopUpWallet(ctx context.Context, id string, amount int64) (int64, error) {
	const q = `
		UPDATE customers
		SET wallet = wallet + $2, updated_at = now()
		WHERE id = $1
		RETURNING wallet
	`

	var balance int64
	err := s.db.QueryRow(ctx, q, id, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("top up wallet: %w", err)
	}
	return balance, nil
}
