package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type SellersStore struct {
	db Querier
}

func NewSellersStore(db Querier) *SellersStore {
	return &SellersStore{db: db}
}

func (s *SellersStore) CreateSeller(ctx context.Context, name, email, passwordHash string) (domain.Seller, error) {
	const q = `
		INSERT INTO sellers (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, created_at, updated_at
	`

	var (
		sl     domain.Seller
		idUUID pgtype.UUID
	)
	err := s.db.QueryRow(ctx, q, name, email, passwordHash).Scan(
		&idUUID,
		&sl.Name,
		&sl.Email,
		&sl.CreatedAt,
		&sl.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Seller{}, domain.ErrEmailTaken
		}
		return domain.Seller{}, fmt.Errorf("create seller: %w", err)
	}

	sl.ID = uuidOrEmpty(idUUID)
	return sl, nil
}

func (s *SellersStore) ListSellers(ctx context.Context, f domain.ListFilter) ([]domain.Seller, error) {
	q := `SELECT id, name, email, created_at, updated_at FROM sellers`
	tail, args := listTail(f)

	rows, err := s.db.Query(ctx, q+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}
	defer rows.Close()

	var out []domain.Seller
	for rows.Next() {
		var (
			sl     domain.Seller
			idUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &sl.Name, &sl.Email, &sl.CreatedAt, &sl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan seller: %w", err)
		}
		sl.ID = uuidOrEmpty(idUUID)
		out = append(out, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}
	return out, nil
}

func (s *SellersStore) GetSellerByID(ctx context.Context, id string) (domain.Seller, error) {
	const q = `
		SELECT id, name, email, created_at, updated_at
		FROM sellers
		WHERE id = $1
	`

	var (
		sl     domain.Seller
		idUUID pgtype.UUID
	)
	err := s.db.QueryRow(ctx, q, id).Scan(&idUUID, &sl.Name, &sl.Email, &sl.CreatedAt, &sl.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Seller{}, domain.ErrNotFound
		}
		return domain.Seller{}, fmt.Errorf("get seller by id: %w", err)
	}

	sl.ID = uuidOrEmpty(idUUID)
	return sl, nil
}

func (s *SellersStore) GetSellerByEmail(ctx context.Context, email string) (domain.SellerWithPassword, error) {
	const q = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM sellers
		WHERE email = $1
	`

	var (
		sl     domain.SellerWithPassword
		idUUID pgtype.UUID
	)
	err := s.db.QueryRow(ctx, q, email).Scan(&idUUID, &sl.Name, &sl.Email, &sl.PasswordHash, &sl.CreatedAt, &sl.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SellerWithPassword{}, domain.ErrNotFound
		}
		return domain.SellerWithPassword{}, fmt.Errorf("get seller by email: %w", err)
	}

	sl.ID = uuidOrEmpty(idUUID)
	return sl, nil
}

func (s *SellersStore) UpdateSeller(ctx context.Context, id, name, email string) error {
	const q = `
		UPDATE sellers
		SET name = $2, email = $3, updated_at = now()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, q, id, name, email)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("update seller: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SellersStore) SellerPasswordHash(ctx context.Context, id string) (string, error) {
	const q = `SELECT password_hash FROM sellers WHERE id = $1`

	var hash string
	if err := s.db.QueryRow(ctx, q, id).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get seller password: %w", err)
	}
	return hash, nil
}

func (s *SellersStore) SetSellerPasswordHash(ctx context.Context, id, passwordHash string) error {
	const q = `
		UPDATE sellers
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, q, id, passwordHash)
	if err != nil {
		return fmt.Errorf("set seller password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SellersStore) DeleteSeller(ctx context.Context, id string) error {
	const q = `DELETE FROM sellers WHERE id = $1`

	tag, err := s.db.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete seller: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
