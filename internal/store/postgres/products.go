package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type ProductsStore struct {
	db Querier
}

func NewProductsStore(db Querier) *ProductsStore {
	return &ProductsStore{db: db}
}

func (s *ProductsStore) CreateProduct(ctx context.Context, sellerEmail, name string, price int64, stock int) (domain.Product, error) {
	const q = `
		INSERT INTO products (seller_email, name, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id, seller_email, name, price, stock, created_at, updated_at
	`

	var (
		p      domain.Product
		idUUID pgtype.UUID
	)
	err := s.db.QueryRow(ctx, q, sellerEmail, name, price, stock).Scan(
		&idUUID,
		&p.SellerEmail,
		&p.Name,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}

	p.ID = uuidOrEmpty(idUUID)
	return p, nil
}

func (s *ProductsStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const q = `
		SELECT id, seller_email, name, price, stock, created_at, updated_at
		FROM products
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var (
			p      domain.Product
			idUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &p.SellerEmail, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.ID = uuidOrEmpty(idUUID)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s *ProductsStore) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	const q = `
		SELECT id, seller_email, name, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var (
		p      domain.Product
		idUUID pgtype.UUID
	)
	err := s.db.QueryRow(ctx, q, id).Scan(&idUUID, &p.SellerEmail, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("get product by id: %w", err)
	}

	p.ID = uuidOrEmpty(idUUID)
	return p, nil
}

func (s *ProductsStore) UpdateProduct(ctx context.Context, id, sellerEmail, name string, price int64, stock int) error {
	const q = `
		UPDATE products
		SET name = $3, price = $4, stock = $5, updated_at = now()
		WHERE id = $1 AND seller_email = $2
	`

	tag, err := s.db.Exec(ctx, q, id, sellerEmail, name, price, stock)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *ProductsStore) DeleteProduct(ctx context.Context, id, sellerEmail string) error {
	const q = `DELETE FROM products WHERE id = $1 AND seller_email = $2`

	tag, err := s.db.Exec(ctx, q, id, sellerEmail)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
