package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// AddCartItem adds quantity of a product to the customer's cart, merging
// with an existing line for the same product.
func (s *CustomersStore) AddCartItem(ctx context.Context, customerID, productID string, quantity int) error {
	const q = `
		INSERT INTO cart_items (customer_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`

	if _, err := s.db.Exec(ctx, q, customerID, productID, quantity); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (s *CustomersStore) RemoveCartItem(ctx context.Context, customerID, productID string) error {
	const q = `
		DELETE FROM cart_items
		WHERE customer_id = $1 AND product_id = $2
	`

	tag, err := s.db.Exec(ctx, q, customerID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *CustomersStore) CartItems(ctx context.Context, customerID string) ([]domain.CartItem, error) {
	const q = `
		SELECT ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.customer_id = $1
		ORDER BY p.name
	`

	rows, err := s.db.Query(ctx, q, customerID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var out []domain.CartItem
	for rows.Next() {
		var (
			item   domain.CartItem
			idUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.ProductID = uuidOrEmpty(idUUID)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	return out, nil
}

// PurchaseCart buys everything in the customer's cart in one transaction:
// checks stock, debits the wallet, decrements product stock and empties the
// cart. Nothing is committed when any line fails.
func (s *CustomersStore) PurchaseCart(ctx context.Context, customerID string) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin purchase: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const lockCustomer = `SELECT wallet FROM customers WHERE id = $1 FOR UPDATE`
	var wallet int64
	if err := tx.QueryRow(ctx, lockCustomer, customerID).Scan(&wallet); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("lock customer: %w", err)
	}

	const lockCart = `
		SELECT ci.product_id, ci.quantity, p.price, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.customer_id = $1
		FOR UPDATE OF p
	`
	rows, err := tx.Query(ctx, lockCart, customerID)
	if err != nil {
		return 0, fmt.Errorf("lock cart: %w", err)
	}

	type line struct {
		productID string
		quantity  int
	}
	var (
		lines []line
		total int64
	)
	for rows.Next() {
		var (
			idUUID   pgtype.UUID
			quantity int
			price    int64
			stock    int
		)
		if err := rows.Scan(&idUUID, &quantity, &price, &stock); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan cart line: %w", err)
		}
		if stock < quantity {
			rows.Close()
			return 0, domain.ErrInsufficientStock
		}
		total += price * int64(quantity)
		lines = append(lines, line{productID: uuidOrEmpty(idUUID), quantity: quantity})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("lock cart: %w", err)
	}
	if len(lines) == 0 {
		return 0, domain.ErrCartEmpty
	}
	if wallet < total {
		return 0, domain.ErrInsufficientFunds
	}

	const debit = `
		UPDATE customers
		SET wallet = wallet - $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, debit, customerID, total); err != nil {
		return 0, fmt.Errorf("debit wallet: %w", err)
	}

	const decrement = `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1
	`
	for _, l := range lines {
		if _, err := tx.Exec(ctx, decrement, l.productID, l.quantity); err != nil {
			return 0, fmt.Errorf("decrement stock: %w", err)
		}
	}

	const clear = `DELETE FROM cart_items WHERE customer_id = $1`
	if _, err := tx.Exec(ctx, clear, customerID); err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit purchase: %w", err)
	}
	return total, nil
}
