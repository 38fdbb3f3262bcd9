package postgres

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"marketserver/internal/domain"
)

const (
	custID = "11111111-1111-1111-1111-111111111111"
	prodID = "22222222-2222-2222-2222-222222222222"
)

func TestPurchaseCart_OK(t *testing.T) {
	mock := newMock(t)
	s := NewCustomersStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT wallet FROM customers WHERE id = \$1 FOR UPDATE`).
		WithArgs(custID).
		WillReturnRows(pgxmock.NewRows([]string{"wallet"}).AddRow(int64(5000)))
	mock.ExpectQuery(`(?s)SELECT ci\.product_id, ci\.quantity, p\.price, p\.stock.+FOR UPDATE OF p`).
		WithArgs(custID).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "quantity", "price", "stock"}).
			AddRow(prodID, 2, int64(1500), 10))
	mock.ExpectExec(`(?s)UPDATE customers.+SET wallet = wallet - \$2`).
		WithArgs(custID, int64(3000)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`(?s)UPDATE products.+SET stock = stock - \$2`).
		WithArgs(prodID, 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM cart_items WHERE customer_id = \$1`).
		WithArgs(custID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	total, err := s.PurchaseCart(context.Background(), custID)
	require.NoError(t, err)
	require.Equal(t, int64(3000), total)
}

func TestPurchaseCart_InsufficientFunds(t *testing.T) {
	mock := newMock(t)
	s := NewCustomersStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT wallet FROM customers WHERE id = \$1 FOR UPDATE`).
		WithArgs(custID).
		WillReturnRows(pgxmock.NewRows([]string{"wallet"}).AddRow(int64(100)))
	mock.ExpectQuery(`(?s)SELECT ci\.product_id, ci\.quantity, p\.price, p\.stock.+FOR UPDATE OF p`).
		WithArgs(custID).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "quantity", "price", "stock"}).
			AddRow(prodID, 1, int64(1500), 10))
	mock.ExpectRollback()

	_, err := s.PurchaseCart(context.Background(), custID)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestPurchaseCart_InsufficientStock(t *testing.T) {
	mock := newMock(t)
	s := NewCustomersStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT wallet FROM customers WHERE id = \$1 FOR UPDATE`).
		WithArgs(custID).
		WillReturnRows(pgxmock.NewRows([]string{"wallet"}).AddRow(int64(5000)))
	mock.ExpectQuery(`(?s)SELECT ci\.product_id, ci\.quantity, p\.price, p\.stock.+FOR UPDATE OF p`).
		WithArgs(custID).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "quantity", "price", "stock"}).
			AddRow(prodID, 3, int64(1500), 2))
	mock.ExpectRollback()

	_, err := s.PurchaseCart(context.Background(), custID)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestPurchaseCart_EmptyCart(t *testing.T) {
	mock := newMock(t)
	s := NewCustomersStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT wallet FROM customers WHERE id = \$1 FOR UPDATE`).
		WithArgs(custID).
		WillReturnRows(pgxmock.NewRows([]string{"wallet"}).AddRow(int64(5000)))
	mock.ExpectQuery(`(?s)SELECT ci\.product_id, ci\.quantity, p\.price, p\.stock.+FOR UPDATE OF p`).
		WithArgs(custID).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "quantity", "price", "stock"}))
	mock.ExpectRollback()

	_, err := s.PurchaseCart(context.Background(), custID)
	require.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestAddCartItem_UnknownProduct(t *testing.T) {
	mock := newMock(t)
	s := NewCustomersStore(mock)

	mock.ExpectExec(`(?s)INSERT INTO cart_items.+ON CONFLICT \(customer_id, product_id\)`).
		WithArgs(custID, prodID, 1).
		WillReturnError(fkViolation())

	err := s.AddCartItem(context.Background(), custID, prodID, 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
