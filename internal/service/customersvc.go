package service

import (
	"context"
	"strings"

	"marketserver/internal/auth"
	"marketserver/internal/domain"
)

type CustomersStore interface {
	CreateCustomer(ctx context.Context, name, email, passwordHash string) (domain.Customer, error)
	ListCustomers(ctx context.Context, f domain.ListFilter) ([]domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (domain.Customer, error)
	UpdateCustomer(ctx context.Context, id, name, email string) error
	CustomerPasswordHash(ctx context.Context, id string) (string, error)
	SetCustomerPasswordHash(ctx context.Context, id, passwordHash string) error
	DeleteCustomer(ctx context.Context, id string) error

	AddCartItem(ctx context.Context, customerID, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, customerID, productID string) error
	CartItems(ctx context.Context, customerID string) ([]domain.CartItem, error)
	TopUpWallet(ctx context.Context, id string, amount int64) (int64, error)
	PurchaseCart(ctx context.Context, customerID string) (int64, error)
}

type ProductFinder interface {
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
}

type CustomersService struct {
	Store    CustomersStore
	Products ProductFinder
}

func (s *CustomersService) List(ctx context.Context, f domain.ListFilter) ([]domain.Customer, error) {
	return s.Store.ListCustomers(ctx, f)
}

func (s *CustomersService) Get(ctx context.Context, id string) (domain.Customer, error) {
	return s.Store.GetCustomerByID(ctx, id)
}

func (s *CustomersService) Create(ctx context.Context, name, email, password string) (domain.Customer, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Customer{}, err
	}
	return s.Store.CreateCustomer(ctx, name, email, passwordHash)
}

func (s *CustomersService) Update(ctx context.Context, id, name, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	return s.Store.UpdateCustomer(ctx, id, name, email)
}

func (s *CustomersService) Delete(ctx context.Context, id string) error {
	return s.Store.DeleteCustomer(ctx, id)
}

func (s *CustomersService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	hash, err := s.Store.CustomerPasswordHash(ctx, id)
	if err != nil {
		return err
	}

	ok, err := auth.VerifyPassword(hash, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Store.SetCustomerPasswordHash(ctx, id, newHash)
}

// AddToCart puts quantity of a product into the customer's cart after
// checking the product exists and has the stock to cover the request.
func (s *CustomersService) AddToCart(ctx context.Context, customerID, productID string, quantity int) error {
	p, err := s.Products.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if p.Stock < quantity {
		return domain.ErrInsufficientStock
	}
	return s.Store.AddCartItem(ctx, customerID, productID, quantity)
}

func (s *CustomersService) RemoveFromCart(ctx context.Context, customerID, productID string) error {
	return s.Store.RemoveCartItem(ctx, customerID, productID)
}

func (s *CustomersService) Cart(ctx context.Context, customerID string) ([]domain.CartItem, error) {
	return s.Store.CartItems(ctx, customerID)
}

// TopUp credits the customer's wallet and returns the new balance.
func (s *CustomersService) TopUp(ctx context.Context, customerID string, amount int64) (int64, error) {
	return s.Store.TopUpWallet(ctx, customerID, amount)
}

// Purchase buys the whole cart; the returned total is what was debited.
func (s *CustomersService) Purchase(ctx context.Context, customerID string) (int64, error) {
	return s.Store.PurchaseCart(ctx, customerID)
}
