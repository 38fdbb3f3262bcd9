package service

import (
	"context"
	"errors"
	"strings"

	"marketserver/internal/domain"
)

type ProductsStore interface {
	CreateProduct(ctx context.Context, sellerEmail, name string, price int64, stock int) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
	UpdateProduct(ctx context.Context, id, sellerEmail, name string, price int64, stock int) error
	DeleteProduct(ctx context.Context, id, sellerEmail string) error
}

type ProductsService struct {
	Store   ProductsStore
	Sellers SellerLookup
}

func (s *ProductsService) List(ctx context.Context) ([]domain.Product, error) {
	return s.Store.ListProducts(ctx)
}

func (s *ProductsService) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.Store.GetProductByID(ctx, id)
}

// Create lists a new product under the seller's email. The seller must
// exist; ownership against the caller's token is enforced in the HTTP layer.
func (s *ProductsService) Create(ctx context.Context, sellerEmail, name string, price int64, stock int) (domain.Product, error) {
	sellerEmail = strings.TrimSpace(strings.ToLower(sellerEmail))

	if err := s.sellerExists(ctx, sellerEmail); err != nil {
		return domain.Product{}, err
	}
	return s.Store.CreateProduct(ctx, sellerEmail, name, price, stock)
}

func (s *ProductsService) Update(ctx context.Context, id, sellerEmail, name string, price int64, stock int) error {
	sellerEmail = strings.TrimSpace(strings.ToLower(sellerEmail))

	if err := s.sellerExists(ctx, sellerEmail); err != nil {
		return err
	}
	return s.Store.UpdateProduct(ctx, id, sellerEmail, name, price, stock)
}

func (s *ProductsService) Delete(ctx context.Context, id, sellerEmail string) error {
	sellerEmail = strings.TrimSpace(strings.ToLower(sellerEmail))

	if err := s.sellerExists(ctx, sellerEmail); err != nil {
		return err
	}
	return s.Store.DeleteProduct(ctx, id, sellerEmail)
}

func (s *ProductsService) sellerExists(ctx context.Context, email string) error {
	_, err := s.Sellers.GetSellerByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	return err
}
