package service

import (
	"context"
	"strings"

	"marketserver/internal/auth"
	"marketserver/internal/domain"
)

type SellersStore interface {
	CreateSeller(ctx context.Context, name, email, passwordHash string) (domain.Seller, error)
	ListSellers(ctx context.Context, f domain.ListFilter) ([]domain.Seller, error)
	GetSellerByID(ctx context.Context, id string) (domain.Seller, error)
	UpdateSeller(ctx context.Context, id, name, email string) error
	SellerPasswordHash(ctx context.Context, id string) (string, error)
	SetSellerPasswordHash(ctx context.Context, id, passwordHash string) error
	DeleteSeller(ctx context.Context, id string) error
}

type SellersService struct {
	Store SellersStore
}

func (s *SellersService) List(ctx context.Context, f domain.ListFilter) ([]domain.Seller, error) {
	return s.Store.ListSellers(ctx, f)
}

func (s *SellersService) Get(ctx context.Context, id string) (domain.Seller, error) {
	return s.Store.GetSellerByID(ctx, id)
}

func (s *SellersService) Create(ctx context.Context, name, email, password string) (domain.Seller, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Seller{}, err
	}
	return s.Store.CreateSeller(ctx, name, email, passwordHash)
}

func (s *SellersService) Update(ctx context.Context, id, name, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	return s.Store.UpdateSeller(ctx, id, name, email)
}

func (s *SellersService) Delete(ctx context.Context, id string) error {
	return s.Store.DeleteSeller(ctx, id)
}

func (s *SellersService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	hash, err := s.Store.SellerPasswordHash(ctx, id)
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
	return s.Store.SetSellerPasswordHash(ctx, id, newHash)
}
