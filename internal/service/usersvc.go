package service

import (
	"context"
	"strings"

	"marketserver/internal/auth"
	"marketserver/internal/domain"
)

type UsersStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (domain.User, error)
	ListUsers(ctx context.Context, f domain.ListFilter) ([]domain.User, error)
	CountUsers(ctx context.Context, f domain.ListFilter) (int, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	UpdateUser(ctx context.Context, id, name, email string) error
	UserPasswordHash(ctx context.Context, id string) (string, error)
	SetUserPasswordHash(ctx context.Context, id, passwordHash string) error
	DeleteUser(ctx context.Context, id string) error
}

type UsersService struct {
	Store UsersStore
}

// List returns one page of users matching the filter. A non-positive page
// size disables paging and returns everything as a single page.
func (s *UsersService) List(ctx context.Context, f domain.ListFilter, pageNumber, pageSize int) (domain.Page[domain.User], error) {
	if pageNumber < 1 {
		pageNumber = 1
	}

	total, err := s.Store.CountUsers(ctx, f)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}

	totalPages := 1
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
		if totalPages < 1 {
			totalPages = 1
		}
		f.Limit = pageSize
		f.Offset = (pageNumber - 1) * pageSize
	}

	users, err := s.Store.ListUsers(ctx, f)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}

	return domain.Page[domain.User]{
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		Count:       len(users),
		TotalPages:  totalPages,
		HasPrevious: pageNumber > 1,
		HasNext:     pageNumber < totalPages,
		Data:        users,
	}, nil
}

func (s *UsersService) Get(ctx context.Context, id string) (domain.User, error) {
	return s.Store.GetUserByID(ctx, id)
}

func (s *UsersService) Create(ctx context.Context, name, email, password string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	return s.Store.CreateUser(ctx, name, email, passwordHash)
}

func (s *UsersService) Update(ctx context.Context, id, name, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	return s.Store.UpdateUser(ctx, id, name, email)
}

func (s *UsersService) Delete(ctx context.Context, id string) error {
	return s.Store.DeleteUser(ctx, id)
}

// ChangePassword verifies the old password before storing the new one.
func (s *UsersService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	hash, err := s.Store.UserPasswordHash(ctx, id)
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
	return s.Store.SetUserPasswordHash(ctx, id, newHash)
}
