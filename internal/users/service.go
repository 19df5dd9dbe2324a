package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-cms/meridian-cms/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, username, fullName, passwordHash string, roleID int64) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	DeleteUser(ctx context.Context, id int64) error
}

// Service handles user administration.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns one page of users plus pagination metadata.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	total, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, total)
	list, err := s.repo.ListUsers(ctx, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, p, nil
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser hashes the initial password and stores the account with its
// single role. The plaintext never crosses this boundary.
func (s *Service) CreateUser(ctx context.Context, username, fullName, password string, roleID int64) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, errors.New("users: username required")
	}
	if len(password) < 8 {
		return User{}, errors.New("users: password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, username, strings.TrimSpace(fullName), string(hash), roleID)
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// DeleteUser removes an account. Live sessions for the user fail at their
// next token resolution, not immediately.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}
