// Package userservice manages business logic layer of users.
package userservice

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	Get(ctx context.Context, id int64) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id int64, arg domain.UpdateUserParams) (domain.User, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) bool
}

// Service facilitates user service layer logic.
type Service struct {
	repo     Repo
	validate *validator.Validate
}

// New return user service struct to manage user bussines logic.
func New(ur Repo) *Service {
	return &Service{
		repo:     ur,
		validate: validator.New(),
	}
}

func (s *Service) validUser(username, email string) error {
	if err := s.validate.Var(username, "required,min=3,max=20"); err != nil {
		return domain.NewInvalidOperation("username must be between 3 and 20 characters")
	}

	if err := s.validate.Var(email, "required,email"); err != nil {
		return domain.NewInvalidOperation("email is not valid")
	}

	return nil
}

// Create creates and returns user.
func (s *Service) Create(ctx context.Context, username, email string, isCorporate bool) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	if err := s.validUser(username, email); err != nil {
		l.Info().Err(err).Send()
		return domain.User{}, err
	}

	arg := domain.CreateUserParams{
		Username:    username,
		Email:       email,
		IsCorporate: isCorporate,
	}

	u, err := s.repo.Create(ctx, arg)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.User{}, err
	}

	l.Debug().Int64("user_id", u.ID).Str("username", u.Username).Msg("user created")

	return u, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.User, error) {
	return s.repo.Get(ctx, id)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

// Update replaces the user data and returns the updated user.
func (s *Service) Update(ctx context.Context, id int64, arg domain.UpdateUserParams) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	if err := s.validUser(arg.Username, arg.Email); err != nil {
		l.Info().Err(err).Send()
		return domain.User{}, err
	}

	u, err := s.repo.Update(ctx, id, arg)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.User{}, err
	}

	return u, nil
}

// Delete removes the user. Accounts owned by the user are left in place.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Send()
		return err
	}

	return nil
}

// Exists reports whether the user with the given id exists.
func (s *Service) Exists(ctx context.Context, id int64) bool {
	return s.repo.Exists(ctx, id)
}
