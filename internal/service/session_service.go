package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/models"
	"github.com/fiwb/twin-gateway/internal/repository"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
	"github.com/fiwb/twin-gateway/pkg/identity"
)

type sessionStore interface {
	Identity(ctx context.Context) (*models.SessionIdentity, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SessionService seeds and clears the local identity store. Authentication
// itself is the auth provider's job; the gateway only records who it acts for.
type SessionService struct {
	repo     sessionStore
	validate *validator.Validate
}

// NewSessionService constructs the session service.
func NewSessionService(repo sessionStore) *SessionService {
	return &SessionService{repo: repo, validate: validator.New()}
}

// Get returns the current identity, or nil when none is stored.
func (s *SessionService) Get(ctx context.Context) (*models.SessionIdentity, error) {
	return s.repo.Identity(ctx)
}

// Put stores the identity, normalizing the email first.
func (s *SessionService) Put(ctx context.Context, req dto.SessionPutRequest) (*models.SessionIdentity, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "A valid email and user id are required.")
	}

	email := identity.NormalizeEmail(req.Email)
	if err := s.repo.Set(ctx, repository.KeyUserEmail, email); err != nil {
		return nil, appErrors.FromError(err)
	}
	if err := s.repo.Set(ctx, repository.KeyUserID, req.UserID); err != nil {
		return nil, appErrors.FromError(err)
	}
	return &models.SessionIdentity{Email: email, UserID: req.UserID}, nil
}

// Clear drops every stored identity key.
func (s *SessionService) Clear(ctx context.Context) error {
	for _, key := range []string{
		repository.KeyUserEmail,
		repository.KeyUserID,
		repository.KeyUserIDAlias,
		repository.KeyIDToken,
	} {
		if err := s.repo.Delete(ctx, key); err != nil {
			return appErrors.FromError(err)
		}
	}
	return nil
}
