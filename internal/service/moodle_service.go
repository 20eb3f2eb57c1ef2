package service

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fiwb/twin-gateway/internal/backend"
	"github.com/fiwb/twin-gateway/internal/dto"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
)

type moodleBackend interface {
	ConnectMoodle(ctx context.Context, email, moodleURL, token string) error
}

// MoodleService runs the Moodle connection flow: collect a site URL and an
// API token, validate, connect. No retry; every attempt ends in success or a
// terminal error status.
type MoodleService struct {
	backend  moodleBackend
	sessions sessionSource
	validate *validator.Validate
	logger   *zap.Logger

	mu         sync.Mutex
	submitting bool
	status     dto.FlowStatus
}

// NewMoodleService constructs the moodle flow service.
func NewMoodleService(b moodleBackend, sessions sessionSource, logger *zap.Logger) *MoodleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MoodleService{
		backend:  b,
		sessions: sessions,
		validate: validator.New(),
		logger:   logger,
		status:   dto.FlowStatus{Status: dto.FlowIdle},
	}
}

// Connect validates the credentials and registers them with the backend.
func (s *MoodleService) Connect(ctx context.Context, req dto.MoodleConnectRequest) (dto.FlowStatus, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.FlowStatus{}, appErrors.Clone(appErrors.ErrValidation, "A valid Moodle URL and token are required.")
	}

	identity, err := s.sessions.Identity(ctx)
	if err != nil {
		return dto.FlowStatus{}, appErrors.FromError(err)
	}
	if identity == nil {
		return dto.FlowStatus{}, appErrors.ErrSessionMissing
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return dto.FlowStatus{}, appErrors.ErrRequestInFlight
	}
	s.submitting = true
	s.mu.Unlock()

	err = s.backend.ConnectMoodle(ctx, identity.Email, req.URL, req.Token)

	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()

	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) {
			msg := statusErr.Detail
			if msg == "" {
				msg = "Connection failed."
			}
			return s.setStatus(dto.FlowError, msg), nil
		}
		s.logger.Warn("moodle connect failed", zap.Error(err))
		return s.setStatus(dto.FlowError, "Network error. Is the backend running?"), nil
	}

	return s.setStatus(dto.FlowSuccess, "Successfully connected! Syncing started in background."), nil
}

// Status reports the current flow state.
func (s *MoodleService) Status() dto.FlowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *MoodleService) setStatus(state, message string) dto.FlowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = dto.FlowStatus{Status: state, Message: message}
	return s.status
}
