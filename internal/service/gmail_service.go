package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fiwb/twin-gateway/internal/backend"
	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/events"
	"github.com/fiwb/twin-gateway/pkg/config"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
)

type gmailBackend interface {
	TriggerGmailScan(ctx context.Context, userID string) error
}

// GmailService runs the inbox-scan trigger flow. One attempt at a time; an
// error outcome is terminal for the attempt, a success resets itself to idle
// after a short delay.
type GmailService struct {
	backend  gmailBackend
	sessions sessionSource
	bus      *events.Bus
	logger   *zap.Logger
	cfg      config.GmailConfig

	mu         sync.Mutex
	submitting bool
	status     dto.FlowStatus

	timerMu sync.Mutex
	timers  []*time.Timer
}

// NewGmailService constructs the gmail flow service.
func NewGmailService(b gmailBackend, sessions sessionSource, bus *events.Bus, logger *zap.Logger, cfg config.GmailConfig) *GmailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AutoCloseDelay <= 0 {
		cfg.AutoCloseDelay = 2 * time.Second
	}
	return &GmailService{
		backend:  b,
		sessions: sessions,
		bus:      bus,
		logger:   logger,
		cfg:      cfg,
		status:   dto.FlowStatus{Status: dto.FlowIdle},
	}
}

// Trigger asks the backend to scan the user's inbox. The scan itself runs
// backend-side; a refresh event fires immediately so listeners re-read soon.
func (s *GmailService) Trigger(ctx context.Context) (dto.FlowStatus, error) {
	identity, err := s.sessions.Identity(ctx)
	if err != nil {
		s.logger.Warn("session lookup failed", zap.Error(err))
		identity = nil
	}
	if identity == nil || identity.UserID == "" {
		return s.setStatus(dto.FlowError, "User ID not found. Please re-login."), nil
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return dto.FlowStatus{}, appErrors.ErrRequestInFlight
	}
	s.submitting = true
	s.status = dto.FlowStatus{Status: dto.FlowIdle}
	s.mu.Unlock()

	err = s.backend.TriggerGmailScan(ctx, identity.UserID)

	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()

	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) {
			msg := statusErr.Detail
			if msg == "" {
				msg = "Failed to start sync."
			}
			return s.setStatus(dto.FlowError, msg), nil
		}
		s.logger.Warn("gmail scan trigger failed", zap.Error(err))
		return s.setStatus(dto.FlowError, "Network error. Please try again."), nil
	}

	status := s.setStatus(dto.FlowSuccess, "Sync started in background! Refreshing your inbox...")
	if s.bus != nil {
		s.bus.Publish(events.TopicGmailScanStarted, nil)
	}
	s.afterFunc(s.cfg.AutoCloseDelay, func() {
		s.mu.Lock()
		if s.status.Status == dto.FlowSuccess {
			s.status = dto.FlowStatus{Status: dto.FlowIdle}
		}
		s.mu.Unlock()
	})
	return status, nil
}

// Status reports the current flow state.
func (s *GmailService) Status() dto.FlowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Stop cancels any pending auto-reset.
func (s *GmailService) Stop() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *GmailService) setStatus(state, message string) dto.FlowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = dto.FlowStatus{Status: state, Message: message}
	return s.status
}

func (s *GmailService) afterFunc(delay time.Duration, fn func()) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	s.timers = append(s.timers, time.AfterFunc(delay, fn))
}
