package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fiwb/twin-gateway/internal/backend"
	"github.com/fiwb/twin-gateway/internal/dto"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
)

type fakeMoodleBackend struct {
	mu        sync.Mutex
	err       error
	lastURL   string
	lastToken string
	lastEmail string
}

func (f *fakeMoodleBackend) ConnectMoodle(ctx context.Context, email, moodleURL, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEmail = email
	f.lastURL = moodleURL
	f.lastToken = token
	return f.err
}

func validMoodleRequest() dto.MoodleConnectRequest {
	return dto.MoodleConnectRequest{URL: "https://moodle.example.edu", Token: "tok-123"}
}

func TestMoodleConnectSuccess(t *testing.T) {
	be := &fakeMoodleBackend{}
	svc := NewMoodleService(be, signedInSessions(), zap.NewNop())

	status, err := svc.Connect(context.Background(), validMoodleRequest())
	require.NoError(t, err)
	assert.Equal(t, dto.FlowSuccess, status.Status)
	assert.Equal(t, "Successfully connected! Syncing started in background.", status.Message)
	assert.Equal(t, "user@example.com", be.lastEmail)
	assert.Equal(t, "https://moodle.example.edu", be.lastURL)
	assert.Equal(t, "tok-123", be.lastToken)
}

func TestMoodleConnectValidation(t *testing.T) {
	svc := NewMoodleService(&fakeMoodleBackend{}, signedInSessions(), zap.NewNop())

	_, err := svc.Connect(context.Background(), dto.MoodleConnectRequest{URL: "not-a-url", Token: "tok"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Connect(context.Background(), dto.MoodleConnectRequest{URL: "https://moodle.example.edu"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestMoodleConnectWithoutIdentity(t *testing.T) {
	svc := NewMoodleService(&fakeMoodleBackend{}, &fakeSessions{}, zap.NewNop())

	_, err := svc.Connect(context.Background(), validMoodleRequest())
	assert.ErrorIs(t, err, appErrors.ErrSessionMissing)
}

func TestMoodleConnectBackendDetail(t *testing.T) {
	be := &fakeMoodleBackend{err: &backend.StatusError{StatusCode: 401, Detail: "invalid token"}}
	svc := NewMoodleService(be, signedInSessions(), zap.NewNop())

	status, err := svc.Connect(context.Background(), validMoodleRequest())
	require.NoError(t, err)
	assert.Equal(t, dto.FlowError, status.Status)
	assert.Equal(t, "invalid token", status.Message)
}

func TestMoodleConnectTransportError(t *testing.T) {
	be := &fakeMoodleBackend{err: errors.New("connection refused")}
	svc := NewMoodleService(be, signedInSessions(), zap.NewNop())

	status, err := svc.Connect(context.Background(), validMoodleRequest())
	require.NoError(t, err)
	assert.Equal(t, "Network error. Is the backend running?", status.Message)
}
