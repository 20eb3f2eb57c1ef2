package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fiwb/twin-gateway/internal/backend"
	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/events"
	"github.com/fiwb/twin-gateway/internal/models"
	"github.com/fiwb/twin-gateway/pkg/config"
)

type fakeGmailBackend struct {
	mu     sync.Mutex
	err    error
	calls  int
	lastID string
}

func (f *fakeGmailBackend) TriggerGmailScan(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastID = userID
	return f.err
}

func newTestGmail(be *fakeGmailBackend, sessions *fakeSessions, bus *events.Bus) *GmailService {
	cfg := config.GmailConfig{AutoCloseDelay: 20 * time.Millisecond}
	return NewGmailService(be, sessions, bus, zap.NewNop(), cfg)
}

func TestGmailTriggerWithoutUserID(t *testing.T) {
	be := &fakeGmailBackend{}
	svc := newTestGmail(be, &fakeSessions{identity: &models.SessionIdentity{Email: "user@example.com"}}, nil)

	status, err := svc.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dto.FlowError, status.Status)
	assert.Equal(t, "User ID not found. Please re-login.", status.Message)
	assert.Zero(t, be.calls)
}

func TestGmailTriggerSuccess(t *testing.T) {
	be := &fakeGmailBackend{}
	bus := events.NewBus()
	scans, cancel := bus.Subscribe(events.TopicGmailScanStarted)
	defer cancel()

	svc := newTestGmail(be, signedInSessions(), bus)

	status, err := svc.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dto.FlowSuccess, status.Status)
	assert.Equal(t, "Sync started in background! Refreshing your inbox...", status.Message)
	assert.Equal(t, "42", be.lastID)

	select {
	case <-scans:
	case <-time.After(time.Second):
		t.Fatal("expected a scan-started event")
	}

	require.Eventually(t, func() bool {
		return svc.Status().Status == dto.FlowIdle
	}, time.Second, 5*time.Millisecond, "success status should auto-reset")
	svc.Stop()
}

func TestGmailTriggerBackendDetail(t *testing.T) {
	be := &fakeGmailBackend{err: &backend.StatusError{StatusCode: 422, Detail: "scan already running"}}
	svc := newTestGmail(be, signedInSessions(), nil)

	status, err := svc.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dto.FlowError, status.Status)
	assert.Equal(t, "scan already running", status.Message)
}

func TestGmailTriggerBackendNoDetail(t *testing.T) {
	be := &fakeGmailBackend{err: &backend.StatusError{StatusCode: 500}}
	svc := newTestGmail(be, signedInSessions(), nil)

	status, err := svc.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Failed to start sync.", status.Message)
}

func TestGmailTriggerTransportError(t *testing.T) {
	be := &fakeGmailBackend{err: errors.New("connection refused")}
	svc := newTestGmail(be, signedInSessions(), nil)

	status, err := svc.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dto.FlowError, status.Status)
	assert.Equal(t, "Network error. Please try again.", status.Message)
}
