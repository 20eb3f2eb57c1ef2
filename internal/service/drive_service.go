package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fiwb/twin-gateway/internal/backend"
	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/events"
	"github.com/fiwb/twin-gateway/internal/models"
	"github.com/fiwb/twin-gateway/pkg/config"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
)

const (
	// TabAdd lists folders available to sync; TabManage the already-synced set.
	TabAdd    = "add"
	TabManage = "manage"
)

type driveBackend interface {
	DriveFolders(ctx context.Context, email string) ([]models.DriveFolder, error)
	SyncedFolders(ctx context.Context, email string) ([]models.DriveFolder, error)
	SyncDriveFolders(ctx context.Context, email string, folderIDs []string) error
	UnsyncDriveFolders(ctx context.Context, email string, folderIDs []string) error
}

// DriveService holds one folder-picker session: the available and synced
// folder sets, the ephemeral selection, and the submit status. The "add" view
// is always the set difference available minus synced, so removing a synced
// folder makes it reappear without a re-fetch.
type DriveService struct {
	backend  driveBackend
	sessions sessionSource
	bus      *events.Bus
	logger   *zap.Logger
	cfg      config.DriveConfig

	mu         sync.Mutex
	opened     bool
	tab        string
	search     string
	available  []models.DriveFolder
	synced     []models.DriveFolder
	selected   map[string]struct{}
	loading    bool
	submitting bool
	status     dto.FlowStatus

	timerMu sync.Mutex
	timers  []*time.Timer
}

// NewDriveService constructs the drive flow service.
func NewDriveService(b driveBackend, sessions sessionSource, bus *events.Bus, logger *zap.Logger, cfg config.DriveConfig) *DriveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.BroadcastDelays) == 0 {
		cfg.BroadcastDelays = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 30 * time.Second}
	}
	return &DriveService{
		backend:  b,
		sessions: sessions,
		bus:      bus,
		logger:   logger,
		cfg:      cfg,
		tab:      TabAdd,
		selected: make(map[string]struct{}),
	}
}

// Open starts a picker session: state resets and both folder sets load
// concurrently. Partial results are kept on failure.
func (s *DriveService) Open(ctx context.Context) (dto.DriveView, error) {
	identity, err := s.requireIdentity(ctx)
	if err != nil {
		return dto.DriveView{}, err
	}

	s.mu.Lock()
	s.opened = true
	s.tab = TabAdd
	s.search = ""
	s.available = nil
	s.synced = nil
	s.selected = make(map[string]struct{})
	s.loading = true
	s.status = dto.FlowStatus{Status: dto.FlowIdle}
	s.mu.Unlock()

	var (
		wg                   sync.WaitGroup
		available, synced    []models.DriveFolder
		availErr, syncedFErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		available, availErr = s.backend.DriveFolders(ctx, identity.Email)
	}()
	go func() {
		defer wg.Done()
		synced, syncedFErr = s.backend.SyncedFolders(ctx, identity.Email)
	}()
	wg.Wait()

	s.mu.Lock()
	s.loading = false
	if availErr != nil || syncedFErr != nil {
		s.logger.Warn("drive folder load failed",
			zap.NamedError("available", availErr), zap.NamedError("synced", syncedFErr))
		s.status = dto.FlowStatus{Status: dto.FlowError, Message: "Failed to load Drive folders."}
	}
	if available != nil {
		s.available = available
	}
	if synced != nil {
		s.synced = synced
	}
	view := s.viewLocked()
	s.mu.Unlock()
	return view, nil
}

// View updates the active tab and search term, then returns the current
// state. An empty tab keeps the current one; the search term always replaces
// the previous one.
func (s *DriveService) View(tab, search string) (dto.DriveView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return dto.DriveView{}, appErrors.Clone(appErrors.ErrNotFound, "No active Drive session. Open one first.")
	}
	if tab == TabAdd || tab == TabManage {
		s.tab = tab
	}
	s.search = search
	return s.viewLocked(), nil
}

// Toggle flips one folder's membership in the selection set. Toggling twice
// restores the original set.
func (s *DriveService) Toggle(folderID string) (dto.DriveView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return dto.DriveView{}, appErrors.Clone(appErrors.ErrNotFound, "No active Drive session. Open one first.")
	}
	if _, ok := s.selected[folderID]; ok {
		delete(s.selected, folderID)
	} else {
		s.selected[folderID] = struct{}{}
	}
	return s.viewLocked(), nil
}

// SubmitSync sends the selection to the backend. On success the selection
// clears, the manage tab activates, and refresh broadcasts fire on the
// configured delayed schedule so listeners pick up freshly synced content.
func (s *DriveService) SubmitSync(ctx context.Context) (dto.DriveView, error) {
	identity, err := s.requireIdentity(ctx)
	if err != nil {
		return dto.DriveView{}, err
	}

	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		return dto.DriveView{}, appErrors.Clone(appErrors.ErrNotFound, "No active Drive session. Open one first.")
	}
	if s.submitting {
		s.mu.Unlock()
		return dto.DriveView{}, appErrors.ErrRequestInFlight
	}
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return dto.DriveView{}, appErrors.Clone(appErrors.ErrValidation, "No folders selected.")
	}
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	s.submitting = true
	s.mu.Unlock()

	err = s.backend.SyncDriveFolders(ctx, identity.Email, ids)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.status = dto.FlowStatus{Status: dto.FlowError, Message: syncFailureMessage(err)}
		view := s.viewLocked()
		s.mu.Unlock()
		return view, nil
	}
	s.selected = make(map[string]struct{})
	s.tab = TabManage
	s.status = dto.FlowStatus{Status: dto.FlowSuccess, Message: "Sync started in background!"}
	view := s.viewLocked()
	s.mu.Unlock()

	for _, delay := range s.cfg.BroadcastDelays {
		s.afterFunc(delay, func() {
			s.publishRefresh()
		})
	}
	return view, nil
}

// Unsync stops syncing the named folders, or all of them. Removal is applied
// locally only after the backend confirms, so a failed request leaves the
// synced set intact.
func (s *DriveService) Unsync(ctx context.Context, req dto.DriveUnsyncRequest) (dto.DriveView, error) {
	identity, err := s.requireIdentity(ctx)
	if err != nil {
		return dto.DriveView{}, err
	}
	if !req.Confirmed {
		return dto.DriveView{}, appErrors.ErrConfirmationRequired
	}

	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		return dto.DriveView{}, appErrors.Clone(appErrors.ErrNotFound, "No active Drive session. Open one first.")
	}
	ids := req.FolderIDs
	if req.All {
		ids = make([]string, 0, len(s.synced))
		for _, f := range s.synced {
			ids = append(ids, f.ID)
		}
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		return dto.DriveView{}, appErrors.Clone(appErrors.ErrValidation, "No folders to remove.")
	}

	if err := s.backend.UnsyncDriveFolders(ctx, identity.Email, ids); err != nil {
		s.mu.Lock()
		s.status = dto.FlowStatus{Status: dto.FlowError, Message: unsyncFailureMessage(err)}
		view := s.viewLocked()
		s.mu.Unlock()
		return view, nil
	}

	removed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		removed[id] = struct{}{}
	}

	s.mu.Lock()
	kept := s.synced[:0]
	for _, f := range s.synced {
		if _, gone := removed[f.ID]; !gone {
			kept = append(kept, f)
		}
	}
	s.synced = kept
	s.status = dto.FlowStatus{Status: dto.FlowSuccess, Message: "Folder sync removed."}
	view := s.viewLocked()
	s.mu.Unlock()

	s.publishRefresh()
	return view, nil
}

// RefreshSynced re-fetches the synced set without touching the rest of the
// session.
func (s *DriveService) RefreshSynced(ctx context.Context) (dto.DriveView, error) {
	identity, err := s.requireIdentity(ctx)
	if err != nil {
		return dto.DriveView{}, err
	}

	synced, err := s.backend.SyncedFolders(ctx, identity.Email)
	if err != nil {
		s.logger.Warn("synced folder refresh failed", zap.Error(err))
		s.mu.Lock()
		view := s.viewLocked()
		s.mu.Unlock()
		return view, nil
	}

	s.mu.Lock()
	s.synced = synced
	view := s.viewLocked()
	s.mu.Unlock()
	return view, nil
}

// Close ends the picker session and drops any pending broadcast timers.
func (s *DriveService) Close() {
	s.mu.Lock()
	s.opened = false
	s.tab = TabAdd
	s.search = ""
	s.selected = make(map[string]struct{})
	s.status = dto.FlowStatus{Status: dto.FlowIdle}
	s.mu.Unlock()
	s.stopTimers()
}

func (s *DriveService) viewLocked() dto.DriveView {
	syncedIDs := make(map[string]struct{}, len(s.synced))
	for _, f := range s.synced {
		syncedIDs[f.ID] = struct{}{}
	}

	needle := strings.ToLower(s.search)
	addable := make([]models.DriveFolder, 0, len(s.available))
	for _, f := range s.available {
		if _, already := syncedIDs[f.ID]; already {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(f.Name), needle) {
			continue
		}
		addable = append(addable, f)
	}

	selected := make([]string, 0, len(s.selected))
	for id := range s.selected {
		selected = append(selected, id)
	}
	sort.Strings(selected)

	synced := make([]models.DriveFolder, len(s.synced))
	copy(synced, s.synced)

	return dto.DriveView{
		Tab:       s.tab,
		Search:    s.search,
		Available: addable,
		Synced:    synced,
		Selected:  selected,
		Loading:   s.loading,
		Status:    s.status,
	}
}

func (s *DriveService) requireIdentity(ctx context.Context) (*models.SessionIdentity, error) {
	identity, err := s.sessions.Identity(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "SESSION_READ_FAILED", http.StatusInternalServerError, "failed to read session")
	}
	if identity == nil {
		return nil, appErrors.ErrSessionMissing
	}
	return identity, nil
}

func (s *DriveService) publishRefresh() {
	if s.bus != nil {
		s.bus.Publish(events.TopicDriveSyncRefresh, nil)
	}
}

func (s *DriveService) afterFunc(delay time.Duration, fn func()) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	s.timers = append(s.timers, time.AfterFunc(delay, fn))
}

func (s *DriveService) stopTimers() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func syncFailureMessage(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) && statusErr.Detail != "" {
		return statusErr.Detail
	}
	if errors.As(err, &statusErr) {
		return "Failed to start sync."
	}
	return "Network error. Please try again."
}

func unsyncFailureMessage(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Detail != "" {
			return statusErr.Detail
		}
		return "Failed to remove folder sync."
	}
	return "Network error. Please try again."
}
