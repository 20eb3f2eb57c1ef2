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
	"github.com/fiwb/twin-gateway/internal/models"
	"github.com/fiwb/twin-gateway/pkg/config"
)

const (
	cacheKeyCourses = "academic:courses:"
	cacheKeyInbox   = "academic:inbox:"
	cachePattern    = "academic:*"

	// offlineMessage is shown only while the course collection is empty.
	offlineMessage = "Academic engine offline."
)

type academicBackend interface {
	Courses(ctx context.Context, email string) ([]models.Course, error)
	InboxMaterials(ctx context.Context, email string) ([]models.MailMaterial, error)
	TriggerFullSync(ctx context.Context, email string) error
}

type sessionSource interface {
	Identity(ctx context.Context) (*models.SessionIdentity, error)
}

// CoordinatorService owns the canonical in-memory copies of the user's
// courses and inbox-derived materials and coordinates refresh timing around
// backend-side syncs. Collection writes are full replacements, so concurrent
// refreshes are safe: the last response observed wins.
type CoordinatorService struct {
	backend  academicBackend
	sessions sessionSource
	cache    *CacheService
	metrics  *MetricsService
	bus      *events.Bus
	logger   *zap.Logger
	cfg      config.CoordinatorConfig

	mu             sync.Mutex
	courses        []models.Course
	gmailMaterials []models.MailMaterial
	loading        bool
	syncing        bool
	errMsg         string

	timerMu sync.Mutex
	timers  []*time.Timer
}

// NewCoordinatorService constructs the coordinator. Cache, metrics and bus
// may be nil.
func NewCoordinatorService(b academicBackend, sessions sessionSource, cache *CacheService, metrics *MetricsService, bus *events.Bus, logger *zap.Logger, cfg config.CoordinatorConfig) *CoordinatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}
	if len(cfg.PostSyncRefreshes) == 0 {
		cfg.PostSyncRefreshes = []time.Duration{3 * time.Second, 8 * time.Second}
	}
	if cfg.SyncingFloor <= 0 {
		cfg.SyncingFloor = 5 * time.Second
	}
	return &CoordinatorService{
		backend:  b,
		sessions: sessions,
		cache:    cache,
		metrics:  metrics,
		bus:      bus,
		logger:   logger,
		cfg:      cfg,
		loading:  true,
	}
}

// Refresh re-fetches both collections. The course read is the critical path:
// its completion, success or failure, ends the loading state. The inbox read
// is best effort and never blocks it. Both reads run to completion before
// Refresh returns.
func (s *CoordinatorService) Refresh(ctx context.Context) error {
	identity, err := s.identity(ctx)
	if err != nil {
		return err
	}
	if identity == nil {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return nil
	}

	s.metrics.RecordRefresh()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.fetchCourses(ctx, identity.Email)
	}()
	go func() {
		defer wg.Done()
		s.fetchInbox(ctx, identity.Email)
	}()

	wg.Wait()
	return nil
}

func (s *CoordinatorService) fetchCourses(ctx context.Context, email string) {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	var cached []models.Course
	if hit, _ := s.cache.Get(ctx, cacheKeyCourses+email, &cached); hit {
		s.mu.Lock()
		s.courses = cached
		s.errMsg = ""
		s.mu.Unlock()
		return
	}

	courses, err := s.backend.Courses(ctx, email)
	if err != nil {
		s.logger.Warn("course fetch failed", zap.Error(err))
		s.mu.Lock()
		if len(s.courses) == 0 {
			s.errMsg = offlineMessage
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.courses = courses
	s.errMsg = ""
	s.mu.Unlock()
	_ = s.cache.Set(ctx, cacheKeyCourses+email, courses, 0)
}

func (s *CoordinatorService) fetchInbox(ctx context.Context, email string) {
	var cached []models.MailMaterial
	if hit, _ := s.cache.Get(ctx, cacheKeyInbox+email, &cached); hit {
		s.mu.Lock()
		s.gmailMaterials = cached
		s.mu.Unlock()
		return
	}

	materials, err := s.backend.InboxMaterials(ctx, email)
	if err != nil {
		s.logger.Warn("inbox materials fetch failed", zap.Error(err))
		return
	}
	if materials == nil {
		return
	}

	s.mu.Lock()
	s.gmailMaterials = materials
	s.mu.Unlock()
	_ = s.cache.Set(ctx, cacheKeyInbox+email, materials, 0)
}

// StartSync triggers a full backend sync and schedules delayed refreshes to
// surface its progress. The syncing flag is a UX floor, not a completion
// signal: it clears after a fixed delay regardless of backend progress.
func (s *CoordinatorService) StartSync(ctx context.Context) error {
	identity, err := s.identity(ctx)
	if err != nil {
		return err
	}
	if identity == nil {
		return nil
	}

	s.mu.Lock()
	s.syncing = true
	s.mu.Unlock()
	s.metrics.RecordSyncTrigger()

	err = s.backend.TriggerFullSync(ctx, identity.Email)
	if err != nil {
		var statusErr *backend.StatusError
		if !errors.As(err, &statusErr) {
			// Transport failure: nothing was triggered, drop the flag now.
			s.mu.Lock()
			s.syncing = false
			s.mu.Unlock()
			return nil
		}
		// A non-2xx reply still means the backend saw the request; the
		// scheduled refreshes run either way.
		s.logger.Warn("sync trigger rejected", zap.Error(err))
	}

	_ = s.cache.Invalidate(ctx, cachePattern)

	for _, delay := range s.cfg.PostSyncRefreshes {
		s.afterFunc(delay, func() {
			_ = s.Refresh(context.Background())
		})
	}
	s.afterFunc(s.cfg.SyncingFloor, func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	})
	return nil
}

// Run drives the refresh cadence: one immediate refresh, then a fixed
// interval, plus event-driven refreshes from the sync flows. Blocks until
// ctx is cancelled.
func (s *CoordinatorService) Run(ctx context.Context) {
	var driveCh, scanCh <-chan events.Event
	if s.bus != nil {
		var cancelDrive, cancelScan func()
		driveCh, cancelDrive = s.bus.Subscribe(events.TopicDriveSyncRefresh)
		scanCh, cancelScan = s.bus.Subscribe(events.TopicGmailScanStarted)
		defer cancelDrive()
		defer cancelScan()
	}

	_ = s.Refresh(ctx)

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopTimers()
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		case <-driveCh:
			_ = s.Refresh(ctx)
		case <-scanCh:
			_ = s.Refresh(ctx)
		}
	}
}

// Snapshot returns a copy of the coordinator state for consumers.
func (s *CoordinatorService) Snapshot() dto.AcademicSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	courses := make([]models.Course, len(s.courses))
	copy(courses, s.courses)
	materials := make([]models.MailMaterial, len(s.gmailMaterials))
	copy(materials, s.gmailMaterials)

	return dto.AcademicSnapshot{
		Courses:        courses,
		GmailMaterials: materials,
		Loading:        s.loading,
		Syncing:        s.syncing,
		Error:          s.errMsg,
	}
}

// identity resolves the session, treating store failures like a missing
// session: the operation aborts silently, per the client's error taxonomy.
func (s *CoordinatorService) identity(ctx context.Context) (*models.SessionIdentity, error) {
	identity, err := s.sessions.Identity(ctx)
	if err != nil {
		s.logger.Warn("session lookup failed", zap.Error(err))
		return nil, nil
	}
	return identity, nil
}

func (s *CoordinatorService) afterFunc(delay time.Duration, fn func()) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	s.timers = append(s.timers, time.AfterFunc(delay, fn))
}

func (s *CoordinatorService) stopTimers() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

var (
	coordinatorMu sync.Mutex
	coordinator   *CoordinatorService
)

// Provide registers the process-wide coordinator. Exactly one instance may
// exist; a second registration is a programming error.
func Provide(c *CoordinatorService) {
	coordinatorMu.Lock()
	defer coordinatorMu.Unlock()
	if coordinator != nil {
		panic("academic coordinator already provided")
	}
	coordinator = c
}

// Use returns the registered coordinator. Calling it before Provide is a
// programming error and fails fast.
func Use() *CoordinatorService {
	coordinatorMu.Lock()
	defer coordinatorMu.Unlock()
	if coordinator == nil {
		panic("academic coordinator used before it was provided")
	}
	return coordinator
}
