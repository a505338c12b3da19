// Package control ties the sync engine to the preference store so the HTTP
// API, the MCP tools, and the interval scheduler all trigger syncs the same
// way: resolve settings, run one pass, journal the outcome.
package control

import (
	"context"
	"fmt"
	"log/slog"
	stdsync "sync"

	"vitalsync/internal/metrics"
	"vitalsync/internal/prefs"
	"vitalsync/internal/syncer"
)

// Service runs sync passes on behalf of the control surfaces. Passes are
// serialized; a trigger that arrives while one is running fails fast rather
// than queueing.
type Service struct {
	engine  *syncer.Syncer
	store   *prefs.Store
	catalog []metrics.Config
	log     *slog.Logger

	mu      stdsync.Mutex
	running bool
}

// ErrSyncInProgress is returned when a trigger overlaps a running pass.
var ErrSyncInProgress = fmt.Errorf("a sync is already in progress")

func NewService(engine *syncer.Syncer, store *prefs.Store, catalog []metrics.Config, log *slog.Logger) *Service {
	return &Service{
		engine:  engine,
		store:   store,
		catalog: catalog,
		log:     log,
	}
}

// RunSync executes one sync pass. An empty duration uses the stored
// preference. The result is journaled before being returned; a journaling
// failure is logged but does not fail the sync.
func (s *Service) RunSync(ctx context.Context, duration string) (*syncer.Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if duration == "" {
		stored, err := s.store.SyncDuration(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading sync duration: %w", err)
		}
		duration = stored
	}

	enabled, err := s.EnabledMetrics(ctx)
	if err != nil {
		return nil, err
	}

	res := s.engine.Sync(ctx, duration, enabled)
	if err := s.store.RecordSync(ctx, res); err != nil {
		s.log.Error("recording sync result", "sync_id", res.ID, "error", err)
	}
	return res, nil
}

// EnabledMetrics resolves the effective enable flag for every catalog
// metric: enabled unless explicitly toggled off in the store.
func (s *Service) EnabledMetrics(ctx context.Context) (map[string]bool, error) {
	stored, err := s.store.EnabledMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading metric settings: %w", err)
	}
	enabled := make(map[string]bool, len(s.catalog))
	for _, cfg := range s.catalog {
		on, ok := stored[cfg.RecordType]
		if !ok {
			on = true
		}
		enabled[cfg.RecordType] = on
	}
	return enabled, nil
}

// Catalog returns the metric catalog the service syncs.
func (s *Service) Catalog() []metrics.Config {
	return s.catalog
}

// Store exposes the preference store for read paths that need no sync
// coordination.
func (s *Service) Store() *prefs.Store {
	return s.store
}

// KnownMetric reports whether recordType appears in the catalog.
func (s *Service) KnownMetric(recordType string) bool {
	for _, cfg := range s.catalog {
		if cfg.RecordType == recordType {
			return true
		}
	}
	return false
}
