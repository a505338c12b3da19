// Package syncer drives one full sync pass: read each enabled metric from the
// platform, aggregate where the metric calls for it, transform into the
// canonical shapes, and upload the combined batch in a single call.
//
// The pass is strictly sequential. One metric's raw records are consumed
// before the next metric is fetched, which bounds peak memory and makes the
// accumulation order reproducible in tests. There is no mid-pass
// cancellation beyond the context plumbed into I/O calls.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vitalsync/internal/aggregate"
	"vitalsync/internal/metrics"
	"vitalsync/internal/records"
	"vitalsync/internal/transform"
)

// RecordReader reads raw records for one type; it never fails, returning an
// empty slice when the platform has nothing (or is broken).
type RecordReader interface {
	Read(ctx context.Context, recordType string, start, end time.Time) []records.Raw
}

// UploadClient sends the finished batch to the remote service.
type UploadClient interface {
	SyncHealthData(ctx context.Context, batch []any) (json.RawMessage, error)
}

// MetricError is one non-fatal per-metric failure surfaced alongside the
// overall result.
type MetricError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Result is the structured outcome of one sync invocation. Success reflects
// only the upload step; SyncErrors carries per-metric failures and is
// populated even when Success is true.
type Result struct {
	ID          uuid.UUID       `json:"id"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Duration    string          `json:"duration"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	Success     bool            `json:"success"`
	APIResponse json.RawMessage `json:"api_response,omitempty"`
	Error       string          `json:"error,omitempty"`
	Message     string          `json:"message,omitempty"`
	BatchSize   int             `json:"batch_size"`
	SyncErrors  []MetricError   `json:"sync_errors"`
}

// Options tune a Syncer.
type Options struct {
	// DedupeSources selects the origin-deduplicating aggregation path for
	// steps and active calories. The plain summing aggregators remain in use
	// when false; the two paths are intentionally distinct behaviors.
	DedupeSources bool
	// Now substitutes the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

// Syncer orchestrates read → aggregate → transform → upload for the metric
// catalog it was handed. The catalog is explicit rather than ambient so
// tests can pass a reduced one.
type Syncer struct {
	reader      RecordReader
	client      UploadClient
	transformer *transform.Transformer
	catalog     []metrics.Config
	dedupe      bool
	now         func() time.Time
	log         *slog.Logger
}

func New(reader RecordReader, client UploadClient, catalog []metrics.Config, opts Options, log *slog.Logger) *Syncer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Syncer{
		reader:      reader,
		client:      client,
		transformer: transform.New(log),
		catalog:     catalog,
		dedupe:      opts.DedupeSources,
		now:         now,
		log:         log,
	}
}

// Sync runs one pass. Metrics absent from enabled (or mapped to false) are
// skipped. A single metric's failure is recorded and the loop continues;
// only the upload step decides Success. An empty batch short-circuits to a
// successful no-op without a network call.
func (s *Syncer) Sync(ctx context.Context, duration string, enabled map[string]bool) *Result {
	started := s.now()
	res := &Result{
		ID:         uuid.New(),
		StartedAt:  started,
		Duration:   duration,
		SyncErrors: []MetricError{},
	}

	start, end, err := Window(duration, started)
	if err != nil {
		s.log.Warn("unknown sync duration, using default",
			"duration", duration, "default", DefaultDuration)
		res.Duration = DefaultDuration
		start, end, _ = Window(DefaultDuration, started)
	}
	res.WindowStart = start
	res.WindowEnd = end

	s.log.Info("sync started", "sync_id", res.ID, "duration", res.Duration,
		"window_start", start, "window_end", end)
	s.transformer.ResetSampling()

	var batch []any
	for _, cfg := range s.catalog {
		if !enabled[cfg.RecordType] {
			continue
		}
		outputs, err := s.syncMetric(ctx, cfg, start, end)
		if err != nil {
			s.log.Warn("metric sync failed, continuing",
				"sync_id", res.ID, "record_type", cfg.RecordType, "error", err)
			res.SyncErrors = append(res.SyncErrors, MetricError{
				Type:  cfg.RecordType,
				Error: err.Error(),
			})
			continue
		}
		batch = append(batch, outputs...)
	}
	res.BatchSize = len(batch)

	if len(batch) == 0 {
		res.Success = true
		res.Message = "No health data to sync."
		res.FinishedAt = s.now()
		s.log.Info("sync finished", "sync_id", res.ID, "message", res.Message)
		return res
	}

	apiResp, err := s.client.SyncHealthData(ctx, batch)
	if err != nil {
		res.Success = false
		res.Error = err.Error()
		res.Message = "Health data sync failed."
		s.log.Error("upload failed", "sync_id", res.ID, "records", len(batch), "error", err)
	} else {
		res.Success = true
		res.APIResponse = apiResp
		res.Message = fmt.Sprintf("Synced %d records.", len(batch))
		s.log.Info("sync finished", "sync_id", res.ID, "records", len(batch),
			"metric_errors", len(res.SyncErrors))
	}
	res.FinishedAt = s.now()
	return res
}

// syncMetric runs read → [aggregate] → transform for one metric. Only the
// four cumulative/point metrics are pre-aggregated; everything else goes to
// the transformer raw. A panic while processing one metric is contained here
// so the rest of the pass proceeds.
func (s *Syncer) syncMetric(ctx context.Context, cfg metrics.Config, start, end time.Time) (outputs []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing %s: %v", cfg.RecordType, r)
		}
	}()

	recs := s.reader.Read(ctx, cfg.RecordType, start, end)
	if len(recs) == 0 {
		return nil, nil
	}

	var aggs []aggregate.Record
	switch cfg.RecordType {
	case metrics.RecordSteps:
		if s.dedupe {
			aggs = aggregate.StepsDeduplicated(recs, s.log)
		} else {
			aggs = aggregate.Steps(recs, s.log)
		}
	case metrics.RecordHeartRate:
		aggs = aggregate.HeartRate(recs, s.log)
	case metrics.RecordTotalCalories:
		aggs = aggregate.TotalCalories(recs, s.log)
	case metrics.RecordActiveCalories:
		if s.dedupe {
			aggs = aggregate.ActiveCaloriesDeduplicated(recs, s.log)
		} else {
			aggs = aggregate.ActiveCalories(recs, s.log)
		}
	default:
		return s.transformer.Transform(recs, cfg), nil
	}
	return s.transformer.FromAggregated(aggs, cfg), nil
}
