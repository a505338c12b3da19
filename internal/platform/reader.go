package platform

import (
	"context"
	"log/slog"
	"time"

	"vitalsync/internal/records"
)

// RecordSource is the read surface of the platform service. *Client
// satisfies it; tests substitute fakes.
type RecordSource interface {
	ReadRecords(ctx context.Context, recordType string, start, end time.Time) ([]records.Raw, error)
}

var _ RecordSource = (*Client)(nil)

// Reader wraps a RecordSource and never fails: any underlying error
// (platform uninitialized, permission revoked, transport failure) is logged
// and degraded to an empty result. The orchestrator treats an empty slice
// as "no data for this metric this cycle", not as an error.
type Reader struct {
	src RecordSource
	log *slog.Logger
}

func NewReader(src RecordSource, log *slog.Logger) *Reader {
	return &Reader{src: src, log: log}
}

// Read returns the raw records of one type in [start, end], or an empty
// slice on any failure.
func (r *Reader) Read(ctx context.Context, recordType string, start, end time.Time) []records.Raw {
	recs, err := r.src.ReadRecords(ctx, recordType, start, end)
	if err != nil {
		r.log.Warn("read failed, treating as no data",
			"record_type", recordType, "error", err)
		return nil
	}
	return recs
}

// EnsureAccess runs the initialize/permission handshake for the given record
// read permissions. It returns false without error when the platform is
// unavailable or grants are incomplete (both non-fatal). A failure of the
// grant request itself is propagated.
func EnsureAccess(ctx context.Context, c *Client, permissions []string, log *slog.Logger) (bool, error) {
	ok, err := c.Initialize(ctx)
	if err != nil || !ok {
		log.Warn("platform unavailable", "error", err)
		return false, nil
	}
	granted, err := c.RequestPermission(ctx, permissions)
	if err != nil {
		return false, err
	}
	if len(granted) < len(permissions) {
		log.Warn("permission grant incomplete",
			"requested", len(permissions), "granted", len(granted))
		return false, nil
	}
	return true, nil
}
