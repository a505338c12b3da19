package platform

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"vitalsync/internal/records"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubSource struct {
	recs []records.Raw
	err  error
}

func (s stubSource) ReadRecords(ctx context.Context, recordType string, start, end time.Time) ([]records.Raw, error) {
	return s.recs, s.err
}

// TestReaderPassesThroughRecords verifies a successful read is returned untouched.
func TestReaderPassesThroughRecords(t *testing.T) {
	want := []records.Raw{{"count": float64(10)}}
	r := NewReader(stubSource{recs: want}, testLog)
	got := r.Read(context.Background(), "Steps", time.Now().Add(-time.Hour), time.Now())
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
}

// TestReaderSwallowsErrors verifies a source error yields an empty slice,
// never a propagated failure.
func TestReaderSwallowsErrors(t *testing.T) {
	r := NewReader(stubSource{err: errors.New("permission revoked")}, testLog)
	got := r.Read(context.Background(), "Steps", time.Now().Add(-time.Hour), time.Now())
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
