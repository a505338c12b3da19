package transform

import (
	"log/slog"

	"vitalsync/internal/records"
)

// Sampler debug-logs one representative record per record type per pass, so
// unfamiliar payload shapes can be inspected without flooding the log with
// every record in a batch. Reset is called at the start of each sync pass.
type Sampler struct {
	log  *slog.Logger
	seen map[string]bool
}

func NewSampler(log *slog.Logger) *Sampler {
	return &Sampler{log: log, seen: make(map[string]bool)}
}

// Sample logs rec if no record of this type has been sampled since the last
// Reset.
func (s *Sampler) Sample(recordType string, rec records.Raw) {
	if s.seen[recordType] {
		return
	}
	s.seen[recordType] = true
	s.log.Debug("sample record", "record_type", recordType, "record", map[string]any(rec))
}

// Reset clears the per-pass sampling state.
func (s *Sampler) Reset() {
	clear(s.seen)
}
