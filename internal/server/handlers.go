package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vitalsync/internal/control"
	"vitalsync/internal/metrics"
	"vitalsync/internal/syncer"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Duration string `json:"duration"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}
	if req.Duration != "" && !syncer.ValidDuration(req.Duration) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid duration: " + req.Duration,
		})
		return
	}

	result, err := s.svc.RunSync(r.Context(), req.Duration)
	if err != nil {
		if errors.Is(err, control.ErrSyncInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		s.log.Error("sync trigger failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLatestSync(w http.ResponseWriter, r *http.Request) {
	entry, err := s.svc.Store().LatestSync(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no syncs recorded"})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleSyncLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	entries, err := s.svc.Store().RecentSyncs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type metricStatus struct {
	RecordType string `json:"record_type"`
	Unit       string `json:"unit"`
	Type       string `json:"type"`
	Enabled    bool   `json:"enabled"`
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.svc.EnabledMetrics(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	catalog := s.svc.Catalog()
	out := make([]metricStatus, 0, len(catalog))
	for _, cfg := range catalog {
		out = append(out, metricStatus{
			RecordType: cfg.RecordType,
			Unit:       cfg.Unit,
			Type:       cfg.Type,
			Enabled:    enabled[cfg.RecordType],
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetMetric(w http.ResponseWriter, r *http.Request) {
	recordType := chi.URLParam(r, "recordType")
	if !s.svc.KnownMetric(recordType) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown record type: " + recordType})
		return
	}

	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled field required"})
		return
	}

	if err := s.svc.Store().SetMetricEnabled(r.Context(), recordType, *req.Enabled); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, metricStatus{
		RecordType: recordType,
		Unit:       unitFor(s.svc.Catalog(), recordType),
		Type:       typeFor(s.svc.Catalog(), recordType),
		Enabled:    *req.Enabled,
	})
}

func (s *Server) handleGetDuration(w http.ResponseWriter, r *http.Request) {
	duration, err := s.svc.Store().SyncDuration(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"duration": duration,
		"valid":    syncer.Durations,
	})
}

func (s *Server) handleSetDuration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Duration string `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if !syncer.ValidDuration(req.Duration) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid duration: " + req.Duration})
		return
	}

	if err := s.svc.Store().SetSyncDuration(r.Context(), req.Duration); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"duration": req.Duration})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func unitFor(catalog []metrics.Config, recordType string) string {
	for _, cfg := range catalog {
		if cfg.RecordType == recordType {
			return cfg.Unit
		}
	}
	return ""
}

func typeFor(catalog []metrics.Config, recordType string) string {
	for _, cfg := range catalog {
		if cfg.RecordType == recordType {
			return cfg.Type
		}
	}
	return ""
}
