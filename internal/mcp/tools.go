package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"vitalsync/internal/syncer"
)

// --- Tool definitions ---

var toolSyncNow = mcp.NewTool("sync_now",
	mcp.WithDescription("Run a health data sync pass now. Reads enabled metrics from the platform, aggregates and transforms them, and uploads the batch to the remote service."),
	mcp.WithString("duration", mcp.Description("Sync window (today, 24h, 3d, 7d, 30d, 90d). Defaults to the stored preference."), mcp.Enum(syncer.Durations...)),
)

var toolGetSyncStatus = mcp.NewTool("get_sync_status",
	mcp.WithDescription("Get the most recent sync result: success, message, batch size, and per-metric errors."),
)

var toolGetSyncLog = mcp.NewTool("get_sync_log",
	mcp.WithDescription("List recent sync results, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum entries to return. Defaults to 20.")),
)

var toolListMetrics = mcp.NewTool("list_metrics",
	mcp.WithDescription("List all syncable metrics with their units and enabled status."),
)

var toolSetMetricEnabled = mcp.NewTool("set_metric_enabled",
	mcp.WithDescription("Enable or disable syncing for one metric record type."),
	mcp.WithString("record_type", mcp.Required(), mcp.Description("Record type name (e.g. Steps, HeartRate, Weight)")),
	mcp.WithBoolean("enabled", mcp.Required(), mcp.Description("Whether to sync this metric")),
)

var toolSetSyncDuration = mcp.NewTool("set_sync_duration",
	mcp.WithDescription("Set the stored sync window preference used when no explicit duration is given."),
	mcp.WithString("duration", mcp.Required(), mcp.Description("Sync window"), mcp.Enum(syncer.Durations...)),
)

// --- Tool handlers ---

func (h *handlers) syncNow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	duration := req.GetString("duration", "")
	if duration != "" && !syncer.ValidDuration(duration) {
		return mcp.NewToolResultError("invalid duration: " + duration +
			" (valid: " + strings.Join(syncer.Durations, ", ") + ")"), nil
	}

	res, err := h.svc.RunSync(ctx, duration)
	if err != nil {
		h.log.Error("mcp sync_now", "error", err)
		return mcp.NewToolResultError("sync failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSyncStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entry, err := h.svc.Store().LatestSync(ctx)
	if err != nil {
		h.log.Error("mcp get_sync_status", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if entry == nil {
		return mcp.NewToolResultText("No syncs have been recorded yet."), nil
	}

	result, err := mcp.NewToolResultJSON(entry)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSyncLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 0)
	if limit < 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	entries, err := h.svc.Store().RecentSyncs(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_sync_log", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(entries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	enabled, err := h.svc.EnabledMetrics(ctx)
	if err != nil {
		h.log.Error("mcp list_metrics", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	type metricStatus struct {
		RecordType string `json:"record_type"`
		Unit       string `json:"unit"`
		Type       string `json:"type"`
		Enabled    bool   `json:"enabled"`
	}
	catalog := h.svc.Catalog()
	out := make([]metricStatus, 0, len(catalog))
	for _, cfg := range catalog {
		out = append(out, metricStatus{
			RecordType: cfg.RecordType,
			Unit:       cfg.Unit,
			Type:       cfg.Type,
			Enabled:    enabled[cfg.RecordType],
		})
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) setMetricEnabled(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recordType, err := req.RequireString("record_type")
	if err != nil {
		return mcp.NewToolResultError("record_type parameter is required"), nil
	}
	if !h.svc.KnownMetric(recordType) {
		return mcp.NewToolResultError("unknown record type: " + recordType), nil
	}
	enabled, err := req.RequireBool("enabled")
	if err != nil {
		return mcp.NewToolResultError("enabled parameter is required"), nil
	}

	if err := h.svc.Store().SetMetricEnabled(ctx, recordType, enabled); err != nil {
		h.log.Error("mcp set_metric_enabled", "error", err)
		return mcp.NewToolResultError("update failed: " + err.Error()), nil
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return mcp.NewToolResultText(recordType + " is now " + state + "."), nil
}

func (h *handlers) setSyncDuration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	duration, err := req.RequireString("duration")
	if err != nil {
		return mcp.NewToolResultError("duration parameter is required"), nil
	}
	if !syncer.ValidDuration(duration) {
		return mcp.NewToolResultError("invalid duration: " + duration +
			" (valid: " + strings.Join(syncer.Durations, ", ") + ")"), nil
	}

	if err := h.svc.Store().SetSyncDuration(ctx, duration); err != nil {
		h.log.Error("mcp set_sync_duration", "error", err)
		return mcp.NewToolResultError("update failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText("Sync duration set to " + duration + "."), nil
}
