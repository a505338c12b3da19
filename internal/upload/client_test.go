package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// TestSyncHealthDataSendsBatch verifies the endpoint, headers and payload of
// a successful upload.
func TestSyncHealthDataSendsBatch(t *testing.T) {
	var gotKey, gotPath string
	var gotBatch []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBatch); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		w.Write([]byte(`{"inserted": 2}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret-key")
	resp, err := c.SyncHealthData(context.Background(), []any{
		map[string]any{"type": "step", "value": 5000},
		map[string]any{"type": "weight", "value": 82.4},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/v1/health-data/sync" {
		t.Errorf("path = %s, want /api/v1/health-data/sync", gotPath)
	}
	if gotKey != "secret-key" {
		t.Errorf("api key = %q, want secret-key", gotKey)
	}
	if len(gotBatch) != 2 {
		t.Errorf("got %d records, want 2", len(gotBatch))
	}
	if string(resp) != `{"inserted": 2}` {
		t.Errorf("response = %s", resp)
	}
}

// TestSyncHealthDataRetriesServerErrors verifies transient 5xx responses are
// retried and the eventual success is returned.
func TestSyncHealthDataRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	resp, err := c.SyncHealthData(context.Background(), []any{map[string]any{"v": 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if string(resp) != `{"ok": true}` {
		t.Errorf("response = %s", resp)
	}
}

// TestSyncHealthDataGivesUpAfterThreeAttempts verifies a persistent failure
// surfaces the last error once the attempts are exhausted.
func TestSyncHealthDataGivesUpAfterThreeAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	_, err := c.SyncHealthData(context.Background(), []any{map[string]any{"v": 1}})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

// TestSyncHealthDataContextCancelStopsRetry verifies cancellation during
// backoff aborts promptly.
func TestSyncHealthDataContextCancelStopsRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(srv.URL, "k")

	done := make(chan error, 1)
	go func() {
		_, err := c.SyncHealthData(ctx, []any{map[string]any{"v": 1}})
		done <- err
	}()
	cancel()

	if err := <-done; err == nil {
		t.Fatal("expected error after cancellation")
	}
}
