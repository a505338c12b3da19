// Package platform talks to the on-device health platform service. The
// service owns the raw health data store and the permission model; this
// package only moves opaque records across that boundary.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vitalsync/internal/records"
)

// Client is the HTTP JSON client for the platform service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client targeting the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type timeRangeFilter struct {
	Operator  string `json:"operator"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type readRecordsRequest struct {
	RecordType      string          `json:"recordType"`
	TimeRangeFilter timeRangeFilter `json:"timeRangeFilter"`
}

type readRecordsResponse struct {
	Records []records.Raw `json:"records"`
}

// Initialize asks the platform service to set up its data store connection.
func (c *Client) Initialize(ctx context.Context) (bool, error) {
	var resp struct {
		Initialized bool `json:"initialized"`
	}
	if err := c.post(ctx, "/initialize", struct{}{}, &resp); err != nil {
		return false, fmt.Errorf("initialize: %w", err)
	}
	return resp.Initialized, nil
}

// RequestPermission asks for read grants on the given record types and
// returns the grants actually obtained.
func (c *Client) RequestPermission(ctx context.Context, permissions []string) ([]string, error) {
	req := struct {
		Permissions []string `json:"permissions"`
	}{Permissions: permissions}
	var resp struct {
		Granted []string `json:"granted"`
	}
	if err := c.post(ctx, "/permissions", req, &resp); err != nil {
		return nil, fmt.Errorf("requesting permissions: %w", err)
	}
	return resp.Granted, nil
}

// ReadRecords fetches raw records of one type inside [start, end].
func (c *Client) ReadRecords(ctx context.Context, recordType string, start, end time.Time) ([]records.Raw, error) {
	if start.After(end) {
		return nil, fmt.Errorf("read %s: start %s after end %s", recordType, start, end)
	}
	req := readRecordsRequest{
		RecordType: recordType,
		TimeRangeFilter: timeRangeFilter{
			Operator:  "between",
			StartTime: start.Format(time.RFC3339),
			EndTime:   end.Format(time.RFC3339),
		},
	}
	var resp readRecordsResponse
	if err := c.post(ctx, "/records", req, &resp); err != nil {
		return nil, fmt.Errorf("read %s: %w", recordType, err)
	}
	return resp.Records, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
