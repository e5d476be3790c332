// Package loki pushes login job events to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"account-console/internal/telemetry"
)

// jobLabel is the value of the job label on every stream.
const jobLabel = "account-console"

// PushRequest is the Loki push API request body (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is a single stream with labels and log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // each entry is [timestamp_ns, log_line]
}

// labelSanitize replaces characters we avoid in Loki label values.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:]`)

// Emitter implements telemetry.EventEmitter by pushing one line per event.
type Emitter struct {
	baseURL string
	client  *http.Client
}

// NewEmitter returns an Emitter for the Loki at baseURL (e.g. http://localhost:3100).
// A nil client uses a client with a 5s timeout.
func NewEmitter(baseURL string, client *http.Client) (*Emitter, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("loki: base URL is empty")
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Emitter{baseURL: baseURL, client: client}, nil
}

// Emit pushes event as a JSON line. Low-cardinality fields (event type, status, source) become labels;
// account and job ids stay in the line.
func (e *Emitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	labels := map[string]string{
		"event_type": event.EventType,
		"status":     event.Status,
		"source":     event.Source,
	}
	return e.Push(ctx, ts, string(event.JSON()), labels)
}

// Push sends a single log line. Empty label values are dropped.
// Returns an error if the HTTP request fails or Loki returns non-2xx.
func (e *Emitter) Push(ctx context.Context, timestamp time.Time, line string, labels map[string]string) error {
	body := PushRequest{
		Streams: []Stream{{
			Stream: streamLabels(labels),
			Values: [][]string{{strconv.FormatInt(timestamp.UnixNano(), 10), line}},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/loki/api/v1/push", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}

func streamLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	out["job"] = jobLabel
	for k, v := range labels {
		sanitized := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_")
		if sanitized != "" {
			out[k] = sanitized
		}
	}
	return out
}
