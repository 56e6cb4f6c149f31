package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/banshee-data/cropaccuracy/internal/dataset"
	"github.com/banshee-data/cropaccuracy/internal/httputil"
	"github.com/banshee-data/cropaccuracy/internal/monitoring"
)

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// RemoteOptions configures a Remote predictor.
type RemoteOptions struct {
	URL       string
	Features  []string
	BatchSize int
	Timeout   time.Duration
}

// Remote posts feature rows to a model server and reads back labels.
//
// Request:  {"features": ["B2_mean", ...], "instances": [[0.1, ...], ...]}
// Response: {"predictions": [3, 1, ...]}
//
// Predictions may be numbers or strings; both are canonicalised.
type Remote struct {
	client httputil.HTTPClient
	opts   RemoteOptions
}

// NewRemote returns a Remote predictor sending requests through client.
func NewRemote(client httputil.HTTPClient, opts RemoteOptions) (*Remote, error) {
	if client == nil {
		return nil, fmt.Errorf("remote predictor requires an HTTP client")
	}
	if strings.TrimSpace(opts.URL) == "" {
		return nil, fmt.Errorf("remote predictor requires a URL")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	return &Remote{client: client, opts: opts}, nil
}

type predictRequest struct {
	Features  []string    `json:"features,omitempty"`
	Instances [][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
}

// Predict sends features in batches of BatchSize and concatenates the
// returned labels in input order.
func (r *Remote) Predict(ctx context.Context, features [][]float64) ([]string, error) {
	out := make([]string, 0, len(features))
	batches := 0
	for start := 0; start < len(features); start += r.opts.BatchSize {
		end := min(start+r.opts.BatchSize, len(features))
		labels, err := r.predictBatch(ctx, features[start:end])
		if err != nil {
			return nil, fmt.Errorf("rows %d-%d: %w", start, end-1, err)
		}
		out = append(out, labels...)
		batches++
	}
	monitoring.Logf("predicted %d rows in %d batches via %s", len(out), batches, r.opts.URL)
	return out, nil
}

func (r *Remote) predictBatch(ctx context.Context, batch [][]float64) ([]string, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(predictRequest{Features: r.opts.Features, Instances: batch})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, fmt.Errorf("model server returned %d: %s", resp.StatusCode, msg)
	}

	var pr predictResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(pr.Predictions) != len(batch) {
		return nil, fmt.Errorf("%w: sent %d rows, got %d predictions", ErrCountMismatch, len(batch), len(pr.Predictions))
	}

	labels := make([]string, len(pr.Predictions))
	for i, raw := range pr.Predictions {
		label, err := decodeLabel(raw)
		if err != nil {
			return nil, fmt.Errorf("prediction %d: %w", i, err)
		}
		labels[i] = label
	}
	return labels, nil
}

// decodeLabel accepts a JSON number or string.
func decodeLabel(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("empty label")
		}
		return dataset.CanonicalLabel(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("label %s is neither a number nor a string", string(raw))
	}
	return dataset.CanonicalLabel(n.String()), nil
}
