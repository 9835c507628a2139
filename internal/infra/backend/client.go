package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"movie-quiz-service/internal/domain"
	"movie-quiz-service/internal/metrics"
)

const maxBodyBytes = 1 << 20

// Options configures the collaborator client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

// Client talks to the search/recommend backend over HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewClient(opts Options, logger *zap.Logger, m *metrics.Metrics) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
		metrics:    m,
	}
}

// Recommend posts the answers keyed by step, e.g.
// {"mood":"happy","occasion":"date","genre":["action","comedy"]}.
func (c *Client) Recommend(ctx context.Context, flow domain.Flow, answers domain.AnswerSet) (domain.MovieRecord, error) {
	const op = "recommend"
	body := make(map[string]any, len(flow.Steps))
	for _, step := range flow.Steps {
		answer, ok := answers[step.Index]
		if !ok {
			return domain.MovieRecord{}, fmt.Errorf("%w: step %q", domain.ErrIncompleteAnswers, step.Key)
		}
		body[step.Key] = answer.Value()
	}

	fields, err := c.post(ctx, op, "/api/recommend", body)
	if err != nil {
		return domain.MovieRecord{}, err
	}
	return decodeRecommendation(op, fields)
}

// Search posts {"query": ...} and returns the movies found.
func (c *Client) Search(ctx context.Context, query string) ([]domain.MovieRecord, error) {
	const op = "search"
	fields, err := c.post(ctx, op, "/api/search", map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	return decodeSearch(op, fields)
}

// post sends a JSON request and returns the top-level fields of the JSON response.
// Error payloads and non-2xx statuses become *domain.CollaboratorError.
func (c *Client) post(ctx context.Context, op, path string, payload any) (fields map[string]json.RawMessage, err error) {
	start := time.Now()
	defer func() {
		c.metrics.CollaboratorDuration.WithLabelValues(op, metrics.Outcome(err)).Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindTransport, Err: err}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("collaborator request", zap.String("op", op), zap.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindTransport, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindTransport, Err: err}
	}

	if err := json.Unmarshal(raw, &fields); err != nil {
		if resp.StatusCode/100 != 2 {
			return nil, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindCollaborator, Message: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return nil, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindDecode, Err: err}
	}
	if msg, ok := errorMessage(fields); ok {
		return nil, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindCollaborator, Message: msg}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindCollaborator, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	return fields, nil
}

// errorMessage extracts a non-null "error" (or FastAPI "detail") field.
func errorMessage(fields map[string]json.RawMessage) (string, bool) {
	for _, key := range []string{"error", "detail"} {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil {
			if msg == "" {
				msg = key
			}
			return msg, true
		}
		return string(raw), true
	}
	return "", false
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
