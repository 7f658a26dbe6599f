package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"reelsmith/internal/content"
	"reelsmith/internal/logging"
	"reelsmith/internal/media/imageref"
	"reelsmith/internal/services"
)

const (
	defaultQueueURL     = "https://queue.fal.run"
	defaultPollInterval = 5 * time.Second
	defaultTimeout      = 10 * time.Minute
)

// Queue statuses reported by fal.ai.
const (
	StatusInQueue    = "IN_QUEUE"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Config captures fal.ai connection settings.
type Config struct {
	Key          string
	QueueURL     string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client talks to the fal.ai queue API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for queue progress.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a fal.ai client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.Key = strings.TrimSpace(cfg.Key)
	cfg.QueueURL = strings.TrimRight(strings.TrimSpace(cfg.QueueURL), "/")
	if cfg.QueueURL == "" {
		cfg.QueueURL = defaultQueueURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submission is the queue handle returned when a request is accepted.
type Submission struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

// Status is a queue status snapshot.
type Status struct {
	Status        string `json:"status"`
	QueuePosition *int   `json:"queue_position,omitempty"`
	Error         string `json:"error,omitempty"`
}

type videoResult struct {
	Video struct {
		URL string `json:"url"`
	} `json:"video"`
}

// Synthesize renders req.Prompt, starting from req.Image when one is given.
func (c *Client) Synthesize(ctx context.Context, req content.SynthesisRequest) (content.Synthesis, error) {
	if c.cfg.Key == "" {
		return content.Synthesis{}, services.Wrap(services.ErrConfiguration, "fal", "submit", "FAL_KEY not set", nil)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return content.Synthesis{}, services.Wrap(services.ErrMissingInput, "fal", "submit", "prompt required", nil)
	}
	model, err := LookupModel(req.Model)
	if err != nil {
		return content.Synthesis{}, services.Wrap(services.ErrValidation, "fal", "submit", "", err)
	}

	image := ""
	if strings.TrimSpace(req.Image) != "" {
		if image, err = imageref.Resolve(req.Image); err != nil {
			return content.Synthesis{}, services.Wrap(services.ErrMissingInput, "fal", "submit", "unusable starting image", err)
		}
	}
	duration := model.Duration(req.Duration)
	endpoint := model.Endpoint(image != "")
	logger := logging.WithContext(ctx, c.logger).With(logging.String("endpoint", endpoint))
	if duration != req.Duration {
		logger.Info("duration adjusted for model",
			logging.String(logging.FieldEventType, "duration_adjusted"),
			logging.Int("requested", req.Duration),
			logging.Int("duration", duration),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	sub, err := c.Submit(ctx, endpoint, model.input(req.Prompt, image, duration, req.AspectRatio))
	if err != nil {
		return content.Synthesis{}, err
	}
	logger = logger.With(logging.String("request_id", sub.RequestID))
	logger.Info("video render queued", logging.String(logging.FieldEventType, "render_queued"))

	if err := c.wait(ctx, logger, endpoint, sub); err != nil {
		return content.Synthesis{}, err
	}
	var result videoResult
	if err := c.getJSON(ctx, "result", c.responseURL(endpoint, sub), &result); err != nil {
		return content.Synthesis{}, err
	}
	if result.Video.URL == "" {
		return content.Synthesis{}, services.Wrap(services.ErrUnparseable, "fal", "result", "response has no video url", nil)
	}

	return content.Synthesis{
		VideoURL:  result.Video.URL,
		ImageURL:  startingImage(req.Image),
		Endpoint:  endpoint,
		RequestID: sub.RequestID,
		Duration:  duration,
		CostUSD:   model.Cost(duration),
	}, nil
}

// Submit enqueues a request on endpoint.
func (c *Client) Submit(ctx context.Context, endpoint string, input map[string]any) (Submission, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return Submission{}, fmt.Errorf("fal submit: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.QueueURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return Submission{}, fmt.Errorf("fal submit: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	var sub Submission
	if err := c.do(req, "submit", &sub); err != nil {
		return Submission{}, err
	}
	if sub.RequestID == "" {
		return Submission{}, services.Wrap(services.ErrUnparseable, "fal", "submit", "response has no request_id", nil)
	}
	return sub, nil
}

// Poll fetches the current status of a submission.
func (c *Client) Poll(ctx context.Context, endpoint string, sub Submission) (Status, error) {
	var status Status
	err := c.getJSON(ctx, "status", c.statusURL(endpoint, sub), &status)
	return status, err
}

func (c *Client) wait(ctx context.Context, logger *slog.Logger, endpoint string, sub Submission) error {
	sampler := logging.NewProgressSampler(0)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		status, err := c.Poll(ctx, endpoint, sub)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return c.renderTimeout(ctx)
			}
			return err
		}
		if status.Error != "" {
			return services.Wrap(services.ErrExternalTool, "fal", "render", status.Error, nil)
		}
		switch status.Status {
		case StatusCompleted:
			return nil
		case StatusInQueue, StatusInProgress:
		default:
			return services.Wrap(services.ErrUnparseable, "fal", "status", fmt.Sprintf("unexpected status %q", status.Status), nil)
		}
		if sampler.ShouldLog(-1, status.Status) {
			attrs := []logging.Attr{logging.String(logging.FieldEventType, "render_status"), logging.String("status", status.Status)}
			if status.QueuePosition != nil {
				attrs = append(attrs, logging.Int("queue_position", *status.QueuePosition))
			}
			logger.Info("video render status", logging.Args(attrs...)...)
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return c.renderTimeout(ctx)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) renderTimeout(ctx context.Context) error {
	return services.Wrap(services.ErrTimeout, "fal", "render", fmt.Sprintf("not finished after %s", c.cfg.Timeout), ctx.Err())
}

func (c *Client) getJSON(ctx context.Context, op, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("fal %s: new request: %w", op, err)
	}
	return c.do(req, op, target)
}

func (c *Client) do(req *http.Request, op string, target any) error {
	req.Header.Set("Authorization", "Key "+c.cfg.Key)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "fal", op, "", err)
		}
		return services.Wrap(services.ErrExternalTool, "fal", op, "", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "fal", op, "read body", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "fal", op, fmt.Sprintf("credentials rejected (HTTP %d)", resp.StatusCode), nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return services.Wrap(services.ErrExternalTool, "fal", op, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, errorDetail(body)), nil)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return services.Wrap(services.ErrUnparseable, "fal", op, "decode response", err)
	}
	return nil
}

func (c *Client) statusURL(endpoint string, sub Submission) string {
	if sub.StatusURL != "" {
		return sub.StatusURL
	}
	return c.requestURL(endpoint, sub.RequestID) + "/status"
}

func (c *Client) responseURL(endpoint string, sub Submission) string {
	if sub.ResponseURL != "" {
		return sub.ResponseURL
	}
	return c.requestURL(endpoint, sub.RequestID)
}

// requestURL addresses a request under its app id, the first two segments of
// the endpoint path.
func (c *Client) requestURL(endpoint, requestID string) string {
	parts := strings.SplitN(endpoint, "/", 3)
	app := endpoint
	if len(parts) >= 2 {
		app = parts[0] + "/" + parts[1]
	}
	return c.cfg.QueueURL + "/" + app + "/requests/" + requestID
}

// startingImage reports the image a render started from: the URL or file path
// as given. Inline data is not echoed back.
func startingImage(ref string) string {
	ref = strings.TrimSpace(ref)
	if imageref.IsRemote(ref) {
		return ref
	}
	if info, err := os.Stat(ref); ref != "" && err == nil && !info.IsDir() {
		return ref
	}
	return ""
}

func errorDetail(body []byte) string {
	var payload struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Error != "":
			return payload.Error
		case payload.Detail != nil:
			if s, ok := payload.Detail.(string); ok {
				return s
			}
			encoded, _ := json.Marshal(payload.Detail)
			return string(encoded)
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
