package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/services"
)

const (
	defaultEndpoint       = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryAttempts  = 5
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	snippetLimit          = 160
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client wraps the OpenRouter chat completion API. It implements the vision,
// blueprint, product and prompt collaborators of the pipeline.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithRetryMaxAttempts overrides the number of attempts per request (default 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff overrides the exponential backoff bounds.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.base = baseDelay
		c.retry.max = maxDelay
	}
}

// WithSleeper replaces the retry wait, for tests.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleeper = sleeper }
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		retry: retryPolicy{
			attempts: defaultRetryAttempts,
			base:     defaultRetryBaseDelay,
			max:      defaultRetryMaxDelay,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	const op = "health"
	raw, err := c.complete(ctx, op, "", []chatMessage{
		{Role: "system", Content: jsonOnlySystemPrompt},
		{Role: "user", Content: `Respond with {"ok":true}`},
	})
	if err != nil {
		return err
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(raw, &reply); err != nil {
		return services.Wrap(services.ErrUnparseable, "llm", op, "", err)
	}
	if !reply.OK {
		return services.Wrap(services.ErrUnparseable, "llm", op, "unexpected response", nil)
	}
	return nil
}

// complete sends messages in JSON mode and returns the model's content. model
// overrides the configured model when non-empty.
func (c *Client) complete(ctx context.Context, op, model string, messages []chatMessage) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "llm", op, "api key required (set llm.api_key or OPENROUTER_API_KEY)", nil)
	}
	if model = strings.TrimSpace(model); model == "" {
		model = c.cfg.Model
	}
	req := chatRequest{
		Model:          model,
		Messages:       messages,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	var lastErr error
	attempt := 1
	for ; ; attempt++ {
		content, err := c.send(ctx, op, req)
		if err == nil {
			return content, nil
		}
		lastErr = err
		delay, again := c.retry.next(ctx, err, attempt)
		if !again {
			break
		}
		if err := c.retry.wait(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}
	if attempt > 1 {
		lastErr = fmt.Errorf("%s: gave up after %d attempts: %w", op, attempt, lastErr)
	}
	return "", classify(op, lastErr)
}

func classify(op string, err error) error {
	var statusErr *httpStatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "llm", op, "", err)
	case errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden):
		return services.Wrap(services.ErrConfiguration, "llm", op, "credentials rejected", err)
	case errors.As(err, new(*emptyContentError)):
		return services.Wrap(services.ErrUnparseable, "llm", op, "", err)
	default:
		return services.Wrap(services.ErrExternalTool, "llm", op, "", err)
	}
}

// send performs one HTTP round trip and extracts the first non-empty choice.
func (c *Client) send(ctx context.Context, op string, payload chatRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post (timeout=%s): %w", c.http.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body)), RetryAfter: retryAfter}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: response has no choices", op)
	}
	var finish, refusal string
	for _, choice := range parsed.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
		if finish == "" {
			finish = choice.FinishReason
		}
		if refusal == "" {
			refusal = strings.TrimSpace(choice.Message.Refusal)
		}
	}
	return "", &emptyContentError{Op: op, FinishReason: finish, Refusal: refusal, Snippet: snippet(string(body))}
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatMessage content is either a string or a []contentPart for multimodal
// requests.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// emptyContentError is a 200 response whose choices carry no text, usually a
// refusal or a length cutoff. It is retried.
type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op, e.FinishReason, e.Refusal, e.Snippet)
}

// retryPolicy retries timeouts, 408/429/5xx responses and empty completions
// with capped exponential backoff. Retry-After wins over the backoff when set.
type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
	sleeper  func(time.Duration)
}

func (p retryPolicy) limit() int {
	return max(p.attempts, 1)
}

func (p retryPolicy) next(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= p.limit() || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	if errors.As(err, new(*emptyContentError)) {
		return p.backoff(attempt), true
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		if code != http.StatusRequestTimeout && code != http.StatusTooManyRequests && code < http.StatusInternalServerError {
			return 0, false
		}
		if statusErr.RetryAfter > 0 {
			return p.clamp(statusErr.RetryAfter), true
		}
		return p.backoff(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoff(attempt), true
	}
	return 0, false
}

// backoff doubles from base for each completed attempt: base, 2*base, 4*base.
func (p retryPolicy) backoff(attempt int) time.Duration {
	if p.base <= 0 {
		return 0
	}
	delay := p.base
	for i := 1; i < attempt; i++ {
		if p.max > 0 && delay >= p.max {
			break
		}
		delay *= 2
	}
	return p.clamp(delay)
}

func (p retryPolicy) clamp(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if p.max > 0 && delay > p.max {
		return p.max
	}
	return delay
}

func (p retryPolicy) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if p.sleeper != nil {
		p.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, seconds >= 0
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}

// DecodeLLMJSON decodes the model's JSON reply into target. Models sometimes
// wrap the object in a code fence or prose, so the outermost object or array
// is tried when the raw payload does not parse.
func DecodeLLMJSON(raw string, target any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("empty payload")
	}
	err := json.Unmarshal([]byte(raw), target)
	if err == nil {
		return nil
	}
	inner := extractJSON(raw)
	if inner == "" || inner == raw {
		return fmt.Errorf("%w (payload snippet: %s)", err, snippet(raw))
	}
	if err := json.Unmarshal([]byte(inner), target); err != nil {
		return fmt.Errorf("%w (extracted payload snippet: %s)", err, snippet(inner))
	}
	return nil
}

func extractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(text, "```"); ok {
		rest = strings.TrimLeft(rest, " \t\r\n")
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		if end := strings.LastIndex(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		text = strings.TrimSpace(rest)
	}
	if text == "" || text[0] == '{' || text[0] == '[' {
		return text
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start >= 0 && end > start {
			return strings.TrimSpace(text[start : end+1])
		}
	}
	return text
}

// snippet flattens whitespace and truncates a payload for error messages.
func snippet(s string) string {
	clean := strings.Join(strings.Fields(s), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > snippetLimit {
		return string(runes[:snippetLimit]) + "..."
	}
	return clean
}
