package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/config"
)

const (
	userAgent      = "reelsmith/0.1.0"
	defaultNtfyURL = "https://ntfy.sh/"
)

// Job describes the job a notification is about.
type Job struct {
	ID       string
	Kind     string
	Source   string
	VideoURL string
	CostUSD  float64
	Elapsed  time.Duration
}

// Service defines the notification surface used by the workflow manager.
type Service interface {
	NotifyJobCompleted(ctx context.Context, job Job) error
	NotifyJobFailed(ctx context.Context, job Job, err error) error
	NotifyQueueStarted(ctx context.Context, count int) error
	NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	endpoint := Endpoint(cfg.Notifications.NtfyTopic)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
		onComplete: cfg.Notifications.OnComplete,
		onFailure:  cfg.Notifications.OnFailure,
	}
}

// Endpoint resolves a topic setting into a publish URL. Bare topic names are
// published to ntfy.sh.
func Endpoint(topic string) string {
	topic = strings.TrimSpace(topic)
	switch {
	case topic == "":
		return ""
	case strings.HasPrefix(topic, "http://"), strings.HasPrefix(topic, "https://"):
		return topic
	default:
		return defaultNtfyURL + strings.TrimLeft(topic, "/")
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	click    string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	onComplete bool
	onFailure  bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, job Job) error {
	if !n.onComplete {
		return nil
	}
	lines := []string{fmt.Sprintf("✅ %s job %s finished", jobKind(job), shortID(job.ID))}
	if src := strings.TrimSpace(job.Source); src != "" {
		lines = append(lines, "Source: "+src)
	}
	if job.VideoURL != "" {
		lines = append(lines, "Video: "+job.VideoURL)
	}
	if job.CostUSD > 0 {
		lines = append(lines, fmt.Sprintf("Estimated cost: $%.2f", job.CostUSD))
	}
	if job.Elapsed > 0 {
		lines = append(lines, "Took "+job.Elapsed.Round(time.Second).String())
	}
	return n.send(ctx, payload{
		title:   "Reelsmith - Job Complete",
		message: strings.Join(lines, "\n"),
		tags:    []string{"reelsmith", jobKind(job), "completed"},
		click:   job.VideoURL,
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, job Job, err error) error {
	if !n.onFailure {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ ")
	builder.WriteString(jobKind(job))
	builder.WriteString(" job ")
	builder.WriteString(shortID(job.ID))
	builder.WriteString(" failed: ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Reelsmith - Job Failed",
		message:  builder.String(),
		tags:     []string{"reelsmith", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyQueueStarted(ctx context.Context, count int) error {
	return n.send(ctx, payload{
		title:   "Reelsmith - Queue Started",
		message: fmt.Sprintf("Started processing queue with %d jobs", count),
		tags:    []string{"reelsmith", "queue", "started"},
	})
}

func (n *ntfyService) NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	title := "Reelsmith - Queue Complete"
	message := fmt.Sprintf("Queue processing complete: %d jobs processed in %s", processed, duration)
	if failed > 0 {
		title = "Reelsmith - Queue Complete (with errors)"
		message = fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, duration)
	}
	return n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"reelsmith", "queue", "completed"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Reelsmith - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"reelsmith", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}
	if data.click != "" {
		req.Header.Set("Click", data.click)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func jobKind(job Job) string {
	if kind := strings.TrimSpace(job.Kind); kind != "" {
		return kind
	}
	return "pipeline"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, Job) error                       { return nil }
func (noopService) NotifyJobFailed(context.Context, Job, error) error                   { return nil }
func (noopService) NotifyQueueStarted(context.Context, int) error                       { return nil }
func (noopService) NotifyQueueCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
