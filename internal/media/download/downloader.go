package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/services"
)

const sourceBaseName = "source"

var directExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".webm": true,
	".mkv":  true,
}

// Downloader retrieves reference videos into a job directory.
type Downloader struct {
	client   *http.Client
	ytdlp    string
	run      ffprobe.Runner
	maxBytes int64
	timeout  time.Duration
	logger   *slog.Logger
}

// Option customizes a Downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the client used for direct downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

// WithRunner overrides yt-dlp execution.
func WithRunner(r ffprobe.Runner) Option {
	return func(d *Downloader) {
		if r != nil {
			d.run = r
		}
	}
}

// WithLogger attaches a logger for progress reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New constructs a Downloader. maxMB caps the file size and timeout bounds a
// single download; zero disables either limit.
func New(ytdlpBinary string, maxMB int, timeout time.Duration, opts ...Option) *Downloader {
	d := &Downloader{
		client:   &http.Client{},
		ytdlp:    strings.TrimSpace(ytdlpBinary),
		run:      ffprobe.Run,
		maxBytes: int64(maxMB) * 1024 * 1024,
		timeout:  timeout,
		logger:   logging.NewNop(),
	}
	if d.ytdlp == "" {
		d.ytdlp = "yt-dlp"
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download saves the video behind rawURL into destDir and returns its path.
func (d *Downloader) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	parsed, err := parseURL(rawURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	logger := logging.WithContext(ctx, d.logger)

	var dest string
	if ext := strings.ToLower(path.Ext(parsed.Path)); directExtensions[ext] {
		dest, err = d.fetch(ctx, logger, parsed.String(), filepath.Join(destDir, sourceBaseName+ext))
	} else {
		dest, err = d.resolve(ctx, parsed.String(), destDir)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "download", "fetch", "download timed out", err)
		}
		return "", err
	}
	info, err := os.Stat(dest)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "verify", "downloaded video not found", err)
	}
	logger.Info("download complete",
		logging.String(logging.FieldEventType, "download_complete"),
		logging.String("path", dest),
		logging.String("size_mb", strconv.FormatFloat(float64(info.Size())/(1024*1024), 'f', 2, 64)),
	)
	return dest, nil
}

func (d *Downloader) fetch(ctx context.Context, logger *slog.Logger, target, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "download", "build request", "", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "fetch", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExternalTool, "download", "fetch", fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}
	if d.maxBytes > 0 && resp.ContentLength > d.maxBytes {
		return "", services.Wrap(services.ErrValidation, "download", "fetch", d.limitMessage(), nil)
	}

	file, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	written, copyErr := io.Copy(file, &progressReader{
		r:       d.limit(resp.Body),
		total:   resp.ContentLength,
		sampler: logging.NewProgressSampler(25),
		logger:  logger,
	})
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(dest)
		return "", services.Wrap(services.ErrExternalTool, "download", "fetch", "", copyErr)
	}
	if d.maxBytes > 0 && written > d.maxBytes {
		_ = os.Remove(dest)
		return "", services.Wrap(services.ErrValidation, "download", "fetch", d.limitMessage(), nil)
	}
	if written == 0 {
		_ = os.Remove(dest)
		return "", services.Wrap(services.ErrExternalTool, "download", "fetch", "empty response body", nil)
	}
	return dest, nil
}

func (d *Downloader) resolve(ctx context.Context, target, destDir string) (string, error) {
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--quiet",
		"--no-warnings",
		"-f", "best[ext=mp4]/best",
		"-o", filepath.Join(destDir, sourceBaseName+".%(ext)s"),
		"--print", "after_move:filepath",
	}
	if d.maxBytes > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(d.maxBytes, 10))
	}
	args = append(args, target)
	output, err := d.run(ctx, d.ytdlp, args...)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "", err)
	}
	dest := lastLine(string(output))
	if dest == "" {
		return "", services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "no file reported (size limit or unsupported URL)", nil)
	}
	return dest, nil
}

func (d *Downloader) limit(r io.Reader) io.Reader {
	if d.maxBytes <= 0 {
		return r
	}
	return io.LimitReader(r, d.maxBytes+1)
}

func (d *Downloader) limitMessage() string {
	return fmt.Sprintf("video exceeds %d MB limit", d.maxBytes/(1024*1024))
}

func parseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, services.Wrap(services.ErrMissingInput, "download", "parse url", "empty url", nil)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "download", "parse url", "", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, services.Wrap(services.ErrValidation, "download", "parse url", "unsupported scheme "+strconv.Quote(parsed.Scheme), nil)
	}
	if parsed.Host == "" {
		return nil, services.Wrap(services.ErrValidation, "download", "parse url", "missing host", nil)
	}
	return parsed, nil
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	percent := -1.0
	if p.total > 0 {
		percent = float64(p.read) / float64(p.total) * 100
	}
	if n > 0 && p.sampler.ShouldLog(percent, "downloading") {
		p.logger.Debug("download progress",
			logging.String(logging.FieldEventType, "download_progress"),
			logging.Int64("bytes", p.read),
			logging.Float64("percent", percent),
		)
	}
	return n, err
}
