package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/services"
)

const (
	audioFileName   = "audio.wav"
	audioSampleRate = "16000"
	frameEdgeOffset = 0.5
)

// Extractor wraps the ffmpeg and ffprobe binaries.
type Extractor struct {
	ffmpeg  string
	ffprobe string
	run     ffprobe.Runner
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithRunner overrides command execution. The same runner serves ffprobe and
// ffmpeg invocations.
func WithRunner(r ffprobe.Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.run = r
		}
	}
}

// New constructs an Extractor. Empty binary names default to the PATH lookups.
func New(ffmpegBinary, ffprobeBinary string, opts ...Option) *Extractor {
	e := &Extractor{
		ffmpeg:  strings.TrimSpace(ffmpegBinary),
		ffprobe: strings.TrimSpace(ffprobeBinary),
		run:     ffprobe.Run,
	}
	if e.ffmpeg == "" {
		e.ffmpeg = "ffmpeg"
	}
	if e.ffprobe == "" {
		e.ffprobe = "ffprobe"
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractAudio writes the first audio stream as 16 kHz mono PCM WAV into destDir.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath, destDir string) (string, error) {
	if strings.TrimSpace(videoPath) == "" {
		return "", services.Wrap(services.ErrMissingInput, "ffmpeg", "extract audio", "empty video path", nil)
	}
	probe, err := ffprobe.InspectWith(ctx, e.run, e.ffprobe, videoPath)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ffmpeg", "probe", "", err)
	}
	if probe.AudioStreamCount() == 0 {
		return "", services.Wrap(services.ErrMissingInput, "ffmpeg", "extract audio", "video has no audio stream", nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	dest := filepath.Join(destDir, audioFileName)
	if _, err := e.run(ctx, e.ffmpeg, audioArgs(videoPath, dest)...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ffmpeg", "extract audio", "", err)
	}
	if err := requireFile(dest); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ffmpeg", "extract audio", "no output written", err)
	}
	return dest, nil
}

// ExtractFrames writes n JPEG frames into destDir. The first frame sits just
// after the start, the last just before the end, and the rest are spread
// between 10% and 90% of the duration.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath, destDir string, n int) ([]string, error) {
	if strings.TrimSpace(videoPath) == "" {
		return nil, services.Wrap(services.ErrMissingInput, "ffmpeg", "extract frames", "empty video path", nil)
	}
	if n <= 0 {
		return nil, services.Wrap(services.ErrValidation, "ffmpeg", "extract frames", "frame count must be positive", nil)
	}
	probe, err := ffprobe.InspectWith(ctx, e.run, e.ffprobe, videoPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", "probe", "", err)
	}
	if probe.VideoStreamCount() == 0 {
		return nil, services.Wrap(services.ErrMissingInput, "ffmpeg", "extract frames", "file has no video stream", nil)
	}
	duration := probe.DurationSeconds()
	if duration <= 0 {
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", "extract frames", "could not determine video duration", nil)
	}
	framesDir := filepath.Join(destDir, "frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}

	frames := make([]string, 0, n)
	var lastErr error
	for i, ts := range Timestamps(duration, n) {
		dest := filepath.Join(framesDir, fmt.Sprintf("frame_%03d.jpg", i+1))
		if _, err := e.run(ctx, e.ffmpeg, frameArgs(videoPath, ts, dest)...); err != nil {
			if ctx.Err() != nil {
				return nil, services.Wrap(services.ErrTimeout, "ffmpeg", "extract frames", "", ctx.Err())
			}
			lastErr = err
			continue
		}
		if requireFile(dest) == nil {
			frames = append(frames, dest)
		}
	}
	if len(frames) == 0 {
		if lastErr == nil {
			lastErr = errors.New("no frames written")
		}
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", "extract frames", "", lastErr)
	}
	return frames, nil
}

// Timestamps returns n sample points for a clip of the given duration.
func Timestamps(duration float64, n int) []float64 {
	if n <= 0 || duration <= 0 {
		return nil
	}
	first := min(frameEdgeOffset, duration/2)
	last := max(first, duration-frameEdgeOffset)
	switch n {
	case 1:
		return []float64{duration / 2}
	case 2:
		return []float64{first, last}
	}
	out := make([]float64, 0, n)
	out = append(out, first)
	middle := n - 2
	for i := range middle {
		out = append(out, duration*(0.1+0.8*float64(i+1)/float64(middle+1)))
	}
	return append(out, last)
}

func audioArgs(src, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-map", "0:a:0",
		"-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", audioSampleRate,
		"-c:a", "pcm_s16le",
		dest,
	}
}

func frameArgs(src string, at float64, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(at, 'f', 3, 64),
		"-i", src,
		"-frames:v", "1",
		"-q:v", "2",
		dest,
	}
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}
