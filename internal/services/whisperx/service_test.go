package whisperx_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"reelsmith/internal/content"
	"reelsmith/internal/services"
	"reelsmith/internal/services/whisperx"
)

const whisperOutput = `{
  "language": "en",
  "segments": [
    {"start": 0.0, "end": 2.4, "text": "  POV: you finally found it. "},
    {"start": 2.4, "end": 3.0, "text": "   "},
    {"start": 3.0, "end": 7.5, "text": "Three drops every morning."}
  ]
}`

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func fakeWhisper(t *testing.T, output string, captured *[]string) func(context.Context, string, ...string) error {
	t.Helper()
	return func(_ context.Context, name string, args ...string) error {
		*captured = append([]string{name}, args...)
		idx := slices.Index(args, "--output_dir")
		if idx < 0 {
			t.Fatalf("missing --output_dir in %v", args)
		}
		return os.WriteFile(filepath.Join(args[idx+1], "audio.json"), []byte(output), 0o644)
	}
}

func TestTranscribeParsesSegments(t *testing.T) {
	audio := writeAudio(t)
	var args []string
	svc := whisperx.NewService(whisperx.Config{Model: "base"})
	svc.WithCommandRunner(fakeWhisper(t, whisperOutput, &args))

	transcript, err := svc.Transcribe(context.Background(), audio, content.TranscribeOptions{Model: "small", Language: "English"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if transcript.FullText != "POV: you finally found it. Three drops every morning." {
		t.Fatalf("unexpected full text %q", transcript.FullText)
	}
	if len(transcript.Segments) != 2 {
		t.Fatalf("expected blank segment to be dropped, got %d segments", len(transcript.Segments))
	}
	if transcript.Language != "en" {
		t.Fatalf("unexpected language %q", transcript.Language)
	}
	if args[0] != "uvx" {
		t.Fatalf("expected uvx launcher, got %q", args[0])
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{"--model small", "--language en", "--output_format json", "--device cpu"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestTranscribeCustomCommandSkipsIndexFlags(t *testing.T) {
	audio := writeAudio(t)
	var args []string
	svc := whisperx.NewService(whisperx.Config{Command: "/usr/local/bin/whisperx-wrapper", CUDAEnabled: true})
	svc.WithCommandRunner(fakeWhisper(t, whisperOutput, &args))

	if _, err := svc.Transcribe(context.Background(), audio, content.TranscribeOptions{}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if slices.Contains(args, "--index-url") {
		t.Fatalf("index flags only apply to uvx: %v", args)
	}
	if !slices.Contains(args, "cuda") {
		t.Fatalf("expected cuda device: %v", args)
	}
	if slices.Contains(args, "--language") {
		t.Fatalf("language should be auto-detected: %v", args)
	}
}

func TestTranscribeReportsUnparseableOutput(t *testing.T) {
	audio := writeAudio(t)
	var args []string
	svc := whisperx.NewService(whisperx.Config{})
	svc.WithCommandRunner(fakeWhisper(t, "not json", &args))

	_, err := svc.Transcribe(context.Background(), audio, content.TranscribeOptions{})
	if services.Classify(err) != services.KindUnparseable {
		t.Fatalf("expected unparseable error, got %v", err)
	}
}

func TestTranscribeWrapsCommandFailure(t *testing.T) {
	audio := writeAudio(t)
	svc := whisperx.NewService(whisperx.Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1: CUDA out of memory")
	})

	_, err := svc.Transcribe(context.Background(), audio, content.TranscribeOptions{})
	if services.Classify(err) != services.KindExternalService {
		t.Fatalf("unexpected kind for %v", err)
	}
	if !strings.Contains(services.Message(err), "whisperx: transcribe: exit status 1") {
		t.Fatalf("unexpected message %q", services.Message(err))
	}
}

func TestTranscribeRequiresAudioFile(t *testing.T) {
	svc := whisperx.NewService(whisperx.Config{})
	_, err := svc.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), content.TranscribeOptions{})
	if services.Classify(err) != services.KindMissingInput {
		t.Fatalf("expected missing input, got %v", err)
	}
}
