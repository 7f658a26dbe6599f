package services_test

import (
	"context"
	"testing"

	"reelsmith/internal/services"
)

func TestContextHelpersRoundTrip(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithNode(ctx, "transcribe")
	ctx = services.WithRequestID(ctx, "req-1")

	if v, ok := services.JobIDFromContext(ctx); !ok || v != "job-1" {
		t.Fatalf("unexpected job id %q (%v)", v, ok)
	}
	if v, ok := services.RunIDFromContext(ctx); !ok || v != "run-1" {
		t.Fatalf("unexpected run id %q (%v)", v, ok)
	}
	if v, ok := services.NodeFromContext(ctx); !ok || v != "transcribe" {
		t.Fatalf("unexpected node %q (%v)", v, ok)
	}
	if v, ok := services.RequestIDFromContext(ctx); !ok || v != "req-1" {
		t.Fatalf("unexpected request id %q (%v)", v, ok)
	}
}

func TestContextHelpersIgnoreEmpty(t *testing.T) {
	ctx := services.WithNode(context.Background(), "")
	if _, ok := services.NodeFromContext(ctx); ok {
		t.Fatal("expected empty node to be ignored")
	}
}
