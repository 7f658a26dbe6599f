package graph_test

import (
	"context"
	"iter"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"reelsmith/internal/graph"
)

func jitter(key string) graph.NodeFunc {
	return func(context.Context, graph.State) graph.Partial {
		time.Sleep(time.Duration(rand.IntN(5)) * time.Millisecond)
		return graph.Partial{key: true}
	}
}

func TestStreamOrderIsDeterministic(t *testing.T) {
	g, err := graph.NewBuilder("fan").
		AddNode("a", jitter("a")).
		AddNode("b", jitter("b")).
		AddNode("c", jitter("c")).
		AddJoin("j", jitter("j")).
		SetEntry("a").
		AddEdge("a", "b").
		AddEdge("a", "c").
		AddEdge("b", "j").
		AddEdge("c", "j").
		AddEdge("j", graph.End).
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	want := []string{"a", "b", "c", "j"}
	for i := range 10 {
		s := g.Stream(context.Background(), graph.State{})
		var got []string
		var steps []int
		for ev := range s.Events() {
			got = append(got, ev.Node)
			steps = append(steps, ev.Step)
		}
		res, err := s.Wait()
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if !slices.Equal(got, want) {
			t.Fatalf("run %d: event order %v, want %v", i, got, want)
		}
		if !slices.Equal(steps, []int{1, 2, 3, 4}) {
			t.Fatalf("run %d: unexpected steps %v", i, steps)
		}
		if res.Status != graph.StatusCompleted {
			t.Fatalf("run %d: status %s", i, res.Status)
		}
	}
}

func TestStreamAppliesBackpressure(t *testing.T) {
	var ran atomic.Int32
	count := func(context.Context, graph.State) graph.Partial {
		ran.Add(1)
		return nil
	}
	g, err := graph.NewBuilder("chain").
		AddNode("first", count).
		AddNode("second", count).
		SetEntry("first").
		AddEdge("first", "second").
		AddEdge("second", graph.End).
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	s := g.Stream(context.Background(), graph.State{})
	time.Sleep(50 * time.Millisecond)
	if n := ran.Load(); n != 1 {
		t.Fatalf("executor ran ahead of the consumer: %d nodes", n)
	}

	var seen []string
	for ev := range s.Events() {
		seen = append(seen, ev.Node)
		if ev.Node == "first" {
			time.Sleep(50 * time.Millisecond)
			if n := ran.Load(); n != 1 {
				t.Fatalf("next node started before the consumer finished the event: %d nodes", n)
			}
		}
	}
	if _, err := s.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !slices.Equal(seen, []string{"first", "second"}) {
		t.Fatalf("unexpected events %v", seen)
	}
	if n := ran.Load(); n != 2 {
		t.Fatalf("expected both nodes to run, got %d", n)
	}
}

func TestStreamEventCarriesPartialAndProgress(t *testing.T) {
	g, err := graph.NewBuilder("progress").
		AddNode("download", func(context.Context, graph.State) graph.Partial {
			return graph.Partial{"video_path": "/tmp/v.mp4", graph.KeyCurrentStep: "downloading_video"}
		}).
		SetEntry("download").
		AddEdge("download", graph.End).
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	s := g.Stream(context.Background(), graph.State{graph.KeyTotalSteps: 12, graph.KeyJobID: "job-7"})
	next, stop := iter.Pull(s.Events())
	defer stop()
	ev, ok := next()
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.RunID != "job-7" || ev.CurrentStep != "downloading_video" || ev.TotalSteps != 12 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Partial["video_path"] != "/tmp/v.mp4" {
		t.Fatalf("unexpected partial %v", ev.Partial)
	}
	if _, ok := next(); ok {
		t.Fatal("expected events to end after the last node")
	}
}

func TestStreamCancelInsideLoopSkipsNextNode(t *testing.T) {
	var expensive atomic.Bool
	g, err := graph.NewBuilder("cancel").
		AddNode("blueprint", noop).
		AddNode("render", func(context.Context, graph.State) graph.Partial {
			expensive.Store(true)
			return graph.Partial{"video_url": "https://cdn.example.com/out.mp4"}
		}).
		SetEntry("blueprint").
		AddEdge("blueprint", "render").
		AddEdge("render", graph.End).
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	for i := range 20 {
		expensive.Store(false)
		s := g.Stream(context.Background(), graph.State{})
		for ev := range s.Events() {
			if ev.Node == "blueprint" {
				s.Cancel()
			}
		}
		res, err := s.Wait()
		if err == nil {
			t.Fatalf("run %d: expected cancellation error", i)
		}
		if res.Status != graph.StatusCancelled {
			t.Fatalf("run %d: expected cancelled status, got %s", i, res.Status)
		}
		if expensive.Load() {
			t.Fatalf("run %d: node after the cancelling event still ran", i)
		}
	}
}

func TestStreamBreakCancelsRun(t *testing.T) {
	var ran atomic.Int32
	count := func(context.Context, graph.State) graph.Partial {
		ran.Add(1)
		return nil
	}
	g, err := graph.NewBuilder("break").
		AddNode("first", count).
		AddNode("second", count).
		SetEntry("first").
		AddEdge("first", "second").
		AddEdge("second", graph.End).
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	s := g.Stream(context.Background(), graph.State{})
	for range s.Events() {
		break
	}
	res, err := s.Wait()
	if err == nil || res.Status != graph.StatusCancelled {
		t.Fatalf("expected cancelled run, got %s (%v)", res.Status, err)
	}
	if n := ran.Load(); n != 1 {
		t.Fatalf("expected only the first node to run, got %d", n)
	}
}
