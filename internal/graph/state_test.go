package graph_test

import (
	"encoding/json"
	"testing"

	"reelsmith/internal/graph"
)

type clip struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

func TestGetDecodesRestoredValues(t *testing.T) {
	live := graph.State{"clip": clip{URL: "a.mp4", Duration: 4}}
	data, err := json.Marshal(live)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored graph.State
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for name, s := range map[string]graph.State{"live": live, "restored": restored} {
		got, ok := graph.Get[clip](s, "clip")
		if !ok || got.URL != "a.mp4" || got.Duration != 4 {
			t.Fatalf("%s: Get = %+v, %v", name, got, ok)
		}
	}
	if _, ok := graph.Get[clip](graph.State{"clip": "a.mp4"}, "clip"); ok {
		t.Fatal("scalars must not decode into structs")
	}
	if _, ok := graph.Get[clip](graph.State{}, "clip"); ok {
		t.Fatal("missing keys report false")
	}
	if got := restored.Strings("missing"); got != nil {
		t.Fatalf("Strings(missing) = %v", got)
	}
}
