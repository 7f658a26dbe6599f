package pipeline

import (
	"fmt"
	"strings"

	"reelsmith/internal/content"
	"reelsmith/internal/graph"
	"reelsmith/internal/services"
)

// Kind names a pipeline graph.
type Kind string

const (
	KindAnalysis Kind = "analysis"
	KindPrompt   Kind = "prompt"
	KindFull     Kind = "full"
)

// ParseKind validates a graph name.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case KindAnalysis, KindPrompt, KindFull:
		return k, nil
	}
	return "", fmt.Errorf("unknown pipeline %q (want analysis, prompt or full)", name)
}

// Factory compiles a fresh graph per call. Graphs share no state with each
// other beyond the collaborators and the checkpoint store.
type Factory struct {
	svc         Services
	checkpoints graph.CheckpointStore
}

// NewFactory returns a factory over svc. When checkpoints is non-nil the full
// graph snapshots state after every node.
func NewFactory(svc Services, checkpoints graph.CheckpointStore) *Factory {
	return &Factory{svc: svc, checkpoints: checkpoints}
}

// Build compiles the graph named by kind.
func (f *Factory) Build(kind Kind, opts ...graph.Option) (*graph.Graph, error) {
	switch kind {
	case KindAnalysis:
		return f.Analysis(opts...)
	case KindPrompt:
		return f.Prompt(opts...)
	case KindFull:
		return f.Full(opts...)
	}
	return nil, fmt.Errorf("unknown pipeline %q", kind)
}

// Analysis compiles download, the audio and frame branches and the blueprint
// join.
func (f *Factory) Analysis(opts ...graph.Option) (*graph.Graph, error) {
	if err := f.require(KindAnalysis); err != nil {
		return nil, err
	}
	n := newNodes(f.svc)
	b := graph.NewBuilder(string(KindAnalysis))
	addAnalysisPhase(b, n)
	b.AddEdge(NodeGenerateBlueprint, graph.End)
	return b.Compile(f.options(false, opts)...)
}

// Prompt compiles the prompt phase with a conditional entry that skips
// product analysis when no images were supplied.
func (f *Factory) Prompt(opts ...graph.Option) (*graph.Graph, error) {
	n := newNodes(f.svc)
	b := graph.NewBuilder(string(KindPrompt))
	entry := addPromptPhase(b, n)
	b.SetConditionalEntry(graph.NewRouter(productOrPrompt, LabelProduct, LabelPrompt), entry)
	b.AddEdge(NodeFinalizePrompt, graph.End)
	return b.Compile(f.options(false, opts)...)
}

// Full chains analysis into the prompt phase and the prompt phase into video
// synthesis, each through a conditional junction.
func (f *Factory) Full(opts ...graph.Option) (*graph.Graph, error) {
	if err := f.require(KindFull); err != nil {
		return nil, err
	}
	n := newNodes(f.svc)
	b := graph.NewBuilder(string(KindFull))
	addAnalysisPhase(b, n)
	entry := addPromptPhase(b, n)
	entry[graph.LabelEnd] = []string{graph.End}
	b.AddConditionalEdges(NodeGenerateBlueprint,
		graph.NewRouter(analysisJunction, LabelProduct, LabelPrompt, graph.LabelEnd), entry)
	b.AddNode(NodeGenerateVideo, n.generateVideo)
	b.AddConditionalEdges(NodeFinalizePrompt, graph.ContinueOrEnd(hasPrompt), graph.Routes{
		graph.LabelContinue: {NodeGenerateVideo},
		graph.LabelEnd:      {graph.End},
	})
	b.AddEdge(NodeGenerateVideo, graph.End)
	return b.Compile(f.options(true, opts)...)
}

func (f *Factory) options(checkpointed bool, extra []graph.Option) []graph.Option {
	opts := []graph.Option{
		graph.WithLogger(f.svc.Logger),
		graph.WithTotalSteps(TotalSteps),
	}
	if checkpointed && f.checkpoints != nil {
		opts = append(opts, graph.WithCheckpointer(f.checkpoints))
	}
	return append(opts, extra...)
}

func (f *Factory) require(kind Kind) error {
	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	check("downloader", f.svc.Downloader != nil)
	check("audio extractor", f.svc.Audio != nil)
	check("frame extractor", f.svc.Frames != nil)
	check("transcriber", f.svc.Transcriber != nil)
	check("vision analyzer", f.svc.Vision != nil)
	if kind == KindFull {
		check("synthesizer", f.svc.Synthesizer != nil)
	}
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "pipeline", string(kind),
		"missing collaborators: "+strings.Join(missing, ", "), nil)
}

func addAnalysisPhase(b *graph.Builder, n *nodes) {
	b.AddNode(NodeDownloadVideo, n.downloadVideo).
		AddNode(NodeExtractAudio, n.extractAudio).
		AddNode(NodeTranscribe, n.transcribe).
		AddNode(NodeExtractFrames, n.extractFrames).
		AddNode(NodeAnalyzeVisuals, n.analyzeVisuals).
		AddJoin(NodeGenerateBlueprint, n.generateBlueprint).
		SetEntry(NodeDownloadVideo)

	b.AddConditionalEdges(NodeDownloadVideo, graph.ContinueOrEnd(hasKey(KeyVideoPath)), graph.Routes{
		graph.LabelContinue: {NodeExtractAudio, NodeExtractFrames},
		graph.LabelEnd:      {graph.End},
	})
	b.AddConditionalEdges(NodeExtractAudio, graph.ContinueOrEnd(hasKey(KeyAudioPath)), graph.Routes{
		graph.LabelContinue: {NodeTranscribe},
		graph.LabelEnd:      {graph.End},
	})
	b.AddConditionalEdges(NodeExtractFrames, graph.ContinueOrEnd(hasFrames), graph.Routes{
		graph.LabelContinue: {NodeAnalyzeVisuals},
		graph.LabelEnd:      {graph.End},
	})
	b.AddEdge(NodeTranscribe, NodeGenerateBlueprint)
	b.AddEdge(NodeAnalyzeVisuals, NodeGenerateBlueprint)
}

// addPromptPhase adds the prompt nodes and returns the routes its entry
// junction must map.
func addPromptPhase(b *graph.Builder, n *nodes) graph.Routes {
	b.AddNode(NodeAnalyzeProduct, n.analyzeProduct).
		AddNode(NodeBasePrompt, n.generateBasePrompt).
		AddNode(NodeMechanics, n.generateMechanics).
		AddNode(NodeFinalizePrompt, n.finalizePrompt)

	b.AddEdge(NodeAnalyzeProduct, NodeBasePrompt)
	b.AddConditionalEdges(NodeBasePrompt,
		graph.NewRouter(mechanicsOrFinalize, LabelMechanics, LabelFinalize, graph.LabelEnd),
		graph.Routes{
			LabelMechanics: {NodeMechanics},
			LabelFinalize:  {NodeFinalizePrompt},
			graph.LabelEnd: {graph.End},
		})
	b.AddEdge(NodeMechanics, NodeFinalizePrompt)
	return graph.Routes{
		LabelProduct: {NodeAnalyzeProduct},
		LabelPrompt:  {NodeBasePrompt},
	}
}

func hasKey(key string) func(graph.State) bool {
	return func(s graph.State) bool { return s.String(key) != "" }
}

func hasFrames(s graph.State) bool {
	return len(s.Strings(KeyFrames)) > 0
}

func hasPrompt(s graph.State) bool {
	return !s.HasError() && usablePrompt(s) != ""
}

func productOrPrompt(s graph.State) string {
	if len(s.Strings(KeyProductImages)) > 0 {
		return LabelProduct
	}
	return LabelPrompt
}

// analysisJunction continues into the prompt phase when analysis produced
// anything a prompt can be built from.
func analysisJunction(s graph.State) string {
	if s.HasError() {
		return graph.LabelEnd
	}
	bp, _ := graph.Get[content.Blueprint](s, KeyBlueprint)
	transcript, _ := graph.Get[content.Transcript](s, KeyTranscript)
	visual, _ := graph.Get[content.VisualAnalysis](s, KeyVisualAnalysis)
	if bp.IsZero() && !transcript.HasText() && visual.IsZero() {
		return graph.LabelEnd
	}
	return productOrPrompt(s)
}

func mechanicsOrFinalize(s graph.State) string {
	if s.HasError() {
		return graph.LabelEnd
	}
	cfg := runConfig(s)
	bp, _ := graph.Get[content.Blueprint](s, KeyBlueprint)
	if cfg.EnableMechanics && (!bp.IsZero() || !summaryOf(s).IsZero()) {
		return LabelMechanics
	}
	return LabelFinalize
}
