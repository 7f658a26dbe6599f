// Package pipeline assembles the video pipelines out of internal/graph: the
// analysis graph (download, audio and frame branches, blueprint), the prompt
// graph (product analysis, base prompt, mechanics, finalize) and the full
// graph that chains both into video synthesis.
//
// Node bodies delegate to collaborators declared as small interfaces in
// services.go; concrete adapters live in internal/media and
// internal/services/*. Nodes never return Go errors: expected failures are
// folded into the partial state under "error" together with error_details,
// a failed status and safe defaults, and soft failures append to "warnings".
//
// Seeds (AnalysisInput, PromptInput, FullInput) validate caller input and
// populate every recognized key with its default so downstream nodes can read
// fields unconditionally. Outcome decodes a finished run back into typed
// results for the job store.
package pipeline
