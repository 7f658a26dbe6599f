// Package content holds the typed values exchanged between pipeline nodes and
// the collaborators behind them: transcripts, visual analysis, blueprints,
// product analysis, prompt drafts and synthesis requests.
//
// The package is a leaf: it imports nothing from the rest of the module so
// that adapters in internal/services and internal/media can produce these
// values without depending on the pipeline.
package content
