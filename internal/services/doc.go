// Package services defines shared utilities consumed by pipeline nodes and the
// external integrations they call.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, run IDs, node names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify collaborator
//     failures (missing input, external service, unparseable response) and
//     produce the message a node stores in its state error field.
//
// Use these helpers when wiring new node logic so failure reporting and
// observability stay uniform across every graph.
package services
