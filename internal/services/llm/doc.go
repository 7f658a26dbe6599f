// Package llm provides an OpenRouter chat client for the language and vision
// calls of the pipeline.
//
// The Client implements four collaborators:
//   - AnalyzeFrames: describe setting, lighting and framing from sampled frames
//   - WriteBlueprint: classify hook style, body framework and CTA urgency
//   - AnalyzeProduct: read up to three product images
//   - WritePrompt: draft the base video prompt and presenter script
//
// Images are sent as OpenAI-style image_url parts. Local files are inlined as
// base64 data URIs; remote URLs and data URIs pass through.
//
// # Errors
//
// Failures carry a services marker so nodes can decide between failing the run
// and degrading: a missing API key or rejected credentials is a configuration
// error, a reply that is not the requested JSON is unparseable, and transport
// failures are external-service errors.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and network
// timeouts with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Context cancellation aborts retries immediately.
package llm
