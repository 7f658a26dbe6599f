// Package fal renders videos through the fal.ai queue API.
//
// A render is three calls: submit the request to the model endpoint, poll its
// status until COMPLETED, then fetch the result. Client.Synthesize wraps the
// sequence and implements the pipeline's Synthesizer.
//
// Supported models are "sora" (Sora 2) and "kling" (Kling 2.1). Each has an
// image-to-video and a text-to-video endpoint; the image-to-video endpoint is
// used whenever the request carries a starting image. Local images are sent
// inline as data URIs.
//
// Sora only renders 4, 8 or 12 second clips, so other durations snap to the
// nearest of those. Kling takes the duration as a string. The reported cost is
// an estimate: a fixed per-second price times the rendered duration.
package fal
