// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect executes ffprobe and returns the parsed Result. The frame sampler
// uses the duration to space its timestamps, and the downloader uses the
// stream counts to reject files that are not videos.
package ffprobe
