// Package ffmpeg extracts the audio track and still frames the analysis graph
// feeds to transcription and vision models.
//
// Both operations probe the source with ffprobe first so that a video without
// an audio stream, or with no usable duration, fails with a clear message
// instead of an opaque ffmpeg exit status. Commands run through an injectable
// runner so tests can assert the argument lists without the binaries present.
package ffmpeg
