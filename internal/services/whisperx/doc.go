// Package whisperx transcribes extracted audio with WhisperX, run through uvx.
//
// Transcribe writes WhisperX's JSON output next to the audio file, then
// reduces the segment list to a content.Transcript: trimmed segment text,
// the joined full text and the detected language as an ISO 639-1 code.
//
// Configuration options (model, CUDA, VAD method, launcher command) are
// passed via Config.
package whisperx
