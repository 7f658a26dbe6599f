// Package mechanics turns a reference-video blueprint into a beat-timed
// "human mechanics" prompt: what the presenter's hands, face, eyes and body
// do during the hook, body and call-to-action of a short product video.
//
// The engine is deterministic. Styles detected in the blueprint select
// templates, the target duration decides the beat boundaries, the product
// category and optional product context shape the product lines, and the
// composer renders everything as plain text appended to a base scene prompt.
package mechanics
