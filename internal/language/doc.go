// Package language normalizes the language hints passed to the transcriber
// and renders detected languages for people. Parsing and display names come
// from golang.org/x/text.
package language
