// Package transcriber drives audio through the incremental decoder: a live
// capture loop for microphone input and a synchronous pipeline for files.
package transcriber

import (
	"errors"

	"murmur/vosk"
)

var (
	// ErrAlreadyRunning is returned by a start attempt while a capture
	// loop is active. Callers check it; it is a rejection, not a failure.
	ErrAlreadyRunning = errors.New("transcription already running")

	// ErrDecodeFault wraps an unexpected engine error mid-stream. It is
	// fatal for the current session only.
	ErrDecodeFault = errors.New("decoder failure")
)

// Sink receives each completed phrase. Implementations must not block the
// capture loop; a panicking sink is recovered and logged.
type Sink func(text string)

// Transcriber converts an audio source to text. For the microphone
// implementation the path is ignored and text is delivered via the sink.
type Transcriber interface {
	Transcribe(path string) (string, error)
	Stop()
}

// RecognizerFactory creates decoding contexts. *vosk.Service satisfies it;
// tests substitute scripted fakes.
type RecognizerFactory interface {
	NewRecognizer(sampleRate float64) (vosk.Recognizer, error)
}
