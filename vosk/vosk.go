// Package vosk wraps the incremental speech decoder behind a small
// lifecycle API: one shared model per Service, independent single-owner
// recognizers derived from it.
//
// The real binding is compiled in with the `vosk` build tag; without it a
// deterministic stub stands in so the binary builds and tests run without
// cgo.
package vosk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"murmur/log"
)

// ErrModelMissing indicates the model path does not exist or is not a
// directory.
var ErrModelMissing = errors.New("speech model not found")

// Recognizer is a single-use decoding context bound to one model and sample
// rate. It must not be fed from two goroutines and must not outlive the
// Service it came from.
type Recognizer interface {
	// AcceptWaveform feeds one chunk of canonical PCM. A true return means
	// a phrase boundary was detected and Result holds stable text; false
	// means the phrase is still accumulating and only PartialResult is
	// meaningful.
	AcceptWaveform(buf []byte) (bool, error)
	// Result returns the engine's JSON payload for the last completed
	// phrase.
	Result() string
	// PartialResult returns the JSON payload of the in-progress hypothesis.
	PartialResult() string
	// FinalResult flushes the engine and returns the JSON payload for
	// whatever audio remains.
	FinalResult() string
	Close()
}

// model is the backend-specific loaded resource.
type model interface {
	newRecognizer(sampleRate float64) (Recognizer, error)
	free()
}

// Service owns at most one loaded model. Open is idempotent under
// concurrent callers: the mutex guarantees a single load, and later callers
// reuse it. Close releases exactly once and resets the slot so a fresh Open
// succeeds.
type Service struct {
	mu   sync.Mutex
	m    model
	path string
}

// Open loads the model from the given directory. Loading an already-open
// Service is a no-op.
func (s *Service) Open(modelPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.m != nil {
		return nil
	}

	abs, err := filepath.Abs(modelPath)
	if err != nil {
		abs = modelPath
	}
	info, err := os.Stat(modelPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w at %s: download a model from https://alphacephei.com/vosk/models and unpack it there", ErrModelMissing, abs)
	}

	log.Infof("loading speech model from %s", abs)
	m, err := loadModel(modelPath)
	if err != nil {
		return fmt.Errorf("loading speech model from %s: %w", abs, err)
	}
	s.m = m
	s.path = modelPath
	log.Info("speech model loaded")
	return nil
}

// Loaded reports whether a model is currently open.
func (s *Service) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m != nil
}

// ModelPath returns the directory of the open model, or "".
func (s *Service) ModelPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// NewRecognizer creates an independent decoding context at the given sample
// rate. The caller owns it and must Close it after use.
func (s *Service) NewRecognizer(sampleRate float64) (Recognizer, error) {
	s.mu.Lock()
	m := s.m
	s.mu.Unlock()

	if m == nil {
		return nil, fmt.Errorf("no speech model loaded")
	}
	r, err := m.newRecognizer(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("creating recognizer at %v Hz: %w", sampleRate, err)
	}
	return r, nil
}

// Close releases the model. Closing an empty Service is a no-op.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return
	}
	s.m.free()
	s.m = nil
	s.path = ""
	log.Info("speech model released")
}
