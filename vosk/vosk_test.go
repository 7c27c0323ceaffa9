package vosk

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestOpenMissingPath(t *testing.T) {
	s := &Service{}
	missing := filepath.Join(t.TempDir(), "no-such-model")

	err := s.Open(missing)
	if err == nil {
		t.Fatal("Open should fail for a missing path")
	}
	if !errors.Is(err, ErrModelMissing) {
		t.Errorf("error = %v, want ErrModelMissing", err)
	}
	if !strings.Contains(err.Error(), "no-such-model") {
		t.Errorf("error should name the path, got: %v", err)
	}
	if s.Loaded() {
		t.Error("Loaded should be false after failed Open")
	}
}

func TestOpenFileNotDirectory(t *testing.T) {
	s := &Service{}
	dir := t.TempDir()
	file := filepath.Join(dir, "model")
	if err := writeFile(file); err != nil {
		t.Fatal(err)
	}

	if err := s.Open(file); !errors.Is(err, ErrModelMissing) {
		t.Errorf("Open on a plain file = %v, want ErrModelMissing", err)
	}
}

func TestOpenAndClose(t *testing.T) {
	s := &Service{}
	dir := t.TempDir()

	if err := s.Open(dir); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !s.Loaded() {
		t.Fatal("Loaded should be true")
	}
	if s.ModelPath() != dir {
		t.Errorf("ModelPath = %q, want %q", s.ModelPath(), dir)
	}

	// Opening again is a no-op, not a second load.
	if err := s.Open(dir); err != nil {
		t.Fatalf("second Open: %v", err)
	}

	s.Close()
	if s.Loaded() {
		t.Error("Loaded should be false after Close")
	}

	// Close with nothing loaded is a no-op.
	s.Close()

	// A fresh Open after Close succeeds and yields a usable model.
	if err := s.Open(dir); err != nil {
		t.Fatalf("Open after Close: %v", err)
	}
	rec, err := s.NewRecognizer(16000)
	if err != nil {
		t.Fatalf("NewRecognizer: %v", err)
	}
	rec.Close()
	s.Close()
}

func TestOpenConcurrent(t *testing.T) {
	s := &Service{}
	dir := t.TempDir()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Open(dir)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("concurrent Open %d: %v", i, err)
		}
	}
	if !s.Loaded() {
		t.Fatal("Loaded should be true")
	}
	if _, err := s.NewRecognizer(16000); err != nil {
		t.Errorf("NewRecognizer after concurrent Open: %v", err)
	}
	s.Close()
}

func TestNewRecognizerWithoutModel(t *testing.T) {
	s := &Service{}
	if _, err := s.NewRecognizer(16000); err == nil {
		t.Error("NewRecognizer should fail with no model loaded")
	}
}

func writeFile(path string) error {
	return writeBytes(path, []byte("not a model"))
}
