package vosk

import (
	"encoding/json"
	"sync"
)

// Fake is a scripted Recognizer for tests.
//
// Each AcceptWaveform call consumes the next entry of Boundaries (false
// once the script runs out). When a boundary fires, the next entry of
// Finals becomes the Result payload. FailAt makes the n-th feed call
// (1-based) return FeedErr.
type Fake struct {
	Boundaries []bool
	Finals     []string
	Partial    string
	FlushText  string
	FeedErr    error
	FailAt     int

	mu         sync.Mutex
	feedCalls  int
	finalIdx   int
	lastResult string
	flushed    bool
	closed     bool
}

func (f *Fake) AcceptWaveform(buf []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedCalls++
	if f.FailAt > 0 && f.feedCalls >= f.FailAt {
		return false, f.FeedErr
	}
	boundary := false
	if f.feedCalls <= len(f.Boundaries) {
		boundary = f.Boundaries[f.feedCalls-1]
	}
	if boundary {
		text := ""
		if f.finalIdx < len(f.Finals) {
			text = f.Finals[f.finalIdx]
			f.finalIdx++
		}
		f.lastResult = text
	}
	return boundary, nil
}

func (f *Fake) Result() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return encodeText(f.lastResult)
}

func (f *Fake) PartialResult() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, _ := json.Marshal(map[string]string{"partial": f.Partial})
	return string(raw)
}

func (f *Fake) FinalResult() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed = true
	return encodeText(f.FlushText)
}

func (f *Fake) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *Fake) FeedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feedCalls
}

func (f *Fake) Flushed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushed
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func encodeText(text string) string {
	raw, _ := json.Marshal(map[string]string{"text": text})
	return string(raw)
}
