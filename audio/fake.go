package audio

import (
	"fmt"
	"os"
	"sync"
)

// FakeSource replays PCM bytes through the Source interface. After the data
// is exhausted it keeps returning empty reads (open microphone with nobody
// speaking) until Close. An optional script of empty reads can be injected
// before the data to exercise the idle path.
type FakeSource struct {
	pcm        []byte
	emptyReads int

	mu     sync.Mutex
	pos    int
	opened bool
	closed bool
	reads  int
}

func NewFakeSource(pcm []byte) *FakeSource {
	return &FakeSource{pcm: pcm}
}

// NewFakeSourceFromWAV loads the sample data of a WAV file for replay.
func NewFakeSourceFromWAV(path string) (*FakeSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	} else {
		data = nil
	}
	return &FakeSource{pcm: data}, nil
}

// SetEmptyReads makes the first n reads return no data.
func (f *FakeSource) SetEmptyReads(n int) { f.emptyReads = n }

func (f *FakeSource) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("fake source is closed")
	}
	f.opened = true
	return nil
}

func (f *FakeSource) Read(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, nil
	}
	f.reads++
	if f.reads <= f.emptyReads {
		return 0, nil
	}
	if f.pos >= len(f.pcm) {
		return 0, nil
	}
	n := copy(buf, f.pcm[f.pos:])
	f.pos += n
	return n, nil
}

func (f *FakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FakeSource) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Exhausted reports whether all replay data has been consumed.
func (f *FakeSource) Exhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos >= len(f.pcm)
}
