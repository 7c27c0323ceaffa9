package transcriber

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"murmur/audio"
	"murmur/log"
	"murmur/vosk"
)

// MicConfig tunes the capture loop.
type MicConfig struct {
	SampleRate int
	ChunkSize  int
	IdleSleep  time.Duration
	// OnPartial, when set, receives unstable in-progress text for display.
	// Partial text is never persisted and may be overwritten by the next
	// chunk.
	OnPartial func(text string)
}

// Mic runs a live transcription session: it drains fixed-size chunks from
// an audio source, feeds them to a decoding context, and emits completed
// phrases through the sink.
//
// Run is the loop body and blocks until Stop or a fatal decoder error; it
// is the only goroutine touching the recognizer and the source while
// running. Controllers only flip the start guard, call Stop, and optionally
// wait on Done.
type Mic struct {
	factory RecognizerFactory
	source  audio.Source
	sink    Sink
	cfg     MicConfig

	running atomic.Bool
	stop    atomic.Bool

	mu   sync.Mutex
	done chan struct{}
}

func NewMic(factory RecognizerFactory, source audio.Source, sink Sink, cfg MicConfig) *Mic {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.SampleRate
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = audio.DefaultChunkSize
	}
	if cfg.IdleSleep <= 0 {
		cfg.IdleSleep = 10 * time.Millisecond
	}
	return &Mic{factory: factory, source: source, sink: sink, cfg: cfg}
}

// Transcribe implements Transcriber. The path is ignored for live capture;
// text arrives through the sink.
func (m *Mic) Transcribe(string) (string, error) {
	return "", m.Run()
}

// Run executes the capture loop until Stop or a fatal error. A second Run
// while one is active returns ErrAlreadyRunning without creating a second
// loop.
func (m *Mic) Run() error {
	if !m.running.CompareAndSwap(false, true) {
		log.Warn("start requested but capture loop is already running")
		return ErrAlreadyRunning
	}
	m.stop.Store(false)

	m.mu.Lock()
	done := make(chan struct{})
	m.done = done
	m.mu.Unlock()

	defer func() {
		m.running.Store(false)
		close(done)
	}()

	rec, err := m.factory.NewRecognizer(float64(m.cfg.SampleRate))
	if err != nil {
		return err
	}

	if err := m.source.Open(); err != nil {
		rec.Close()
		return fmt.Errorf("opening audio source: %w", err)
	}

	log.Info("capture loop started")
	var fault error
	buf := make([]byte, m.cfg.ChunkSize)

	for !m.stop.Load() {
		n, err := m.source.Read(buf)
		if err != nil {
			fault = fmt.Errorf("reading audio source: %w", err)
			break
		}
		if n == 0 {
			// No audio available right now; do not busy-spin.
			time.Sleep(m.cfg.IdleSleep)
			continue
		}

		boundary, err := rec.AcceptWaveform(buf[:n])
		if err != nil {
			fault = fmt.Errorf("%w: %v", ErrDecodeFault, err)
			log.Errorf("decoder fault, stopping session: %v", err)
			break
		}
		if boundary {
			if text := vosk.TextOf(rec.Result()); text != "" {
				m.deliver(text)
				log.Phrase(text)
			}
		} else if m.cfg.OnPartial != nil {
			if partial := vosk.PartialOf(rec.PartialResult()); partial != "" {
				m.cfg.OnPartial(partial)
			}
		}
	}

	// Close the source first so no further bytes can arrive; the flush
	// then operates on a quiesced context.
	if err := m.source.Close(); err != nil {
		log.Warnf("closing audio source: %v", err)
	}
	if !errors.Is(fault, ErrDecodeFault) {
		if text := vosk.TextOf(rec.FinalResult()); text != "" {
			m.deliver(text)
			log.Phrase(text)
		}
	}
	rec.Close()
	log.Info("capture loop stopped")
	return fault
}

// Stop requests cooperative cancellation. It is safe from any goroutine and
// idempotent; the loop notices at chunk granularity. Callers that need the
// session fully stopped should wait on Done with their own timeout.
func (m *Mic) Stop() {
	m.stop.Store(true)
}

// Running reports whether the loop is active.
func (m *Mic) Running() bool {
	return m.running.Load()
}

var neverStarted = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done returns a channel closed when the current (or most recent) Run has
// released its resources and returned.
func (m *Mic) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		return neverStarted
	}
	return m.done
}

func (m *Mic) deliver(text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("sink panic: %v", r)
		}
	}()
	m.sink(text)
}
