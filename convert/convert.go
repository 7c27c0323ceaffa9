// Package convert normalizes arbitrary audio files into the canonical PCM
// layout by shelling out to ffmpeg.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"murmur/audio"
	"murmur/log"
)

var (
	// ErrConversionFailed covers a missing converter binary, a probe or
	// conversion timeout, and a non-zero converter exit.
	ErrConversionFailed = errors.New("audio conversion failed")

	// ErrInvalidFormat means the converted file does not measure as
	// canonical PCM. This is a hard error; there is no re-conversion.
	ErrInvalidFormat = errors.New("invalid audio format after conversion")
)

// Converter turns an arbitrary input audio file into a canonical PCM WAV.
// The returned path is the input itself when no conversion was needed;
// temporary reports whether the caller owns a temp file to clean up.
type Converter interface {
	Normalize(inputPath string) (path string, temporary bool, err error)
}

const defaultProbeTimeout = 3 * time.Second

// FFmpeg invokes the ffmpeg executable. Each invocation is single-use;
// processes are never pooled.
type FFmpeg struct {
	Binary       string
	SampleRate   int
	ProbeTimeout time.Duration
}

func NewFFmpeg(binary string, sampleRate int, probeTimeout time.Duration) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = audio.SampleRate
	}
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &FFmpeg{Binary: binary, SampleRate: sampleRate, ProbeTimeout: probeTimeout}
}

// Probe checks that the converter binary responds within the configured
// timeout. On timeout the probe process is killed and an actionable error
// is returned instead of letting the real conversion hang.
func (f *FFmpeg) Probe() error {
	ctx, cancel := context.WithTimeout(context.Background(), f.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.Binary, "-version")
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %s did not respond within %v; check the ffmpeg installation and PATH",
			ErrConversionFailed, f.Binary, f.ProbeTimeout)
	}
	if err != nil {
		return fmt.Errorf("%w: %s is not available (install ffmpeg and make sure it is on PATH): %v: %s",
			ErrConversionFailed, f.Binary, err, tail(out))
	}
	return nil
}

// Normalize implements Converter.
//
// A file that already measures as canonical PCM is returned unchanged with
// zero subprocess invocations. Anything else goes through ffmpeg and is
// validated again afterwards; a partially written output never survives a
// failure.
func (f *FFmpeg) Normalize(inputPath string) (string, bool, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", false, fmt.Errorf("input audio not found: %s: %w", inputPath, err)
	}

	if format, err := audio.ProbeWAV(inputPath); err == nil && format.Canonical(f.SampleRate) {
		log.Debugf("already canonical, no conversion: %s", inputPath)
		return inputPath, false, nil
	}

	if err := f.Probe(); err != nil {
		return "", false, err
	}

	outputPath := tempOutputPath(inputPath)
	log.Infof("converting %s -> %s", filepath.Base(inputPath), filepath.Base(outputPath))

	if err := f.run(inputPath, outputPath); err != nil {
		if rmErr := os.Remove(outputPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warnf("could not remove partial output %s: %v", outputPath, rmErr)
		}
		return "", false, err
	}

	format, err := audio.ProbeWAV(outputPath)
	if err != nil {
		os.Remove(outputPath)
		return "", false, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if !format.Canonical(f.SampleRate) {
		os.Remove(outputPath)
		return "", false, fmt.Errorf("%w: got pcm=%v, %d ch, %d Hz, %d bit; want mono %d Hz 16 bit PCM",
			ErrInvalidFormat, format.PCM, format.Channels, format.SampleRate, format.BitsPerSample, f.SampleRate)
	}

	return outputPath, true, nil
}

// run executes the conversion, draining combined stdout/stderr on a
// separate goroutine while waiting for exit so a full pipe buffer cannot
// deadlock against Wait.
func (f *FFmpeg) run(inputPath, outputPath string) error {
	cmd := exec.Command(f.Binary,
		"-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(f.SampleRate),
		"-ac", "1",
		"-y",
		outputPath,
	)

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: creating output pipe: %v", ErrConversionFailed, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting %s: %v", ErrConversionFailed, f.Binary, err)
	}

	captured := newTailBuffer(4096)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		buf := make([]byte, 1024)
		for {
			n, readErr := pipe.Read(buf)
			if n > 0 {
				captured.Write(buf[:n])
			}
			if readErr != nil {
				return
			}
		}
	}()

	waitErr := cmd.Wait()
	<-drained

	if waitErr != nil {
		return fmt.Errorf("%w: %s exited with %v; output: %s",
			ErrConversionFailed, f.Binary, waitErr, tail(captured.Bytes()))
	}
	return nil
}

func tempOutputPath(inputPath string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + ".tmp.wav"
}

func tail(out []byte) string {
	const max = 2048
	s := strings.TrimSpace(string(out))
	if len(s) > max {
		s = "..." + s[len(s)-max:]
	}
	if s == "" {
		return "(no output)"
	}
	return s
}

// tailBuffer keeps the last cap bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) Bytes() []byte { return t.buf }
