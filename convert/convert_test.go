package convert

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"murmur/audio"
)

// fakeFFmpeg writes a shell script standing in for the converter binary and
// returns its path. Every invocation appends one line to callsPath.
func fakeFFmpeg(t *testing.T, dir, body string) (bin, callsPath string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script converter stand-in")
	}
	callsPath = filepath.Join(dir, "calls.log")
	bin = filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\necho run >> " + callsPath + "\n" + body
	if err := os.WriteFile(bin, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return bin, callsPath
}

func countCalls(t *testing.T, callsPath string) int {
	t.Helper()
	data, err := os.ReadFile(callsPath)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Count(string(data), "run")
}

func writeCanonicalWAV(t *testing.T, path string, rate int) {
	t.Helper()
	if err := audio.WriteWAV(path, make([]byte, 1600), rate); err != nil {
		t.Fatal(err)
	}
}

func TestNormalizeCanonicalPassthrough(t *testing.T) {
	dir := t.TempDir()
	bin, calls := fakeFFmpeg(t, dir, "exit 0\n")
	input := filepath.Join(dir, "in.wav")
	writeCanonicalWAV(t, input, audio.SampleRate)

	f := NewFFmpeg(bin, audio.SampleRate, time.Second)
	path, temporary, err := f.Normalize(input)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if path != input {
		t.Errorf("path = %q, want the input itself", path)
	}
	if temporary {
		t.Error("temporary should be false for a passthrough")
	}
	if n := countCalls(t, calls); n != 0 {
		t.Errorf("converter invoked %d times, want 0", n)
	}
}

func TestNormalizeMissingInput(t *testing.T) {
	dir := t.TempDir()
	bin, calls := fakeFFmpeg(t, dir, "exit 0\n")

	f := NewFFmpeg(bin, audio.SampleRate, time.Second)
	_, _, err := f.Normalize(filepath.Join(dir, "missing.mp3"))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if n := countCalls(t, calls); n != 0 {
		t.Errorf("converter invoked %d times, want 0", n)
	}
}

func TestNormalizeConverterSuccess(t *testing.T) {
	dir := t.TempDir()
	// The prepared output the stand-in "converts" to.
	converted := filepath.Join(dir, "converted.wav")
	writeCanonicalWAV(t, converted, audio.SampleRate)

	// Probe answers -version; conversion copies the prepared file to the
	// last argument.
	body := `if [ "$1" = "-version" ]; then echo fake version; exit 0; fi
for out; do :; done
cp ` + converted + ` "$out"
`
	bin, calls := fakeFFmpeg(t, dir, body)

	input := filepath.Join(dir, "speech.mp3")
	if err := os.WriteFile(input, []byte("mp3 bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	f := NewFFmpeg(bin, audio.SampleRate, time.Second)
	path, temporary, err := f.Normalize(input)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !temporary {
		t.Error("temporary should be true for a converted file")
	}
	if path != filepath.Join(dir, "speech.tmp.wav") {
		t.Errorf("path = %q, want speech.tmp.wav beside the input", path)
	}

	format, err := audio.ProbeWAV(path)
	if err != nil {
		t.Fatalf("ProbeWAV: %v", err)
	}
	if !format.Canonical(audio.SampleRate) {
		t.Errorf("converted file is not canonical: %+v", format)
	}
	// Probe + conversion.
	if n := countCalls(t, calls); n != 2 {
		t.Errorf("converter invoked %d times, want 2", n)
	}
	os.Remove(path)
}

func TestNormalizeConverterExitFailure(t *testing.T) {
	dir := t.TempDir()
	body := `if [ "$1" = "-version" ]; then exit 0; fi
for out; do :; done
echo "in.mp3: invalid data found" > "$out"
echo "in.mp3: invalid data found" >&2
exit 1
`
	bin, _ := fakeFFmpeg(t, dir, body)

	input := filepath.Join(dir, "in.mp3")
	if err := os.WriteFile(input, []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	f := NewFFmpeg(bin, audio.SampleRate, time.Second)
	_, _, err := f.Normalize(input)
	if !errors.Is(err, ErrConversionFailed) {
		t.Fatalf("error = %v, want ErrConversionFailed", err)
	}
	if !strings.Contains(err.Error(), "invalid data found") {
		t.Errorf("error should carry converter output, got: %v", err)
	}
	// The partial output must not survive.
	if _, statErr := os.Stat(filepath.Join(dir, "in.tmp.wav")); !os.IsNotExist(statErr) {
		t.Error("partial output file left behind")
	}
}

func TestNormalizeInvalidOutputFormat(t *testing.T) {
	dir := t.TempDir()
	// The stand-in produces a 44.1 kHz file instead of the canonical rate.
	wrong := filepath.Join(dir, "wrong.wav")
	writeCanonicalWAV(t, wrong, 44100)
	body := `if [ "$1" = "-version" ]; then exit 0; fi
for out; do :; done
cp ` + wrong + ` "$out"
`
	bin, _ := fakeFFmpeg(t, dir, body)

	input := filepath.Join(dir, "in.ogg")
	if err := os.WriteFile(input, []byte("ogg bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	f := NewFFmpeg(bin, audio.SampleRate, time.Second)
	_, _, err := f.Normalize(input)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("error = %v, want ErrInvalidFormat", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "in.tmp.wav")); !os.IsNotExist(statErr) {
		t.Error("rejected output file left behind")
	}
}

func TestProbeMissingBinary(t *testing.T) {
	f := NewFFmpeg(filepath.Join(t.TempDir(), "no-ffmpeg"), audio.SampleRate, time.Second)
	err := f.Probe()
	if !errors.Is(err, ErrConversionFailed) {
		t.Fatalf("error = %v, want ErrConversionFailed", err)
	}
	if !strings.Contains(err.Error(), "install ffmpeg") {
		t.Errorf("error should be actionable, got: %v", err)
	}
}

func TestProbeHungBinaryKilledWithinTimeout(t *testing.T) {
	dir := t.TempDir()
	bin, _ := fakeFFmpeg(t, dir, "exec sleep 30\n")

	f := NewFFmpeg(bin, audio.SampleRate, 200*time.Millisecond)
	start := time.Now()
	err := f.Probe()
	elapsed := time.Since(start)

	if !errors.Is(err, ErrConversionFailed) {
		t.Fatalf("error = %v, want ErrConversionFailed", err)
	}
	if !strings.Contains(err.Error(), "did not respond") {
		t.Errorf("error should mention the timeout, got: %v", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("probe took %v, hung process was not killed", elapsed)
	}
}

func TestNewFFmpegDefaults(t *testing.T) {
	f := NewFFmpeg("", 0, 0)
	if f.Binary != "ffmpeg" {
		t.Errorf("Binary = %q, want ffmpeg", f.Binary)
	}
	if f.SampleRate != audio.SampleRate {
		t.Errorf("SampleRate = %d, want %d", f.SampleRate, audio.SampleRate)
	}
	if f.ProbeTimeout != defaultProbeTimeout {
		t.Errorf("ProbeTimeout = %v, want %v", f.ProbeTimeout, defaultProbeTimeout)
	}
}

func TestTempOutputPath(t *testing.T) {
	if got := tempOutputPath("/a/b/song.mp3"); got != "/a/b/song.tmp.wav" {
		t.Errorf("tempOutputPath = %q", got)
	}
	if got := tempOutputPath("noext"); got != "noext.tmp.wav" {
		t.Errorf("tempOutputPath = %q", got)
	}
}
