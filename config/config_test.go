package config

import (
	"os"
	"path/filepath"
	"testing"

	"murmur/audio"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Audio.SampleRate != audio.SampleRate {
		t.Errorf("SampleRate = %d, want %d", cfg.Audio.SampleRate, audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Errorf("Channels = %d, want 1", cfg.Audio.Channels)
	}
	if cfg.Audio.ChunkSize != audio.DefaultChunkSize {
		t.Errorf("ChunkSize = %d, want %d", cfg.Audio.ChunkSize, audio.DefaultChunkSize)
	}
	if cfg.Convert.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want ffmpeg", cfg.Convert.FFmpegPath)
	}
	if cfg.Convert.ProbeTimeoutSec != 3 {
		t.Errorf("ProbeTimeoutSec = %d, want 3", cfg.Convert.ProbeTimeoutSec)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murmur.yaml")
	data := `
audio:
  sample_rate: 8000
  chunk_size: 2048
model:
  path: /opt/models/en-us
convert:
  ffmpeg_path: /usr/local/bin/ffmpeg
  probe_timeout: 5
logging:
  dir: /tmp/murmur-logs
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.ChunkSize != 2048 {
		t.Errorf("ChunkSize = %d, want 2048", cfg.Audio.ChunkSize)
	}
	// Omitted values are filled from the defaults.
	if cfg.Audio.Channels != 1 {
		t.Errorf("Channels = %d, want 1", cfg.Audio.Channels)
	}
	if cfg.Audio.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", cfg.Audio.BitDepth)
	}
	if cfg.Model.Path != "/opt/models/en-us" {
		t.Errorf("Model.Path = %q", cfg.Model.Path)
	}
	if cfg.Convert.FFmpegPath != "/usr/local/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.Convert.FFmpegPath)
	}
	if cfg.Convert.ProbeTimeoutSec != 5 {
		t.Errorf("ProbeTimeoutSec = %d, want 5", cfg.Convert.ProbeTimeoutSec)
	}
	if cfg.Logging.Dir != "/tmp/murmur-logs" {
		t.Errorf("Logging.Dir = %q", cfg.Logging.Dir)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("audio: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidateRejectsNonMono(t *testing.T) {
	cfg := Default()
	cfg.Audio.Channels = 2
	if err := cfg.Validate(); err == nil {
		t.Error("stereo config should be rejected")
	}
}

func TestValidateRejectsWrongBitDepth(t *testing.T) {
	cfg := Default()
	cfg.Audio.BitDepth = 8
	if err := cfg.Validate(); err == nil {
		t.Error("8-bit config should be rejected")
	}
}

func TestValidateRejectsNegativeRate(t *testing.T) {
	cfg := Default()
	cfg.Audio.SampleRate = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative sample rate should be rejected")
	}
}

func TestValidateFillsZeroes(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}
