package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"murmur/audio"
)

// Config represents the complete application configuration.
type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Model   ModelConfig   `yaml:"model"`
	Convert ConvertConfig `yaml:"convert"`
	Logging LoggingConfig `yaml:"logging"`
}

// AudioConfig contains capture and decoding parameters.
type AudioConfig struct {
	SampleRate  int `yaml:"sample_rate"`
	Channels    int `yaml:"channels"`
	BitDepth    int `yaml:"bit_depth"`
	ChunkSize   int `yaml:"chunk_size"`    // bytes fed to the decoder per call
	IdleSleepMs int `yaml:"idle_sleep_ms"` // wait when capture returns no data
}

// ModelConfig locates the speech model directory.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// ConvertConfig configures the external audio converter.
type ConvertConfig struct {
	FFmpegPath      string `yaml:"ffmpeg_path"`
	ProbeTimeoutSec int    `yaml:"probe_timeout"` // seconds
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate:  audio.SampleRate,
			Channels:    audio.Channels,
			BitDepth:    audio.BitsPerSample,
			ChunkSize:   audio.DefaultChunkSize,
			IdleSleepMs: 10,
		},
		Model: ModelConfig{
			Path: "model",
		},
		Convert: ConvertConfig{
			FFmpegPath:      "ffmpeg",
			ProbeTimeoutSec: 3,
		},
	}
}

// Load reads and parses the configuration file. An empty path or a missing
// file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate applies defaults and rejects values the decoder cannot work with.
func (c *Config) Validate() error {
	def := Default()

	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = def.Audio.SampleRate
	}
	if c.Audio.SampleRate < 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = def.Audio.Channels
	}
	if c.Audio.Channels != audio.Channels {
		return fmt.Errorf("audio.channels must be %d (mono), got %d", audio.Channels, c.Audio.Channels)
	}
	if c.Audio.BitDepth == 0 {
		c.Audio.BitDepth = def.Audio.BitDepth
	}
	if c.Audio.BitDepth != audio.BitsPerSample {
		return fmt.Errorf("audio.bit_depth must be %d, got %d", audio.BitsPerSample, c.Audio.BitDepth)
	}
	if c.Audio.ChunkSize == 0 {
		c.Audio.ChunkSize = def.Audio.ChunkSize
	}
	if c.Audio.ChunkSize < 0 {
		return fmt.Errorf("audio.chunk_size must be positive, got %d", c.Audio.ChunkSize)
	}
	if c.Audio.IdleSleepMs <= 0 {
		c.Audio.IdleSleepMs = def.Audio.IdleSleepMs
	}
	if c.Convert.FFmpegPath == "" {
		c.Convert.FFmpegPath = def.Convert.FFmpegPath
	}
	if c.Convert.ProbeTimeoutSec <= 0 {
		c.Convert.ProbeTimeoutSec = def.Convert.ProbeTimeoutSec
	}
	if c.Model.Path == "" {
		c.Model.Path = def.Model.Path
	}
	return nil
}
