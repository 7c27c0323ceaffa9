package transcriber

import (
	"fmt"
	"io"
	"os"
	"strings"

	"murmur/audio"
	"murmur/convert"
	"murmur/log"
	"murmur/vosk"
)

// FileConfig tunes the file pipeline.
type FileConfig struct {
	SampleRate int
	ChunkSize  int
}

// File transcribes finite audio files: normalize, validate, stream in
// fixed-size chunks, flush. Synchronous and bounded by input length.
type File struct {
	factory   RecognizerFactory
	converter convert.Converter
	cfg       FileConfig
}

func NewFile(factory RecognizerFactory, converter convert.Converter, cfg FileConfig) *File {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.SampleRate
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = audio.DefaultChunkSize
	}
	return &File{factory: factory, converter: converter, cfg: cfg}
}

// Transcribe implements Transcriber. An empty transcript is a valid result
// (no detected speech), not an error. The temporary converted file, if one
// was produced, is removed on every path out.
func (f *File) Transcribe(path string) (string, error) {
	log.Infof("transcribing file: %s", path)

	wavPath, temporary, err := f.converter.Normalize(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if !temporary {
			return
		}
		if rmErr := os.Remove(wavPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warnf("could not remove temp file %s: %v", wavPath, rmErr)
		}
	}()

	format, err := audio.ProbeWAV(wavPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", convert.ErrInvalidFormat, err)
	}
	if !format.Canonical(f.cfg.SampleRate) {
		return "", fmt.Errorf("%w: %s", convert.ErrInvalidFormat, wavPath)
	}

	stream, err := audio.OpenPCM(wavPath)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	rec, err := f.factory.NewRecognizer(float64(f.cfg.SampleRate))
	if err != nil {
		return "", err
	}
	defer rec.Close()

	var phrases []string
	buf := make([]byte, f.cfg.ChunkSize)
	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			boundary, feedErr := rec.AcceptWaveform(buf[:n])
			if feedErr != nil {
				return "", fmt.Errorf("%w: %v", ErrDecodeFault, feedErr)
			}
			if boundary {
				if text := vosk.TextOf(rec.Result()); text != "" {
					phrases = append(phrases, text)
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("reading audio stream: %w", readErr)
		}
	}

	if text := vosk.TextOf(rec.FinalResult()); text != "" {
		phrases = append(phrases, text)
	}

	transcript := strings.Join(phrases, " ")
	log.Infof("file done: %d phrases, %d chars", len(phrases), len(transcript))
	return transcript, nil
}

// Stop implements Transcriber. File transcription is synchronous and fully
// controlled by Transcribe, so this is a no-op.
func (f *File) Stop() {}
