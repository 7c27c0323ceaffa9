package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wavHeader mirrors the fixed 44-byte layout of a standard PCM WAV file.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32
	AudioFormat   uint16 // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// Format describes the measured layout of an audio file.
type Format struct {
	PCM           bool
	Channels      int
	SampleRate    int
	BitsPerSample int
	DataBytes     int
}

// Canonical reports whether the format matches the decoder's required
// layout at the given sample rate. WAV PCM is little-endian by definition,
// so byte order needs no separate field.
func (f Format) Canonical(sampleRate int) bool {
	return f.PCM &&
		f.Channels == Channels &&
		f.BitsPerSample == BitsPerSample &&
		f.SampleRate == sampleRate
}

// ProbeWAV reads and validates the header of a WAV file and returns its
// measured format. It never trusts the file extension.
func ProbeWAV(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	raw := make([]byte, WAVHeaderSize)
	if _, err := io.ReadFull(f, raw); err != nil {
		return Format{}, fmt.Errorf("%s: too short for a WAV header: %w", path, err)
	}

	var h wavHeader
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &h); err != nil {
		return Format{}, fmt.Errorf("%s: reading WAV header: %w", path, err)
	}

	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" {
		return Format{}, fmt.Errorf("%s: not a WAV file", path)
	}
	if string(h.Subchunk1ID[:]) != "fmt " {
		return Format{}, fmt.Errorf("%s: missing fmt chunk", path)
	}
	if string(h.Subchunk2ID[:]) != "data" {
		return Format{}, fmt.Errorf("%s: missing data chunk", path)
	}

	return Format{
		PCM:           h.AudioFormat == 1,
		Channels:      int(h.NumChannels),
		SampleRate:    int(h.SampleRate),
		BitsPerSample: int(h.BitsPerSample),
		DataBytes:     int(h.Subchunk2Size),
	}, nil
}

// OpenPCM opens a WAV file positioned at the start of its sample data.
func OpenPCM(path string) (io.ReadCloser, error) {
	if _, err := ProbeWAV(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := f.Seek(WAVHeaderSize, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seeking past WAV header: %w", err)
	}
	return f, nil
}

// WriteWAV writes canonical-layout PCM bytes as a WAV file. Used by tests
// and by the doctor's capture check.
func WriteWAV(path string, pcm []byte, sampleRate int) error {
	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   Channels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * BytesPerFrame),
		BlockAlign:    BytesPerFrame,
		BitsPerSample: BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}
	buf := bytes.NewBuffer(make([]byte, 0, WAVHeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("writing WAV header: %w", err)
	}
	buf.Write(pcm)
	return os.WriteFile(path, buf.Bytes(), 0644)
}
