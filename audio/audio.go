package audio

// Canonical PCM layout expected by the decoder: mono, 16-bit signed
// little-endian samples.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BytesPerFrame = Channels * BitsPerSample / 8

	// DefaultChunkSize is the feed unit for the decoder, in bytes.
	DefaultChunkSize = 4096
)

// WAVHeaderSize is the size of a standard PCM WAV header.
const WAVHeaderSize = 44

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}

// Source is a sequential reader of canonical PCM bytes. Read may return
// (0, nil) when no audio is currently available; callers are expected to
// back off briefly before retrying. Close is idempotent.
type Source interface {
	Open() error
	Read(buf []byte) (int, error)
	Close() error
}
