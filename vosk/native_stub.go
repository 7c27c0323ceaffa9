//go:build !vosk

package vosk

// Default stub (no cgo) so the project builds without the vosk tag. It
// accepts any waveform and hears only silence.

type stubModel struct{}

func loadModel(path string) (model, error) {
	return &stubModel{}, nil
}

func (s *stubModel) newRecognizer(sampleRate float64) (Recognizer, error) {
	return &stubRecognizer{}, nil
}

func (s *stubModel) free() {}

type stubRecognizer struct{}

func (r *stubRecognizer) AcceptWaveform(buf []byte) (bool, error) { return false, nil }
func (r *stubRecognizer) Result() string                          { return `{"text": ""}` }
func (r *stubRecognizer) PartialResult() string                   { return `{"partial": ""}` }
func (r *stubRecognizer) FinalResult() string                     { return `{"text": ""}` }
func (r *stubRecognizer) Close()                                  {}
