//go:build vosk

package vosk

import (
	"fmt"

	vosklib "github.com/alphacep/vosk-api/go"
)

func init() {
	// Quiet the native library's kaldi log spam.
	vosklib.SetLogLevel(-1)
}

type nativeModel struct {
	m *vosklib.VoskModel
}

func loadModel(path string) (model, error) {
	m, err := vosklib.NewModel(path)
	if err != nil {
		return nil, err
	}
	return &nativeModel{m: m}, nil
}

func (n *nativeModel) newRecognizer(sampleRate float64) (Recognizer, error) {
	r, err := vosklib.NewRecognizer(n.m, sampleRate)
	if err != nil {
		return nil, err
	}
	return &nativeRecognizer{r: r}, nil
}

func (n *nativeModel) free() {
	n.m.Free()
}

type nativeRecognizer struct {
	r *vosklib.VoskRecognizer
}

func (n *nativeRecognizer) AcceptWaveform(buf []byte) (bool, error) {
	state := n.r.AcceptWaveform(buf)
	if state < 0 {
		return false, fmt.Errorf("engine rejected waveform (state %d)", state)
	}
	return state == 1, nil
}

func (n *nativeRecognizer) Result() string {
	return string(n.r.Result())
}

func (n *nativeRecognizer) PartialResult() string {
	return string(n.r.PartialResult())
}

func (n *nativeRecognizer) FinalResult() string {
	return string(n.r.FinalResult())
}

func (n *nativeRecognizer) Close() {
	n.r.Free()
}
