package vosk

import (
	"encoding/json"
	"strings"
)

// The engine delivers results as small JSON payloads. An absent or empty
// field is valid (no speech), never an error.
type resultPayload struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

// TextOf extracts the committed text from a final-result payload.
func TextOf(raw string) string {
	var p resultPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return ""
	}
	return strings.TrimSpace(p.Text)
}

// PartialOf extracts the unstable in-progress text from a partial-result
// payload.
func PartialOf(raw string) string {
	var p resultPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return ""
	}
	return strings.TrimSpace(p.Partial)
}
