package transcriber

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"murmur/log"
)

var audioExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".m4b":  true,
	".mp4":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".wma":  true,
}

// FileResult is the outcome for one file of a batch run.
type FileResult struct {
	Path string
	Text string
	Err  error
}

// TranscribeDir runs the file pipeline over every supported audio file in
// dir. A failing file is reported in its result and does not abort the
// scan.
func (f *File) TranscribeDir(dir string) ([]FileResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var results []FileResult
	for _, e := range entries {
		if e.IsDir() || !audioExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		path := filepath.Join(dir, e.Name())
		text, err := f.Transcribe(path)
		if err != nil {
			log.Errorf("transcription failed for %s: %v", path, err)
		}
		results = append(results, FileResult{Path: path, Text: text, Err: err})
	}
	return results, nil
}
