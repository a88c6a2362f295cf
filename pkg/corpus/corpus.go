// Package corpus reads the delimited training metadata file, turning
// each row into a typed utterance record and driving the downstream
// pipeline: phonemization, audio feature extraction and the sample
// cache. Speaker ids are assigned in the order rows are read, so the
// scan reads sequentially even though per-row work fans out to a
// worker pool.
package corpus

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sheldonrobinson/piper1-gpl/pkg/phonemizer"
)

// Delimiter separates columns in the metadata file.
const Delimiter = "|"

// Format describes the column layout of a metadata file. The layout
// depends on the phonemization mode and on whether rows carry a
// speaker column:
//
//	single-speaker text modes:  audio_path|text
//	multi-speaker text modes:   audio_path|speaker|text
//	single-speaker id mode:     audio_path|text|ids
//	multi-speaker id mode:      audio_path|speaker|text|ids
type Format struct {
	Mode         phonemizer.Mode
	MultiSpeaker bool
}

// Columns returns the exact number of columns a row must have.
func (f Format) Columns() int {
	n := 2
	if f.MultiSpeaker {
		n++
	}
	if f.Mode == phonemizer.ModeIDs {
		n++
	}
	return n
}

// FormatError reports a row whose column count does not match the
// configured layout. Any occurrence aborts the scan: a wrong column
// count almost always means the whole file is in a different layout
// than configured, and silently misreading columns would corrupt
// speaker assignment.
type FormatError struct {
	Line int
	Got  int
	Want int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("corpus: line %d has %d columns, layout requires %d", e.Line, e.Got, e.Want)
}

// Utterance is one parsed metadata row.
type Utterance struct {
	// Line is the 1-based line number in the metadata file.
	Line int

	// AudioPath is the audio file column, as written in the file.
	AudioPath string

	// Speaker is the speaker name, empty for single-speaker layouts.
	Speaker string

	// Text is the raw text column.
	Text string

	// RawIDs holds the space-separated id column in id mode.
	RawIDs string
}

// ID returns the utterance identity used for cache keys and reporting,
// the audio filename without its extension.
func (u *Utterance) ID() string {
	base := filepath.Base(u.AudioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseLine splits one metadata row according to the format. Rows with
// the wrong number of columns fail with *FormatError.
func (f Format) ParseLine(lineNo int, line string) (*Utterance, error) {
	cols := strings.Split(line, Delimiter)
	if len(cols) != f.Columns() {
		return nil, &FormatError{Line: lineNo, Got: len(cols), Want: f.Columns()}
	}

	u := &Utterance{Line: lineNo, AudioPath: cols[0]}
	rest := cols[1:]
	if f.MultiSpeaker {
		u.Speaker = rest[0]
		rest = rest[1:]
	}
	u.Text = rest[0]
	if f.Mode == phonemizer.ModeIDs {
		u.RawIDs = rest[1]
	}
	return u, nil
}
