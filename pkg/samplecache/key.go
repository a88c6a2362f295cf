package samplecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// KeyParams captures every input that affects an utterance's derived
// artifacts. Two runs with identical params produce identical keys; any
// change to the phonemization strategy or audio processing yields a new key
// and naturally invalidates the old entry.
type KeyParams struct {
	// UtteranceID identifies the utterance, normally its audio path.
	UtteranceID string

	// Text is the raw text (or raw id string) column for the utterance.
	Text string

	// Strategy is the phonemization mode fingerprint, e.g. "espeak".
	Strategy string

	// Voice is the phonemizer voice/language tag, if any.
	Voice string

	// SampleRate is the target audio sample rate.
	SampleRate int

	// NumSymbols bounds the id vocabulary.
	NumSymbols int64

	// Extra holds any additional parameters that affect derived output
	// (mel settings, trim thresholds). Hashed in sorted key order.
	Extra map[string]string
}

// Key returns the deterministic content hash for the params, as lowercase
// hex. The canonical encoding length-prefixes each field so no two distinct
// param sets collide by concatenation.
func (p KeyParams) Key() string {
	var b strings.Builder
	writeField := func(s string) {
		fmt.Fprintf(&b, "%d:%s;", len(s), s)
	}
	writeField(p.UtteranceID)
	writeField(p.Text)
	writeField(p.Strategy)
	writeField(p.Voice)
	writeField(fmt.Sprintf("%d", p.SampleRate))
	writeField(fmt.Sprintf("%d", p.NumSymbols))

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeField(k)
		writeField(p.Extra[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
