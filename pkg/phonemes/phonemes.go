// Package phonemes maps phoneme tokens to the integer id sequences consumed
// by the acoustic model.
//
// An id sequence produced by [Encode] always has the shape
//
//	[BOS, PAD, c1, PAD, c2, PAD, ..., PAD, cn, PAD, EOS]
//
// i.e. the sequence is bracketed by the begin/end markers and every content
// id is preceded by exactly one PAD, with one trailing PAD before EOS. The
// layout is a wire contract: checkpoints trained against it are only valid
// for sequences encoded the same way, so Encode must stay byte-reproducible
// across runs and platforms.
package phonemes

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Special marker phonemes. Their ids are fixed by convention and shared by
// every id map the pipeline produces.
const (
	Pad = "_" // interspersed between content ids
	Bos = "^" // begin of sequence
	Eos = "$" // end of sequence
)

// Marker ids under the default map.
const (
	PadID int64 = 0
	BosID int64 = 1
	EosID int64 = 2
)

// DefaultNumSymbols is the embedding table size assumed when no explicit
// symbol count is configured. The default id map occupies only the low ids;
// the remainder of the table is reserved.
const DefaultNumSymbols = 256

// IDMap is a bijective mapping from phoneme token to model ids. A token
// usually maps to a single id, but the slice form allows multi-id tokens,
// matching the on-disk voice config schema (phoneme_id_map).
type IDMap map[string][]int64

// ErrEmptySequence is returned when Encode is given no phonemes.
var ErrEmptySequence = errors.New("phonemes: empty phoneme sequence")

// UnknownPhonemeError reports a token that is absent from the id map.
type UnknownPhonemeError struct {
	Phoneme string
}

func (e *UnknownPhonemeError) Error() string {
	return fmt.Sprintf("phonemes: unknown phoneme %q", e.Phoneme)
}

// LoadIDMap reads a phoneme→id map from a JSON file. The file holds a single
// object of string keys to integer arrays, the same shape the voice config
// embeds verbatim.
func LoadIDMap(path string) (IDMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("phonemes: read id map: %w", err)
	}
	var m IDMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("phonemes: parse id map %s: %w", path, err)
	}
	return m, nil
}

// Fingerprint returns a stable content hash of the map. Two maps with the
// same tokens and ids always produce the same fingerprint; any difference
// in either yields a new one. Used in cache keys so swapping id maps
// invalidates derived entries.
func (m IDMap) Fingerprint() string {
	// encoding/json marshals map keys in sorted order, so the encoding
	// is canonical.
	data, err := json.Marshal(m)
	if err != nil {
		panic(fmt.Sprintf("phonemes: encode id map: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MaxID returns the largest id present in the map, or -1 for an empty map.
func (m IDMap) MaxID() int64 {
	max := int64(-1)
	for _, ids := range m {
		for _, id := range ids {
			if id > max {
				max = id
			}
		}
	}
	return max
}

// NumSymbols returns the symbol count implied by the map: MaxID+1, floored
// at DefaultNumSymbols so sparse maps keep the conventional table size.
func (m IDMap) NumSymbols() int64 {
	n := m.MaxID() + 1
	if n < DefaultNumSymbols {
		return DefaultNumSymbols
	}
	return n
}

// EncodeOptions configures Encode.
type EncodeOptions struct {
	// Map is the phoneme→id map. Required.
	Map IDMap

	// UnknownID, when >= 0, substitutes tokens missing from the map.
	// When negative (the default), a missing token fails with
	// UnknownPhonemeError.
	UnknownID int64
}

// DefaultEncodeOptions returns options using the default id map and loud
// failure on unknown tokens.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Map: DefaultIDMap(), UnknownID: -1}
}

// Encode converts a phoneme token sequence into the interspersed id layout.
// Identical inputs always yield identical output; cache keys and cross-run
// reproducibility depend on that.
func Encode(tokens []string, opts EncodeOptions) ([]int64, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptySequence
	}
	m := opts.Map

	bos, ok := m[Bos]
	if !ok {
		bos = []int64{BosID}
	}
	eos, ok := m[Eos]
	if !ok {
		eos = []int64{EosID}
	}
	pad, ok := m[Pad]
	if !ok {
		pad = []int64{PadID}
	}

	ids := make([]int64, 0, 2*len(tokens)+3)
	ids = append(ids, bos...)
	for _, tok := range tokens {
		tokIDs, ok := m[tok]
		if !ok {
			if opts.UnknownID < 0 {
				return nil, &UnknownPhonemeError{Phoneme: tok}
			}
			tokIDs = []int64{opts.UnknownID}
		}
		ids = append(ids, pad...)
		ids = append(ids, tokIDs...)
	}
	ids = append(ids, pad...)
	ids = append(ids, eos...)
	return ids, nil
}

// Decode strips the BOS/EOS/PAD markers from an encoded sequence and maps
// the content ids back to phoneme tokens. The interspersion layout places a
// marker between any two tokens, so the ids between consecutive markers are
// exactly one token's ids; each such group is matched against the map as a
// whole, which recovers multi-id tokens. A group that matches no token
// falls back to id-wise lookup. Where several tokens share an id sequence
// (punctuation aliases), the lexicographically smallest token is returned,
// so Decode is deterministic. Unmapped ids are skipped.
func Decode(ids []int64, m IDMap) []string {
	rev := reverseIndex(m)
	markers := map[int64]bool{}
	for _, name := range []string{Pad, Bos, Eos} {
		for _, id := range m[name] {
			markers[id] = true
		}
	}

	var tokens []string
	var group []int64
	flush := func() {
		if len(group) == 0 {
			return
		}
		if tok, ok := rev[seqKey(group)]; ok {
			tokens = append(tokens, tok)
		} else {
			for _, id := range group {
				if tok, ok := rev[strconv.FormatInt(id, 10)]; ok {
					tokens = append(tokens, tok)
				}
			}
		}
		group = group[:0]
	}
	for _, id := range ids {
		if markers[id] {
			flush()
			continue
		}
		group = append(group, id)
	}
	flush()
	return tokens
}

// seqKey renders an id sequence as a canonical string for reverse lookup.
func seqKey(ids []int64) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

// reverseIndex maps each entry's full id sequence back to its token,
// preferring the lexicographically smallest token when sequences collide.
func reverseIndex(m IDMap) map[string]string {
	names := make([]string, 0, len(m))
	for name := range m {
		if name == Pad || name == Bos || name == Eos {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	rev := make(map[string]string, len(names))
	for _, name := range names {
		key := seqKey(m[name])
		if _, exists := rev[key]; !exists {
			rev[key] = name
		}
	}
	return rev
}
