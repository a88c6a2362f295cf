package phonemes

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestEncodeLayout(t *testing.T) {
	m := DefaultIDMap()
	tokens := []string{"h", "ɛ", "l", "o", "ʊ"}

	ids, err := Encode(tokens, EncodeOptions{Map: m, UnknownID: -1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := []int64{BosID}
	for _, tok := range tokens {
		want = append(want, PadID, m[tok][0])
	}
	want = append(want, PadID, EosID)

	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("Encode = %v, want %v", ids, want)
	}

	// The fixed layout: BOS, then PAD before each content id, trailing PAD,
	// EOS. Length is 2n+3 for n single-id tokens.
	if len(ids) != 2*len(tokens)+3 {
		t.Fatalf("len = %d, want %d", len(ids), 2*len(tokens)+3)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	tokens := []string{"ð", "ɛ", "ɚ"}
	a, err := Encode(tokens, DefaultEncodeOptions())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode(tokens, DefaultEncodeOptions())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Encode not deterministic: %v vs %v", a, b)
	}
}

func TestRoundTrip(t *testing.T) {
	m := DefaultIDMap()
	cases := [][]string{
		{"h", "ɛ", "l", "o", "ʊ", "ð", "ɛ", "ɚ"},
		{"a"},
		{"ˈ", "k", "æ", "t", "."},
		{" ", "!", "?"},
	}
	for _, tokens := range cases {
		ids, err := Encode(tokens, EncodeOptions{Map: m, UnknownID: -1})
		if err != nil {
			t.Fatalf("Encode(%v): %v", tokens, err)
		}
		got := Decode(ids, m)
		if !reflect.DeepEqual(got, tokens) {
			t.Fatalf("Decode(Encode(%v)) = %v", tokens, got)
		}
	}
}

func TestEncodeUnknownPhoneme(t *testing.T) {
	_, err := Encode([]string{"h", "☂"}, DefaultEncodeOptions())
	var unk *UnknownPhonemeError
	if !errors.As(err, &unk) {
		t.Fatalf("expected UnknownPhonemeError, got %v", err)
	}
	if unk.Phoneme != "☂" {
		t.Fatalf("Phoneme = %q", unk.Phoneme)
	}
}

func TestEncodeUnknownMapped(t *testing.T) {
	m := DefaultIDMap()
	ids, err := Encode([]string{"☂"}, EncodeOptions{Map: m, UnknownID: 200})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []int64{BosID, PadID, 200, PadID, EosID}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("Encode = %v, want %v", ids, want)
	}
}

func TestEncodeEmpty(t *testing.T) {
	if _, err := Encode(nil, DefaultEncodeOptions()); !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("expected ErrEmptySequence, got %v", err)
	}
}

func TestLoadIDMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.json")
	content := `{"_":[0],"^":[1],"$":[2],"a":[3],"b":[4,5]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadIDMap(path)
	if err != nil {
		t.Fatalf("LoadIDMap: %v", err)
	}
	if got := m["b"]; !reflect.DeepEqual(got, []int64{4, 5}) {
		t.Fatalf(`m["b"] = %v`, got)
	}
	if m.MaxID() != 5 {
		t.Fatalf("MaxID = %d", m.MaxID())
	}
	if m.NumSymbols() != DefaultNumSymbols {
		t.Fatalf("NumSymbols = %d, want %d", m.NumSymbols(), DefaultNumSymbols)
	}
}

func TestLoadIDMapMissing(t *testing.T) {
	if _, err := LoadIDMap(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNumSymbolsAboveDefault(t *testing.T) {
	m := IDMap{"a": {300}}
	if m.NumSymbols() != 301 {
		t.Fatalf("NumSymbols = %d, want 301", m.NumSymbols())
	}
}

func TestRoundTripMultiIDTokens(t *testing.T) {
	m := IDMap{
		Pad:  {0},
		Bos:  {1},
		Eos:  {2},
		"ab": {5, 6},
		"c":  {7},
	}
	tokens := []string{"ab", "c"}
	ids, err := Encode(tokens, EncodeOptions{Map: m, UnknownID: -1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []int64{1, 0, 5, 6, 0, 7, 0, 2}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("Encode(%v) = %v, want %v", tokens, ids, want)
	}
	if got := Decode(ids, m); !reflect.DeepEqual(got, tokens) {
		t.Fatalf("Decode(%v) = %v, want %v", ids, got, tokens)
	}
}

func TestFingerprint(t *testing.T) {
	a := DefaultIDMap()
	b := DefaultIDMap()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("identical maps fingerprint differently")
	}
	b["a"], b["b"] = b["b"], b["a"]
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("swapped ids did not change fingerprint")
	}
}
