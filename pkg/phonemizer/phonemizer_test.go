package phonemizer_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sheldonrobinson/piper1-gpl/pkg/phonemes"
	"github.com/sheldonrobinson/piper1-gpl/pkg/phonemizer"
)

// fakeBackend phonemizes by splitting text into lowercase letter runes,
// recording every span it was asked to phonemize.
type fakeBackend struct {
	calls []string
	err   error
}

func (f *fakeBackend) Phonemize(_ context.Context, text, voice string) ([]string, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	var tokens []string
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		if r == ' ' {
			continue
		}
		tokens = append(tokens, string(r))
	}
	return tokens, nil
}

func TestEspeakModeEncodesInterspersed(t *testing.T) {
	be := &fakeBackend{}
	sel, err := phonemizer.New(phonemizer.Config{Mode: phonemizer.ModeEspeak, Voice: "en-us"}, be)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ids, err := sel.IDs(context.Background(), phonemizer.Input{Text: "abc"})
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}

	m := phonemes.DefaultIDMap()
	want := []int64{
		phonemes.BosID,
		phonemes.PadID, m["a"][0],
		phonemes.PadID, m["b"][0],
		phonemes.PadID, m["c"][0],
		phonemes.PadID, phonemes.EosID,
	}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestLiteralSpansBypassBackend(t *testing.T) {
	be := &fakeBackend{}
	sel, err := phonemizer.New(phonemizer.Config{Mode: phonemizer.ModeEspeak}, be)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tokens, err := sel.Phonemize(context.Background(), "ab [[ h ə l ]] cd")
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}

	// One utterance, one sequence: plain spans phonemized, the literal span
	// spliced through untouched, in order.
	want := []string{"a", "b", "h", "ə", "l", "c", "d"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	if len(be.calls) != 2 {
		t.Fatalf("backend called %d times, want 2 (per plain span)", len(be.calls))
	}
}

func TestLiteralOnlyUtterance(t *testing.T) {
	be := &fakeBackend{}
	sel, _ := phonemizer.New(phonemizer.Config{Mode: phonemizer.ModeEspeak}, be)

	tokens, err := sel.Phonemize(context.Background(), "[[ a b ]]")
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}
	if !reflect.DeepEqual(tokens, []string{"a", "b"}) {
		t.Fatalf("tokens = %v", tokens)
	}
	if len(be.calls) != 0 {
		t.Fatalf("backend called for literal-only utterance")
	}
}

func TestUnterminatedLiteral(t *testing.T) {
	be := &fakeBackend{}
	sel, _ := phonemizer.New(phonemizer.Config{Mode: phonemizer.ModeEspeak}, be)

	_, err := sel.IDs(context.Background(), phonemizer.Input{Text: "ab [[ h ə"})
	var perr *phonemizer.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected phonemizer.Error, got %v", err)
	}
}

func TestBackendFailureIsPhonemizationError(t *testing.T) {
	be := &fakeBackend{err: errors.New("model asset unavailable")}
	sel, _ := phonemizer.New(phonemizer.Config{Mode: phonemizer.ModeEspeak}, be)

	_, err := sel.IDs(context.Background(), phonemizer.Input{Text: "hi"})
	var perr *phonemizer.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected phonemizer.Error, got %v", err)
	}
	if perr.Mode != phonemizer.ModeEspeak {
		t.Fatalf("Mode = %s", perr.Mode)
	}
}

func TestTextModeNFD(t *testing.T) {
	sel, err := phonemizer.New(phonemizer.Config{
		Mode: phonemizer.ModeText,
		IDMap: phonemes.IDMap{
			phonemes.Pad: {0}, phonemes.Bos: {1}, phonemes.Eos: {2},
			"e": {10}, "́": {11}, // combining acute
		},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// "é" (precomposed) decomposes to "e" + combining acute: two tokens.
	ids, err := sel.IDs(context.Background(), phonemizer.Input{Text: "é"})
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	want := []int64{1, 0, 10, 0, 11, 0, 2}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestIDsModeVerbatim(t *testing.T) {
	sel, err := phonemizer.New(phonemizer.Config{Mode: phonemizer.ModeIDs, NumSymbols: 256}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ids, err := sel.IDs(context.Background(), phonemizer.Input{RawIDs: "1 2 3"})
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	// No BOS/EOS/PAD: the list is taken verbatim.
	if !reflect.DeepEqual(ids, []int64{1, 2, 3}) {
		t.Fatalf("ids = %v, want [1 2 3]", ids)
	}
}

func TestParseIDsErrors(t *testing.T) {
	_, err := phonemizer.ParseIDs("1 two 3", 256)
	var malformed *phonemizer.MalformedIDError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedIDError, got %v", err)
	}

	_, err = phonemizer.ParseIDs("1 999", 256)
	var rangeErr *phonemizer.IDRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected IDRangeError, got %v", err)
	}
	if rangeErr.ID != 999 || rangeErr.NumSymbols != 256 {
		t.Fatalf("IDRangeError = %+v", rangeErr)
	}

	if _, err := phonemizer.ParseIDs("   ", 256); !errors.Is(err, phonemizer.ErrNoIDs) {
		t.Fatalf("expected ErrNoIDs, got %v", err)
	}

	// Unbounded when numSymbols is zero.
	if _, err := phonemizer.ParseIDs("99999", 0); err != nil {
		t.Fatalf("unbounded parse: %v", err)
	}
}

func TestChineseModeThroughSelector(t *testing.T) {
	zh := phonemizer.NewChinese(nil, nil) // go-pinyin fallback
	sel, err := phonemizer.New(phonemizer.Config{Mode: phonemizer.ModeChinese}, zh)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ids, err := sel.IDs(context.Background(), phonemizer.Input{Text: "你好"})
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	// 你 ni3 → n i 3 PAD, 好 hao3 → h ao 3 PAD, bracketed by BOS/EOS.
	want := []int64{
		phonemes.BosID,
		10, 39, 66, phonemes.PadID,
		14, 32, 66, phonemes.PadID,
		phonemes.EosID,
	}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestModeValidation(t *testing.T) {
	if _, err := phonemizer.New(phonemizer.Config{Mode: "bogus"}, nil); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := phonemizer.New(phonemizer.Config{Mode: phonemizer.ModeEspeak}, nil); err == nil {
		t.Fatal("expected error for missing backend")
	}
	if _, err := phonemizer.ParseMode("text"); err != nil {
		t.Fatalf("ParseMode(text): %v", err)
	}
}
