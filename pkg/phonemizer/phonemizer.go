// Package phonemizer turns corpus text into phoneme id sequences.
//
// Four mutually exclusive strategies are supported, selected by [Mode]:
//
//   - [ModeEspeak]: rule-based phonemization through an external espeak-ng
//     style backend, with an inline [[ ... ]] escape for literal phonemes.
//   - [ModeChinese]: pinyin-based phonemization for Chinese text through a
//     grapheme-to-pinyin converter (neural model or go-pinyin fallback).
//   - [ModeText]: no phonemizer at all; text is NFD-normalized and each
//     codepoint becomes one phoneme token.
//   - [ModeIDs]: the corpus supplies whitespace-separated ids verbatim,
//     bypassing encoding entirely.
//
// The mode set is closed: selection is an exhaustive switch, not open-ended
// polymorphism.
package phonemizer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sheldonrobinson/piper1-gpl/pkg/phonemes"
)

// Mode names a phonemization strategy.
type Mode string

const (
	ModeEspeak  Mode = "espeak"
	ModeChinese Mode = "chinese"
	ModeText    Mode = "text"
	ModeIDs     Mode = "ids"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEspeak, ModeChinese, ModeText, ModeIDs:
		return Mode(s), nil
	}
	return "", fmt.Errorf("phonemizer: unknown mode %q", s)
}

// Error is a per-record phonemization failure. The corpus scan logs it and
// skips the record unless strict mode is on.
type Error struct {
	Mode Mode
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("phonemizer: %s: %v", e.Mode, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errors for the precomputed-ids path. Malformed tokens and out-of-range ids
// are distinct kinds so the scan report can tell them apart.
var ErrNoIDs = errors.New("phonemizer: empty id list")

// MalformedIDError reports a token that is not an integer.
type MalformedIDError struct {
	Token string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("phonemizer: malformed phoneme id %q", e.Token)
}

// IDRangeError reports an id outside [0, NumSymbols).
type IDRangeError struct {
	ID         int64
	NumSymbols int64
}

func (e *IDRangeError) Error() string {
	return fmt.Sprintf("phonemizer: phoneme id %d out of range [0, %d)", e.ID, e.NumSymbols)
}

// Backend is the external grapheme-to-phoneme collaborator: it returns
// phoneme tokens for a span of text. Both the espeak adapter and the
// Chinese phonemizer satisfy it.
type Backend interface {
	Phonemize(ctx context.Context, text, voice string) ([]string, error)
}

// Config selects and parameterizes a strategy.
type Config struct {
	// Mode is the strategy. Required.
	Mode Mode

	// Voice is the language/voice tag handed to the backend (espeak mode).
	Voice string

	// IDMap overrides the default phoneme→id map. Nil selects the standard
	// map for the mode (the IPA map, or the pinyin map for chinese mode).
	IDMap phonemes.IDMap

	// NumSymbols bounds ids in ModeIDs. Zero derives the bound from the map.
	NumSymbols int64

	// AllowUnknown maps phonemes missing from the id map to UnknownID
	// instead of failing the record.
	AllowUnknown bool

	// UnknownID is the substitute id used when AllowUnknown is set.
	UnknownID int64
}

// Selector dispatches utterances to the configured strategy.
type Selector struct {
	cfg     Config
	backend Backend
	idMap   phonemes.IDMap
}

// New creates a Selector. backend is required for ModeEspeak and
// ModeChinese; pass nil for the other modes.
func New(cfg Config, backend Backend) (*Selector, error) {
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	idMap := cfg.IDMap
	if idMap == nil {
		if cfg.Mode == ModeChinese {
			idMap = ChineseIDMap()
		} else {
			idMap = phonemes.DefaultIDMap()
		}
	}
	switch cfg.Mode {
	case ModeEspeak, ModeChinese:
		if backend == nil {
			return nil, fmt.Errorf("phonemizer: mode %s requires a backend", cfg.Mode)
		}
	}
	return &Selector{cfg: cfg, backend: backend, idMap: idMap}, nil
}

// Mode returns the configured strategy.
func (s *Selector) Mode() Mode { return s.cfg.Mode }

// Voice returns the configured voice tag, empty for modes that do not
// use one.
func (s *Selector) Voice() string { return s.cfg.Voice }

// IDMap returns the active phoneme→id map.
func (s *Selector) IDMap() phonemes.IDMap { return s.idMap }

// NumSymbols returns the effective vocabulary bound.
func (s *Selector) NumSymbols() int64 {
	if s.cfg.NumSymbols > 0 {
		return s.cfg.NumSymbols
	}
	return s.idMap.NumSymbols()
}

// Input is one utterance's text payload. Exactly one field is consulted,
// depending on the mode: Text for the phonemizing modes, RawIDs for ModeIDs.
type Input struct {
	Text   string
	RawIDs string
}

// IDs produces the final phoneme id sequence for one utterance. One input
// always yields exactly one sequence, regardless of embedded literal spans
// or sentence punctuation.
func (s *Selector) IDs(ctx context.Context, in Input) ([]int64, error) {
	switch s.cfg.Mode {
	case ModeEspeak:
		tokens, err := s.phonemizeWithLiterals(ctx, in.Text)
		if err != nil {
			return nil, &Error{Mode: s.cfg.Mode, Err: err}
		}
		return s.encode(tokens)

	case ModeChinese:
		tokens, err := s.backend.Phonemize(ctx, in.Text, s.cfg.Voice)
		if err != nil {
			return nil, &Error{Mode: s.cfg.Mode, Err: err}
		}
		return ChinesePhonemesToIDs(tokens, s.idMap), nil

	case ModeText:
		return s.encode(textTokens(in.Text))

	case ModeIDs:
		return ParseIDs(in.RawIDs, s.NumSymbols())
	}
	// Unreachable: New validates the mode.
	return nil, fmt.Errorf("phonemizer: unknown mode %q", s.cfg.Mode)
}

// Phonemize returns the phoneme tokens for text under the current mode.
// Only valid for the phonemizing modes.
func (s *Selector) Phonemize(ctx context.Context, text string) ([]string, error) {
	switch s.cfg.Mode {
	case ModeEspeak:
		return s.phonemizeWithLiterals(ctx, text)
	case ModeChinese:
		return s.backend.Phonemize(ctx, text, s.cfg.Voice)
	case ModeText:
		return textTokens(text), nil
	}
	return nil, fmt.Errorf("phonemizer: mode %s does not produce phonemes", s.cfg.Mode)
}

func (s *Selector) encode(tokens []string) ([]int64, error) {
	unknown := int64(-1)
	if s.cfg.AllowUnknown {
		unknown = s.cfg.UnknownID
	}
	ids, err := phonemes.Encode(tokens, phonemes.EncodeOptions{
		Map:       s.idMap,
		UnknownID: unknown,
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// textTokens implements ModeText: canonical decomposition, one token per
// codepoint.
func textTokens(text string) []string {
	decomposed := norm.NFD.String(text)
	tokens := make([]string, 0, len(decomposed))
	for _, r := range decomposed {
		tokens = append(tokens, string(r))
	}
	return tokens
}

// ParseIDs implements ModeIDs: a whitespace-separated integer list taken
// verbatim, with no BOS/EOS/PAD applied. numSymbols > 0 bounds the ids.
func ParseIDs(raw string, numSymbols int64) ([]int64, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, ErrNoIDs
	}
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, &MalformedIDError{Token: f}
		}
		if id < 0 || (numSymbols > 0 && id >= numSymbols) {
			return nil, &IDRangeError{ID: id, NumSymbols: numSymbols}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
