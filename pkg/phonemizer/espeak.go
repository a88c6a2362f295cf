package phonemizer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Literal phoneme span delimiters. Text between the markers is taken as
// whitespace-separated phoneme tokens and bypasses the backend for that
// span only. An utterance containing literal spans still yields exactly one
// phoneme sequence; the spans never split it.
const (
	literalOpen  = "[["
	literalClose = "]]"
)

// phonemizeWithLiterals splits text on literal spans, phonemizes the plain
// spans through the backend, and splices everything back together in order.
func (s *Selector) phonemizeWithLiterals(ctx context.Context, text string) ([]string, error) {
	var tokens []string
	rest := text
	for {
		open := strings.Index(rest, literalOpen)
		if open < 0 {
			break
		}
		closeIdx := strings.Index(rest[open+len(literalOpen):], literalClose)
		if closeIdx < 0 {
			return nil, fmt.Errorf("unterminated %s literal span", literalOpen)
		}

		plain := rest[:open]
		literal := rest[open+len(literalOpen) : open+len(literalOpen)+closeIdx]
		rest = rest[open+len(literalOpen)+closeIdx+len(literalClose):]

		if strings.TrimSpace(plain) != "" {
			phs, err := s.backend.Phonemize(ctx, plain, s.cfg.Voice)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, phs...)
		}
		tokens = append(tokens, strings.Fields(literal)...)
	}
	if strings.TrimSpace(rest) != "" {
		phs, err := s.backend.Phonemize(ctx, rest, s.cfg.Voice)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, phs...)
	}
	return tokens, nil
}

// ExecBackend shells out to an espeak-ng style binary for rule-based
// phonemization. The binary is invoked per span with -q (no audio) and
// --ipa; the IPA output is split into one token per codepoint, with
// whitespace collapsed to single space tokens.
type ExecBackend struct {
	// Binary is the phonemizer executable. Defaults to "espeak-ng".
	Binary string
}

func (b *ExecBackend) binary() string {
	if b.Binary != "" {
		return b.Binary
	}
	return "espeak-ng"
}

func (b *ExecBackend) Phonemize(ctx context.Context, text, voice string) ([]string, error) {
	args := []string{"-q", "--ipa"}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args, "--", text)

	out, err := exec.CommandContext(ctx, b.binary(), args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.binary(), err)
	}

	var tokens []string
	lastSpace := true
	for _, r := range strings.TrimSpace(string(out)) {
		switch {
		case r == '\n' || r == '\r' || r == ' ' || r == '\t':
			if !lastSpace {
				tokens = append(tokens, " ")
				lastSpace = true
			}
		default:
			tokens = append(tokens, string(r))
			lastSpace = false
		}
	}
	// Drop a trailing space token.
	if n := len(tokens); n > 0 && tokens[n-1] == " " {
		tokens = tokens[:n-1]
	}
	return tokens, nil
}
