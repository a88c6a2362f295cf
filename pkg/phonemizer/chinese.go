package phonemizer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mozillazg/go-pinyin"
)

// PinyinConverter is the external grapheme-to-pinyin collaborator for
// Chinese text. It returns one entry per input rune: a tone-numbered pinyin
// syllable (e.g. "hang2") for a Han character, or the empty string for
// anything else (punctuation, latin, digits after expansion).
type PinyinConverter interface {
	Convert(ctx context.Context, text string) ([]string, error)
}

// Chinese phonemizes Mandarin text into initial/final/tone triples plus
// pause symbols. It implements [Backend]; the voice tag is ignored.
//
// A syllable like "hang2" becomes the tokens "h", "ang", "2"; a zero-initial
// syllable like "ai3" becomes "Ø", "ai", "3". Numbers are expanded to
// Chinese words before conversion.
type Chinese struct {
	conv PinyinConverter
	log  *slog.Logger
}

// NewChinese creates a Chinese phonemizer. A nil converter selects the
// built-in go-pinyin fallback; a nil logger uses slog.Default.
func NewChinese(conv PinyinConverter, log *slog.Logger) *Chinese {
	if conv == nil {
		conv = GoPinyinConverter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Chinese{conv: conv, log: log}
}

// Must be sorted longest to shortest so "zh" wins over "z".
var pinyinInitials = []string{
	"zh", "ch", "sh",
	"b", "p", "m", "f", "d", "t", "n", "l", "g", "k", "h",
	"j", "q", "x", "r", "z", "c", "s", "y", "w",
}

// ZeroInitial marks a syllable with no initial consonant.
const ZeroInitial = "Ø"

var quoteRunes = regexp.MustCompile(`[“”"]`)

// Phonemize converts text into phoneme tokens. One input yields one token
// sequence; sentence punctuation stays inline as pause symbols.
func (c *Chinese) Phonemize(ctx context.Context, text, _ string) ([]string, error) {
	text = quoteRunes.ReplaceAllString(text, "")
	text = chineseNumbersToWords(text)

	sylls, err := c.conv.Convert(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("pinyin conversion: %w", err)
	}

	runes := []rune(text)
	if len(sylls) != len(runes) {
		return nil, fmt.Errorf("pinyin conversion returned %d syllables for %d runes", len(sylls), len(runes))
	}

	var tokens []string
	for i, syl := range sylls {
		if syl == "" {
			// Not a Han character. Keep it only if it is a known pause
			// or other mapped symbol.
			tok := string(runes[i])
			if _, ok := chineseIDMap[tok]; ok {
				tokens = append(tokens, tok)
			}
			continue
		}

		syl = normalizeSyllable(syl)
		ini, fin, tone := splitInitialFinalTone(syl)
		if fin == "" {
			// Not a normal pinyin syllable; pass through verbatim.
			c.log.Debug("passing non-pinyin syllable through", "syllable", syl)
			tokens = append(tokens, syl)
			continue
		}
		if ini == "" {
			ini = ZeroInitial
		}
		tokens = append(tokens, ini, fin, tone)
	}
	return tokens, nil
}

var toneSyllable = regexp.MustCompile(`^([a-züv:]+?)([1-5])$`)

// normalizeSyllable maps converter output to the ASCII-friendly ü form:
// "nu:3" and "nü3" both become "nv3", "lu:e4" becomes "lve4".
func normalizeSyllable(syl string) string {
	m := toneSyllable.FindStringSubmatch(syl)
	if m == nil {
		return syl
	}
	base := strings.ReplaceAll(m[1], "u:", "v")
	base = strings.ReplaceAll(base, "ü", "v")
	return base + m[2]
}

var splitSyllable = regexp.MustCompile(`^([a-zvü]+?)([1-5])$`)

// splitInitialFinalTone decomposes "hang2" into ("h", "ang", "2") and
// "ai3" into ("", "ai", "3"). Non-pinyin input yields empty strings.
func splitInitialFinalTone(syl string) (ini, fin, tone string) {
	m := splitSyllable.FindStringSubmatch(syl)
	if m == nil {
		return "", "", ""
	}
	base, tone := m[1], m[2]

	for _, cand := range pinyinInitials {
		if strings.HasPrefix(base, cand) {
			ini = cand
			break
		}
	}
	// fin may come back empty ("n4"): the caller passes such syllables
	// through verbatim.
	fin = strings.TrimPrefix(base, ini)
	return ini, fin, tone
}

// GoPinyinConverter is the built-in PinyinConverter using go-pinyin's
// dictionary lookup. It has no model asset to load, so it always works, at
// the cost of ignoring sentence context for heteronyms.
type GoPinyinConverter struct{}

func (GoPinyinConverter) Convert(_ context.Context, text string) ([]string, error) {
	args := pinyin.NewArgs()
	args.Style = pinyin.Tone3
	// Non-Han runes convert to an empty marker.
	args.Fallback = func(r rune, a pinyin.Args) []string {
		return []string{""}
	}

	out := pinyin.Pinyin(text, args)
	sylls := make([]string, 0, len(out))
	for _, alts := range out {
		syl := ""
		if len(alts) > 0 {
			syl = alts[0]
		}
		if syl != "" && !toneSyllable.MatchString(syl) {
			// Neutral tone comes back bare ("le", "de"); mark tone 5.
			syl += "5"
		}
		sylls = append(sylls, syl)
	}
	return sylls, nil
}
