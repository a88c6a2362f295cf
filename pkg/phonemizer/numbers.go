package phonemizer

import (
	"regexp"
	"strings"
)

// Number expansion for Chinese text. Digits are rewritten to Chinese words
// before pinyin conversion so "123个" phonemizes like "一百二十三个".

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

var cnDigits = [...]string{"零", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

func chineseNumbersToWords(text string) string {
	return numberPattern.ReplaceAllStringFunc(text, numberToChineseWords)
}

func numberToChineseWords(s string) string {
	var b strings.Builder
	if strings.HasPrefix(s, "-") {
		b.WriteString("负")
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	b.WriteString(integerToChineseWords(intPart))
	if fracPart != "" {
		// Fraction digits are read one by one.
		b.WriteString("点")
		for _, r := range fracPart {
			b.WriteString(cnDigits[r-'0'])
		}
	}
	return b.String()
}

func integerToChineseWords(digits string) string {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "零"
	}
	if len(digits) > 12 {
		// Beyond 亿亿 territory; read digit by digit.
		var b strings.Builder
		for _, r := range digits {
			b.WriteString(cnDigits[r-'0'])
		}
		return b.String()
	}

	// Split into 4-digit groups from the right: [亿 group][万 group][ones].
	var groups []string
	for len(digits) > 4 {
		groups = append([]string{digits[len(digits)-4:]}, groups...)
		digits = digits[:len(digits)-4]
	}
	groups = append([]string{digits}, groups...)
	groupUnits := []string{"", "万", "亿"}

	var b strings.Builder
	for i, g := range groups {
		padded := strings.Repeat("0", 4-len(g)) + g
		word := smallGroupWords(padded)
		if word == "" {
			continue
		}
		// A gap below a higher group reads as a single 零.
		if b.Len() > 0 && padded[0] == '0' {
			b.WriteString("零")
		}
		b.WriteString(word)
		b.WriteString(groupUnits[len(groups)-1-i])
	}

	out := b.String()
	// 10-19 read as 十X, not 一十X.
	if rest, ok := strings.CutPrefix(out, "一十"); ok {
		out = "十" + rest
	}
	return out
}

// smallGroupWords renders exactly four digits, omitting leading zeros and
// collapsing interior zero runs to one 零.
func smallGroupWords(g string) string {
	units := []string{"千", "百", "十", ""}
	var b strings.Builder
	started, pendingZero := false, false
	for i := 0; i < 4; i++ {
		d := g[i] - '0'
		if d == 0 {
			if started {
				pendingZero = true
			}
			continue
		}
		if pendingZero {
			b.WriteString("零")
			pendingZero = false
		}
		b.WriteString(cnDigits[d])
		b.WriteString(units[i])
		started = true
	}
	return b.String()
}
