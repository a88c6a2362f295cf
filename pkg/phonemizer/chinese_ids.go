package phonemizer

import (
	"log/slog"

	"github.com/sheldonrobinson/piper1-gpl/pkg/phonemes"
)

// chineseIDMap is the fixed pinyin phoneme table: markers, 24 initials,
// 35 finals, 5 tones, and pause symbols. Full-width and half-width pause
// variants share ids.
var chineseIDMap = phonemes.IDMap{
	phonemes.Pad: {phonemes.PadID},
	phonemes.Bos: {phonemes.BosID},
	phonemes.Eos: {phonemes.EosID},

	// Initials
	ZeroInitial: {3},
	"b":         {4},
	"p":         {5},
	"m":         {6},
	"f":         {7},
	"d":         {8},
	"t":         {9},
	"n":         {10},
	"l":         {11},
	"g":         {12},
	"k":         {13},
	"h":         {14},
	"j":         {15},
	"q":         {16},
	"x":         {17},
	"zh":        {18},
	"ch":        {19},
	"sh":        {20},
	"r":         {21},
	"z":         {22},
	"c":         {23},
	"s":         {24},
	"y":         {25},
	"w":         {26},

	// Finals
	"a":    {27},
	"o":    {28},
	"e":    {29},
	"ai":   {30},
	"ei":   {31},
	"ao":   {32},
	"ou":   {33},
	"an":   {34},
	"en":   {35},
	"ang":  {36},
	"eng":  {37},
	"ong":  {38},
	"i":    {39},
	"ia":   {40},
	"ie":   {41},
	"iao":  {42},
	"iu":   {43},
	"ian":  {44},
	"in":   {45},
	"iang": {46},
	"ing":  {47},
	"iong": {48},
	"u":    {49},
	"ua":   {50},
	"uo":   {51},
	"uai":  {52},
	"ui":   {53},
	"uan":  {54},
	"un":   {55},
	"uang": {56},
	"ueng": {57},
	"v":    {58}, // ü
	"ve":   {59}, // üe
	"van":  {60}, // üan
	"vn":   {61}, // ün
	"er":   {62},
	"ue":   {63},

	// Tones
	"1": {64},
	"2": {65},
	"3": {66},
	"4": {67},
	"5": {68}, // neutral

	// Long pauses; full/half width share intonation ids.
	"。": {69},
	".": {69},
	"？": {70},
	"?": {70},
	"！": {71},
	"!": {71},

	// Short pauses
	"—": {72},
	"…": {72},
	"、": {72},
	"，": {72},
	",": {72},
	"：": {72},
	":": {72},
	"；": {72},
	";": {72},
	" ": {72},
}

// chineseGroupEnd holds the tokens that close a pinyin group: tones and all
// pause symbols. Padding is inserted after each group rather than between
// every token.
var chineseGroupEnd = map[string]bool{
	"1": true, "2": true, "3": true, "4": true, "5": true,
	"。": true, "？": true, "！": true,
	".": true, "?": true, "!": true,
	"—": true, "…": true, "、": true, "，": true, "：": true, "；": true,
	",": true, ":": true, ";": true, " ": true,
}

// ChineseIDMap returns a copy of the pinyin phoneme id map.
func ChineseIDMap() phonemes.IDMap {
	m := make(phonemes.IDMap, len(chineseIDMap))
	for k, v := range chineseIDMap {
		ids := make([]int64, len(v))
		copy(ids, v)
		m[k] = ids
	}
	return m
}

// ChinesePhonemesToIDs encodes pinyin phoneme tokens. Unlike the standard
// interspersed layout, padding goes after each complete pinyin group (a
// syllable's tone, or a pause): "k a 3" encodes as the three content ids
// followed by one PAD. The sequence is still bracketed by BOS/EOS. Tokens
// missing from the map are logged and skipped, matching the reference
// behavior for this path.
func ChinesePhonemesToIDs(tokens []string, m phonemes.IDMap) []int64 {
	if m == nil {
		m = chineseIDMap
	}
	bos, ok := m[phonemes.Bos]
	if !ok {
		bos = []int64{phonemes.BosID}
	}
	eos, ok := m[phonemes.Eos]
	if !ok {
		eos = []int64{phonemes.EosID}
	}
	pad, ok := m[phonemes.Pad]
	if !ok {
		pad = []int64{phonemes.PadID}
	}

	ids := make([]int64, 0, len(tokens)+len(tokens)/3+2)
	ids = append(ids, bos...)
	for _, tok := range tokens {
		tokIDs, ok := m[tok]
		if !ok {
			slog.Warn("phoneme missing from id map", "phoneme", tok)
			continue
		}
		ids = append(ids, tokIDs...)
		if chineseGroupEnd[tok] {
			ids = append(ids, pad...)
		}
	}
	ids = append(ids, eos...)
	return ids
}
