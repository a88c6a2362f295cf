package voice

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sheldonrobinson/piper1-gpl/pkg/phonemes"
)

func testConfig() *Config {
	return &Config{
		Audio:        AudioConfig{SampleRate: 22050, Quality: "medium"},
		Espeak:       EspeakConfig{Voice: "en-us"},
		PhonemeType:  "espeak",
		NumSymbols:   256,
		NumSpeakers:  2,
		SpeakerIDMap: map[string]int64{"alice": 0, "bob": 1},
		PhonemeIDMap: phonemes.DefaultIDMap(),
		Dataset:      "test-corpus",
	}
}

func TestEmitAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voice.json")

	em := NewEmitter(nil)
	if em.Emitted() {
		t.Fatal("fresh emitter reports emitted")
	}
	if err := em.Emit(testConfig(), path); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !em.Emitted() {
		t.Fatal("Emitted() = false after Emit")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.NumSymbols != 256 || got.NumSpeakers != 2 {
		t.Fatalf("round trip metadata = %+v", got)
	}
	if got.SpeakerIDMap["bob"] != 1 {
		t.Fatalf("speaker map = %v", got.SpeakerIDMap)
	}
	if !reflect.DeepEqual(got.PhonemeIDMap["^"], []int64{phonemes.BosID}) {
		t.Fatalf("phoneme map lost markers: %v", got.PhonemeIDMap["^"])
	}
	// Zero scales are replaced with defaults at emit time.
	if got.Inference.NoiseScale != DefaultNoiseScale || got.Inference.LengthScale != DefaultLengthScale {
		t.Fatalf("inference defaults not applied: %+v", got.Inference)
	}
}

func TestEmitExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	em := NewEmitter(nil)
	if err := em.Emit(testConfig(), filepath.Join(dir, "a.json")); err != nil {
		t.Fatalf("first Emit: %v", err)
	}
	err := em.Emit(testConfig(), filepath.Join(dir, "b.json"))
	if !errors.Is(err, ErrAlreadyEmitted) {
		t.Fatalf("second Emit error = %v, want ErrAlreadyEmitted", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.json")); !os.IsNotExist(err) {
		t.Fatal("second Emit wrote a file")
	}
}

func TestEmitRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }},
		{"zero symbols", func(c *Config) { c.NumSymbols = 0 }},
		{"zero speakers", func(c *Config) { c.NumSpeakers = 0 }},
		{"speaker count mismatch", func(c *Config) { c.NumSpeakers = 3 }},
		{"empty phoneme map", func(c *Config) { c.PhonemeIDMap = nil }},
		{"empty phoneme type", func(c *Config) { c.PhonemeType = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := testConfig()
			tc.mutate(cfg)
			em := NewEmitter(nil)
			if err := em.Emit(cfg, filepath.Join(dir, "voice.json")); err == nil {
				t.Fatal("expected validation error")
			}
			if em.Emitted() {
				t.Fatal("failed Emit marked emitter as done")
			}
		})
	}
}

func TestCopyAlongside(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "voice.json")
	em := NewEmitter(nil)
	if err := em.Emit(testConfig(), cfgPath); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	modelPath := filepath.Join(dir, "export", "voice.onnx")
	if err := os.MkdirAll(filepath.Dir(modelPath), 0o755); err != nil {
		t.Fatal(err)
	}
	dst, err := CopyAlongside(cfgPath, modelPath)
	if err != nil {
		t.Fatalf("CopyAlongside: %v", err)
	}
	if dst != modelPath+".json" {
		t.Fatalf("dst = %s", dst)
	}
	want, _ := os.ReadFile(cfgPath)
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Fatal("copied config differs from source")
	}
}

func TestCopyAlongsideRequiresOnnxSuffix(t *testing.T) {
	if _, err := CopyAlongside("whatever.json", "model.pt"); err == nil {
		t.Fatal("expected suffix error")
	}
}
