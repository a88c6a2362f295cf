// Package voice assembles and persists the voice configuration artifact
// that accompanies a trained model. The config carries everything the
// inference runtime needs to reproduce the training-time text frontend:
// vocabulary size, phoneme id map, speaker id map, phonemization mode
// and audio parameters.
//
// The config is written exactly once per training run, after the corpus
// scan has completed. Writing earlier would persist an incomplete
// speaker map, so Emitter refuses a second write and callers are
// expected to hand it only finalized state.
package voice

import (
	"errors"
	"fmt"

	"github.com/sheldonrobinson/piper1-gpl/pkg/phonemes"
)

// ErrAlreadyEmitted is returned by Emitter.Emit when the config for this
// run has already been written.
var ErrAlreadyEmitted = errors.New("voice: config already emitted")

// Default inference scales, matching the values baked into exported
// voices when training does not override them.
const (
	DefaultNoiseScale  = 0.667
	DefaultLengthScale = 1.0
	DefaultNoiseW      = 0.8
)

// AudioConfig describes the waveform parameters the model was trained on.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Quality    string `json:"quality,omitempty"`
}

// EspeakConfig names the espeak-ng voice used for rule-based
// phonemization. Empty for the other phonemization modes.
type EspeakConfig struct {
	Voice string `json:"voice"`
}

// InferenceConfig holds the synthesis scales the runtime applies by
// default. Zero values are replaced with the package defaults at emit
// time.
type InferenceConfig struct {
	NoiseScale  float64 `json:"noise_scale"`
	LengthScale float64 `json:"length_scale"`
	NoiseW      float64 `json:"noise_w"`
}

// Config is the on-disk voice configuration. Its JSON layout matches
// the `<name>.onnx.json` file read by the inference runtime.
type Config struct {
	Audio        AudioConfig      `json:"audio"`
	Espeak       EspeakConfig     `json:"espeak"`
	PhonemeType  string           `json:"phoneme_type"`
	NumSymbols   int64            `json:"num_symbols"`
	NumSpeakers  int64            `json:"num_speakers"`
	SpeakerIDMap map[string]int64 `json:"speaker_id_map,omitempty"`
	PhonemeIDMap phonemes.IDMap   `json:"phoneme_id_map"`
	Inference    InferenceConfig  `json:"inference"`
	Dataset      string           `json:"dataset,omitempty"`
}

// Validate reports whether the config is complete enough to persist.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("voice: sample rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.NumSymbols <= 0 {
		return fmt.Errorf("voice: num_symbols must be positive, got %d", c.NumSymbols)
	}
	if c.NumSpeakers <= 0 {
		return fmt.Errorf("voice: num_speakers must be positive, got %d", c.NumSpeakers)
	}
	if c.NumSpeakers > 1 && int64(len(c.SpeakerIDMap)) != c.NumSpeakers {
		return fmt.Errorf("voice: speaker map has %d entries, config declares %d speakers",
			len(c.SpeakerIDMap), c.NumSpeakers)
	}
	if len(c.PhonemeIDMap) == 0 {
		return errors.New("voice: phoneme id map is empty")
	}
	if c.PhonemeType == "" {
		return errors.New("voice: phoneme_type is empty")
	}
	return nil
}

func (c *Config) fillDefaults() {
	if c.Inference.NoiseScale == 0 {
		c.Inference.NoiseScale = DefaultNoiseScale
	}
	if c.Inference.LengthScale == 0 {
		c.Inference.LengthScale = DefaultLengthScale
	}
	if c.Inference.NoiseW == 0 {
		c.Inference.NoiseW = DefaultNoiseW
	}
}
