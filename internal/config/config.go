// Package config loads the training pipeline configuration file. The
// file is optional: every field has a CLI flag, and flags set on the
// command line take precedence over file values.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Dataset locates the corpus and describes its layout.
type Dataset struct {
	// Metadata is the delimited metadata file path.
	Metadata string `yaml:"metadata"`

	// AudioDir resolves relative audio paths. Defaults to the metadata
	// file's directory.
	AudioDir string `yaml:"audio_dir"`

	// MultiSpeaker marks a layout with a speaker name column.
	MultiSpeaker bool `yaml:"multi_speaker"`

	// Name is recorded in the voice config for provenance.
	Name string `yaml:"name"`
}

// Phonemes selects and configures the phonemization strategy.
type Phonemes struct {
	// Mode is one of espeak, chinese, text, ids.
	Mode string `yaml:"mode"`

	// Voice is the espeak-ng voice tag, espeak mode only.
	Voice string `yaml:"voice"`

	// IDMapPath points at a custom phoneme id map JSON file.
	IDMapPath string `yaml:"id_map"`

	// NumSymbols bounds the vocabulary. Zero derives it from the map.
	NumSymbols int64 `yaml:"num_symbols"`

	// AllowUnknown maps unknown phonemes to UnknownID instead of
	// failing the record.
	AllowUnknown bool  `yaml:"allow_unknown"`
	UnknownID    int64 `yaml:"unknown_id"`
}

// Audio holds waveform processing parameters.
type Audio struct {
	SampleRate    int     `yaml:"sample_rate"`
	Quality       string  `yaml:"quality"`
	TrimThreshold float32 `yaml:"trim_threshold"`
}

// Config is the full pipeline configuration.
type Config struct {
	Dataset  Dataset  `yaml:"dataset"`
	Phonemes Phonemes `yaml:"phonemes"`
	Audio    Audio    `yaml:"audio"`

	// CacheDir is the sample cache directory, created if absent.
	CacheDir string `yaml:"cache_dir"`

	// OutputDir receives the voice config and dataset listing.
	OutputDir string `yaml:"output_dir"`

	// Workers bounds the preprocessing worker pool. Zero means NumCPU.
	Workers int `yaml:"workers"`

	// Strict fails the whole scan on the first record-level error.
	Strict bool `yaml:"strict"`
}

// Default returns the configuration used when no file and no flags are
// given.
func Default() *Config {
	return &Config{
		Phonemes:  Phonemes{Mode: "espeak", Voice: "en-us"},
		Audio:     Audio{SampleRate: 22050, Quality: "medium"},
		CacheDir:  "cache",
		OutputDir: "output",
	}
}

// Load reads and parses a pipeline config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields preprocess depends on.
func (c *Config) Validate() error {
	if c.Dataset.Metadata == "" {
		return fmt.Errorf("config: dataset metadata path is required")
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("config: sample rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Phonemes.Mode == "" {
		return fmt.Errorf("config: phoneme mode is required")
	}
	return nil
}
