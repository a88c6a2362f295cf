package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sheldonrobinson/piper1-gpl/internal/config"
	"github.com/sheldonrobinson/piper1-gpl/pkg/audio"
	"github.com/sheldonrobinson/piper1-gpl/pkg/corpus"
	"github.com/sheldonrobinson/piper1-gpl/pkg/phonemes"
	"github.com/sheldonrobinson/piper1-gpl/pkg/phonemizer"
	"github.com/sheldonrobinson/piper1-gpl/pkg/samplecache"
	"github.com/sheldonrobinson/piper1-gpl/pkg/speakers"
	"github.com/sheldonrobinson/piper1-gpl/pkg/voice"
)

var (
	preprocessMetadata   string
	preprocessAudioDir   string
	preprocessCacheDir   string
	preprocessOutDir     string
	preprocessMode       string
	preprocessVoice      string
	preprocessIDMap      string
	preprocessNumSymbols int64
	preprocessSampleRate int
	preprocessMulti      bool
	preprocessWorkers    int
	preprocessStrict     bool
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Scan the corpus and build training artifacts",
	Long: `Scan the metadata file, phonemize each utterance, extract audio
features into the sample cache, and write the voice config plus a
dataset listing (dataset.jsonl) to the output directory.

Examples:
  piper-train preprocess -f pipeline.yaml
  piper-train preprocess --metadata metadata.csv --mode espeak --espeak-voice en-us
  piper-train preprocess --metadata metadata.csv --mode ids --multi-speaker`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		applyPreprocessFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runPreprocess(cmd.Context(), cfg)
	},
}

func init() {
	f := preprocessCmd.Flags()
	f.StringVar(&preprocessMetadata, "metadata", "", "metadata file (audio|text rows)")
	f.StringVar(&preprocessAudioDir, "audio-dir", "", "base directory for relative audio paths")
	f.StringVar(&preprocessCacheDir, "cache-dir", "", "sample cache directory")
	f.StringVar(&preprocessOutDir, "out-dir", "", "output directory for voice config and dataset listing")
	f.StringVar(&preprocessMode, "mode", "", "phonemization mode: espeak, chinese, text, ids")
	f.StringVar(&preprocessVoice, "espeak-voice", "", "espeak-ng voice tag (espeak mode)")
	f.StringVar(&preprocessIDMap, "id-map", "", "custom phoneme id map JSON file")
	f.Int64Var(&preprocessNumSymbols, "num-symbols", 0, "vocabulary size bound (0 derives from the map)")
	f.IntVar(&preprocessSampleRate, "sample-rate", 0, "target sample rate")
	f.BoolVar(&preprocessMulti, "multi-speaker", false, "metadata rows carry a speaker column")
	f.IntVar(&preprocessWorkers, "workers", 0, "worker pool size (0 = NumCPU)")
	f.BoolVar(&preprocessStrict, "strict", false, "fail the scan on the first record error")
}

// applyPreprocessFlags overlays explicitly set flags onto the file
// config.
func applyPreprocessFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("metadata") {
		cfg.Dataset.Metadata = preprocessMetadata
	}
	if f.Changed("audio-dir") {
		cfg.Dataset.AudioDir = preprocessAudioDir
	}
	if f.Changed("cache-dir") {
		cfg.CacheDir = preprocessCacheDir
	}
	if f.Changed("out-dir") {
		cfg.OutputDir = preprocessOutDir
	}
	if f.Changed("mode") {
		cfg.Phonemes.Mode = preprocessMode
	}
	if f.Changed("espeak-voice") {
		cfg.Phonemes.Voice = preprocessVoice
	}
	if f.Changed("id-map") {
		cfg.Phonemes.IDMapPath = preprocessIDMap
	}
	if f.Changed("num-symbols") {
		cfg.Phonemes.NumSymbols = preprocessNumSymbols
	}
	if f.Changed("sample-rate") {
		cfg.Audio.SampleRate = preprocessSampleRate
	}
	if f.Changed("multi-speaker") {
		cfg.Dataset.MultiSpeaker = preprocessMulti
	}
	if f.Changed("workers") {
		cfg.Workers = preprocessWorkers
	}
	if f.Changed("strict") {
		cfg.Strict = preprocessStrict
	}
}

func runPreprocess(ctx context.Context, cfg *config.Config) error {
	log := slog.Default()

	sel, err := buildSelector(cfg, log)
	if err != nil {
		return err
	}
	cache, err := samplecache.OpenDir(cfg.CacheDir, log)
	if err != nil {
		return err
	}
	defer cache.Close()

	registry := speakers.New()
	loader := corpus.NewLoader(corpus.LoaderConfig{
		Path:          cfg.Dataset.Metadata,
		AudioDir:      cfg.Dataset.AudioDir,
		Format:        corpus.Format{Mode: sel.Mode(), MultiSpeaker: cfg.Dataset.MultiSpeaker},
		SampleRate:    cfg.Audio.SampleRate,
		TrimThreshold: cfg.Audio.TrimThreshold,
		Workers:       cfg.Workers,
		Strict:        cfg.Strict,
	}, sel, registry, cache, audio.WAVLoader{}, log)

	entries, report, err := loader.Scan(ctx)
	if err != nil {
		return err
	}
	for _, failure := range report.Failures {
		log.Warn("record failed", "line", failure.Line, "utterance", failure.UtteranceID, "error", failure.Err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}
	if err := writeDatasetListing(filepath.Join(cfg.OutputDir, "dataset.jsonl"), entries); err != nil {
		return err
	}
	if err := emitVoiceConfig(cfg, sel, registry, log); err != nil {
		return err
	}

	fmt.Printf("processed %d utterances (%d skipped), %d speakers, run %s\n",
		report.Processed, report.Skipped, numSpeakers(cfg, registry), report.RunID)
	return nil
}

func buildSelector(cfg *config.Config, log *slog.Logger) (*phonemizer.Selector, error) {
	mode, err := phonemizer.ParseMode(cfg.Phonemes.Mode)
	if err != nil {
		return nil, err
	}

	var idMap phonemes.IDMap
	if cfg.Phonemes.IDMapPath != "" {
		idMap, err = phonemes.LoadIDMap(cfg.Phonemes.IDMapPath)
		if err != nil {
			return nil, err
		}
	}

	var backend phonemizer.Backend
	switch mode {
	case phonemizer.ModeEspeak:
		backend = &phonemizer.ExecBackend{}
	case phonemizer.ModeChinese:
		backend = phonemizer.NewChinese(nil, log)
	}

	return phonemizer.New(phonemizer.Config{
		Mode:         mode,
		Voice:        cfg.Phonemes.Voice,
		IDMap:        idMap,
		NumSymbols:   cfg.Phonemes.NumSymbols,
		AllowUnknown: cfg.Phonemes.AllowUnknown,
		UnknownID:    cfg.Phonemes.UnknownID,
	}, backend)
}

func writeDatasetListing(path string, entries []corpus.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset listing: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return fmt.Errorf("write dataset listing: %w", err)
		}
	}
	return f.Close()
}

func emitVoiceConfig(cfg *config.Config, sel *phonemizer.Selector, registry *speakers.Registry, log *slog.Logger) error {
	vc := &voice.Config{
		Audio: voice.AudioConfig{
			SampleRate: cfg.Audio.SampleRate,
			Quality:    cfg.Audio.Quality,
		},
		Espeak:       voice.EspeakConfig{Voice: sel.Voice()},
		PhonemeType:  string(sel.Mode()),
		NumSymbols:   sel.NumSymbols(),
		NumSpeakers:  int64(numSpeakers(cfg, registry)),
		PhonemeIDMap: sel.IDMap(),
		Dataset:      cfg.Dataset.Name,
	}
	if cfg.Dataset.MultiSpeaker {
		vc.SpeakerIDMap = registry.Map()
	}

	emitter := voice.NewEmitter(log)
	return emitter.Emit(vc, filepath.Join(cfg.OutputDir, "voice.json"))
}

func numSpeakers(cfg *config.Config, registry *speakers.Registry) int {
	if cfg.Dataset.MultiSpeaker {
		return registry.Len()
	}
	return 1
}
