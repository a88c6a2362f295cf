package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sheldonrobinson/piper1-gpl/pkg/audio"
	"github.com/sheldonrobinson/piper1-gpl/pkg/phonemizer"
	"github.com/sheldonrobinson/piper1-gpl/pkg/samplecache"
	"github.com/sheldonrobinson/piper1-gpl/pkg/speakers"
)

// ErrNoRecords is returned by Scan when the metadata file yields zero
// valid records. Training must not start on an empty dataset.
var ErrNoRecords = errors.New("corpus: no valid records")

// maxReportedFailures caps the failure sample kept in the scan report.
// The full count is always reported; only the details are sampled.
const maxReportedFailures = 20

// Entry is one cache-backed dataset record produced by a scan.
type Entry struct {
	Line        int     `json:"-"`
	UtteranceID string  `json:"id"`
	AudioPath   string  `json:"audio_path"`
	SpeakerID   int64   `json:"speaker_id"`
	PhonemeIDs  []int64 `json:"phoneme_ids"`
	NumFrames   int     `json:"num_frames"`
	Duration    float64 `json:"duration"`
	CacheKey    string  `json:"cache_key"`
}

// RecordFailure describes one skipped row.
type RecordFailure struct {
	Line        int
	UtteranceID string
	Err         error
}

// ScanReport summarizes one corpus scan.
type ScanReport struct {
	// RunID uniquely identifies this scan in logs and artifacts.
	RunID string

	// Processed counts rows that produced a dataset entry.
	Processed int

	// Skipped counts rows dropped for record-level failures.
	Skipped int

	// Failures samples up to maxReportedFailures skipped rows.
	Failures []RecordFailure
}

// LoaderConfig configures a corpus scan.
type LoaderConfig struct {
	// Path is the metadata file.
	Path string

	// AudioDir resolves relative audio paths. Empty means relative to
	// the metadata file's directory.
	AudioDir string

	Format Format

	// SampleRate is the target rate audio is resampled to.
	SampleRate int

	// TrimThreshold is the silence trim amplitude. Zero disables
	// trimming.
	TrimThreshold float32

	// Workers bounds the per-row worker pool. Zero means NumCPU.
	Workers int

	// Strict turns any record-level failure into a scan failure.
	Strict bool
}

// Loader drives the preprocessing pipeline over a metadata file.
type Loader struct {
	cfg      LoaderConfig
	selector *phonemizer.Selector
	registry *speakers.Registry
	cache    *samplecache.Cache
	audio    audio.Loader
	mel      *audio.MelExtractor
	melFP    string
	idMapFP  string
	log      *slog.Logger
}

// NewLoader wires the pipeline collaborators together. The mel
// extractor is derived from the target sample rate.
func NewLoader(cfg LoaderConfig, sel *phonemizer.Selector, reg *speakers.Registry, cache *samplecache.Cache, al audio.Loader, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.AudioDir == "" {
		cfg.AudioDir = filepath.Dir(cfg.Path)
	}
	melCfg := audio.DefaultMelConfig()
	melCfg.SampleRate = cfg.SampleRate
	return &Loader{
		cfg:      cfg,
		selector: sel,
		registry: reg,
		cache:    cache,
		audio:    al,
		mel:      audio.NewMelExtractor(melCfg),
		melFP:    melCfg.Fingerprint(),
		idMapFP:  sel.IDMap().Fingerprint(),
		log:      log,
	}
}

// Scan reads the metadata file and produces one dataset entry per
// valid row. Rows are read sequentially so speaker ids follow
// first-seen file order; the per-row phonemize/audio/cache work runs
// on a bounded worker pool. A malformed row aborts the scan with
// *FormatError. Other per-row failures are skipped and counted unless
// Strict is set, in which case the first one fails the scan. Entries
// are returned in file order.
func (l *Loader) Scan(ctx context.Context) ([]Entry, *ScanReport, error) {
	f, err := os.Open(l.cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("corpus: open metadata: %w", err)
	}
	defer f.Close()

	report := &ScanReport{RunID: uuid.NewString()}
	l.log.Info("corpus scan starting",
		"run_id", report.RunID,
		"path", l.cfg.Path,
		"mode", string(l.cfg.Format.Mode),
		"workers", l.cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Workers)

	var (
		mu      sync.Mutex
		entries []Entry
	)
	fail := func(u *Utterance, err error) error {
		if l.cfg.Strict {
			return fmt.Errorf("corpus: line %d (%s): %w", u.Line, u.ID(), err)
		}
		mu.Lock()
		report.Skipped++
		if len(report.Failures) < maxReportedFailures {
			report.Failures = append(report.Failures, RecordFailure{
				Line: u.Line, UtteranceID: u.ID(), Err: err,
			})
		}
		mu.Unlock()
		l.log.Warn("skipping record", "run_id", report.RunID, "line", u.Line, "utterance", u.ID(), "error", err)
		return nil
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	var scanErr error
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		u, err := l.cfg.Format.ParseLine(lineNo, line)
		if err != nil {
			scanErr = err
			break
		}
		// Registration happens here, on the read path, so speaker ids
		// reflect file order regardless of worker scheduling.
		speakerID := int64(0)
		if l.cfg.Format.MultiSpeaker {
			speakerID = l.registry.Register(u.Speaker)
		}
		g.Go(func() error {
			entry, err := l.process(gctx, u, speakerID)
			if err != nil {
				return fail(u, err)
			}
			mu.Lock()
			entries = append(entries, *entry)
			report.Processed++
			mu.Unlock()
			return nil
		})
		if gctx.Err() != nil {
			break
		}
	}
	if scanErr == nil {
		scanErr = sc.Err()
	}

	if err := g.Wait(); err != nil {
		return nil, report, err
	}
	if scanErr != nil {
		return nil, report, scanErr
	}
	if report.Processed == 0 {
		return nil, report, fmt.Errorf("%w (skipped %d)", ErrNoRecords, report.Skipped)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Line < entries[j].Line
	})

	l.log.Info("corpus scan complete",
		"run_id", report.RunID,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"speakers", l.registry.Len())
	return entries, report, nil
}

func (l *Loader) process(ctx context.Context, u *Utterance, speakerID int64) (*Entry, error) {
	// The resolved path, not the basename stem, identifies the audio in
	// the key. Two files sharing a stem in different directories must
	// not collide.
	path := l.resolvePath(u.AudioPath)
	params := samplecache.KeyParams{
		UtteranceID: path,
		Text:        u.Text,
		Strategy:    string(l.cfg.Format.Mode),
		Voice:       l.selectorVoice(),
		SampleRate:  l.cfg.SampleRate,
		NumSymbols:  l.selector.NumSymbols(),
		Extra: map[string]string{
			"trim":  fmt.Sprintf("%g", l.cfg.TrimThreshold),
			"mel":   l.melFP,
			"idmap": l.idMapFP,
		},
	}
	if u.RawIDs != "" {
		params.Extra["ids"] = u.RawIDs
	}
	key := params.Key()

	cached, err := l.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*samplecache.Entry, error) {
		return l.compute(ctx, u, path)
	})
	if err != nil {
		return nil, err
	}

	return &Entry{
		Line:        u.Line,
		UtteranceID: u.ID(),
		AudioPath:   u.AudioPath,
		SpeakerID:   speakerID,
		PhonemeIDs:  cached.PhonemeIDs,
		NumFrames:   len(cached.Mel),
		Duration:    cached.Duration,
		CacheKey:    key,
	}, nil
}

// compute runs the full per-utterance pipeline: phonemize and encode
// the text, load and resample the audio, trim silence, and extract mel
// frames.
func (l *Loader) compute(ctx context.Context, u *Utterance, path string) (*samplecache.Entry, error) {
	ids, err := l.selector.IDs(ctx, phonemizer.Input{Text: u.Text, RawIDs: u.RawIDs})
	if err != nil {
		return nil, err
	}

	samples, rate, err := l.audio.Load(path)
	if err != nil {
		return nil, err
	}
	if rate != l.cfg.SampleRate {
		samples, err = audio.Resample(samples, rate, l.cfg.SampleRate)
		if err != nil {
			return nil, err
		}
	}
	if l.cfg.TrimThreshold > 0 {
		samples = audio.TrimSilence(samples, l.cfg.TrimThreshold, l.cfg.SampleRate/100)
	}
	if len(samples) == 0 {
		return nil, audio.ErrEmptyAudio
	}

	return &samplecache.Entry{
		PhonemeIDs: ids,
		Samples:    samples,
		SampleRate: l.cfg.SampleRate,
		Mel:        l.mel.Extract(samples),
		Duration:   float64(len(samples)) / float64(l.cfg.SampleRate),
	}, nil
}

// resolvePath makes a metadata audio path absolute against AudioDir.
func (l *Loader) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.cfg.AudioDir, p)
}

func (l *Loader) selectorVoice() string {
	if l.selector.Mode() == phonemizer.ModeEspeak {
		return l.selector.Voice()
	}
	return ""
}
