// Package samplecache stores per-utterance derived artifacts (phoneme ids,
// processed audio, mel frames) between training runs.
//
// Entries are content-addressed: the key hashes the utterance identity plus
// every configuration parameter that affects the derived output, so changing
// the phonemization strategy or audio parameters produces different keys and
// old entries simply stop being hit. There is no eviction; the cache is a
// durable artifact store scoped to one cache directory.
package samplecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/sheldonrobinson/piper1-gpl/pkg/kv"
)

// Entry holds everything derived from one utterance.
type Entry struct {
	// PhonemeIDs is the encoded id sequence for the utterance.
	PhonemeIDs []int64 `msgpack:"ids"`

	// Samples is the processed (resampled, trimmed) mono audio.
	Samples []float32 `msgpack:"samples"`

	// SampleRate of Samples in Hz.
	SampleRate int `msgpack:"rate"`

	// Mel is the log-mel spectrogram, [frames][channels].
	Mel [][]float32 `msgpack:"mel,omitempty"`

	// Duration of the processed audio in seconds.
	Duration float64 `msgpack:"dur"`
}

// CorruptEntryError reports a cache entry that could not be decoded. The
// cache handles it internally by recomputing the single affected entry; it
// is exported so callers inspecting logs can match on it.
type CorruptEntryError struct {
	Key string
	Err error
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("samplecache: corrupt entry %s: %v", e.Key, e.Err)
}

func (e *CorruptEntryError) Unwrap() error { return e.Err }

// Cache is a content-addressed store of Entry values.
type Cache struct {
	store kv.Store
	log   *slog.Logger
	group singleflight.Group
}

// New creates a Cache over the given store. A nil logger uses slog.Default.
func New(store kv.Store, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{store: store, log: log}
}

// OpenDir opens a badger-backed cache under dir, creating it if absent.
func OpenDir(dir string, log *slog.Logger) (*Cache, error) {
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("samplecache: open %s: %w", dir, err)
	}
	return New(store, log), nil
}

// GetOrCompute returns the entry for key, invoking compute at most once per
// key per cache lifetime. Concurrent callers with the same key share a
// single computation. The entry is committed to the store only after compute
// succeeds, so a crash mid-computation never leaves a corrupt entry; an
// entry that fails to decode is treated as a miss and recomputed.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (*Entry, error)) (*Entry, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		data, err := c.store.Get(ctx, key)
		switch {
		case err == nil:
			var entry Entry
			if err := msgpack.Unmarshal(data, &entry); err != nil {
				// Decode failure affects only this entry: recompute it.
				cerr := &CorruptEntryError{Key: key, Err: err}
				c.log.Warn("recomputing corrupt cache entry", "key", key, "err", cerr)
				return c.computeAndStore(ctx, key, compute)
			}
			return &entry, nil
		case errors.Is(err, kv.ErrNotFound):
			return c.computeAndStore(ctx, key, compute)
		default:
			return nil, fmt.Errorf("samplecache: get %s: %w", key, err)
		}
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

func (c *Cache) computeAndStore(ctx context.Context, key string, compute func(ctx context.Context) (*Entry, error)) (*Entry, error) {
	entry, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	data, err := msgpack.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("samplecache: encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		return nil, fmt.Errorf("samplecache: store %s: %w", key, err)
	}
	return entry, nil
}

// Len reports the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	return c.store.Len(ctx)
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}
