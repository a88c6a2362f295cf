// Package audio prepares utterance audio for training: decoding, resampling
// to the voice's target rate, silence trimming, and log-mel spectrogram
// extraction. Samples are normalized float32 in [-1, 1], mono.
package audio

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrEmptyAudio is returned when a file decodes to zero samples.
	ErrEmptyAudio = errors.New("audio: no samples")
)

// FormatError reports a file that could not be decoded.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("audio: decode %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Loader decodes an audio file into normalized mono samples. It is the
// seam for the external audio decoding collaborator; the built-in
// implementation handles PCM WAV.
type Loader interface {
	Load(path string) (samples []float32, sampleRate int, err error)
}

// TrimSilence removes leading and trailing samples whose absolute amplitude
// stays below threshold, keeping keep samples of padding on both sides.
// If the whole clip is below threshold the input is returned unchanged.
func TrimSilence(samples []float32, threshold float32, keep int) []float32 {
	first, last := -1, -1
	for i, s := range samples {
		if abs32(s) >= threshold {
			first = i
			break
		}
	}
	if first < 0 {
		return samples
	}
	for i := len(samples) - 1; i >= 0; i-- {
		if abs32(samples[i]) >= threshold {
			last = i
			break
		}
	}

	start := first - keep
	if start < 0 {
		start = 0
	}
	end := last + 1 + keep
	if end > len(samples) {
		end = len(samples)
	}
	return samples[start:end]
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
