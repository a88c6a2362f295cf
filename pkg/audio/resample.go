package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts mono samples from srcRate to dstRate. When the rates
// match, the input is returned as-is.
func Resample(samples []float32, srcRate, dstRate int) ([]float32, error) {
	if srcRate == dstRate {
		return samples, nil
	}
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("audio: invalid resample rates %d -> %d", srcRate, dstRate)
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("audio: create resampler: %w", err)
	}

	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s)
	}
	// Feed trailing zeros so the filter flushes the tail of the clip.
	tail := srcRate / 100
	input = append(input, make([]float64, tail)...)

	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("audio: resample: %w", err)
	}

	// Trim to the expected length; the flush padding lands at the end.
	want := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if want > len(output) {
		want = len(output)
	}
	out := make([]float32, want)
	for i := 0; i < want; i++ {
		v := output[i]
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = float32(v)
	}
	return out, nil
}
