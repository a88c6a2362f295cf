package audio

import (
	"fmt"
	"math"
)

// MelConfig controls log-mel spectrogram extraction. Defaults follow the
// acoustic model's front end: 22.05 kHz audio, 1024-point Hann windows with
// a 256-sample hop, 80 mel channels spanning 0-8000 Hz.
type MelConfig struct {
	SampleRate int     // audio sample rate in Hz (default 22050)
	WindowSize int     // window length in samples (default 1024)
	HopSize    int     // hop length in samples (default 256)
	FFTSize    int     // FFT size, power of two >= WindowSize (default 1024)
	NumMels    int     // number of mel channels (default 80)
	LowFreq    float64 // lowest mel frequency (default 0)
	HighFreq   float64 // highest mel frequency (default 8000)
}

// DefaultMelConfig returns the standard training front-end config.
func DefaultMelConfig() MelConfig {
	return MelConfig{
		SampleRate: 22050,
		WindowSize: 1024,
		HopSize:    256,
		FFTSize:    1024,
		NumMels:    80,
		LowFreq:    0,
		HighFreq:   8000,
	}
}

// Fingerprint renders every field of the config as a stable string. Cache
// keys include it so any front-end change invalidates derived entries.
func (c MelConfig) Fingerprint() string {
	return fmt.Sprintf("sr=%d,win=%d,hop=%d,fft=%d,mels=%d,lo=%g,hi=%g",
		c.SampleRate, c.WindowSize, c.HopSize, c.FFTSize, c.NumMels, c.LowFreq, c.HighFreq)
}

// MelExtractor computes log-mel spectrograms from normalized samples.
type MelExtractor struct {
	cfg     MelConfig
	window  []float64 // Hann window
	melBank [][]float64
}

// NewMelExtractor creates an extractor for the given config.
func NewMelExtractor(cfg MelConfig) *MelExtractor {
	e := &MelExtractor{cfg: cfg}
	e.window = hannWindow(cfg.WindowSize)
	e.melBank = melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)
	return e
}

// Extract computes log-mel features. Output is [frames][NumMels] with
// frames = (len(samples) - WindowSize) / HopSize + 1; nil when the clip is
// shorter than one window. The magnitude floor of 1e-5 before the log keeps
// silent frames finite.
func (e *MelExtractor) Extract(samples []float32) [][]float32 {
	cfg := e.cfg
	n := len(samples)
	if n < cfg.WindowSize {
		return nil
	}

	numFrames := (n-cfg.WindowSize)/cfg.HopSize + 1
	nfft := cfg.FFTSize
	halfFFT := nfft/2 + 1

	features := make([][]float32, numFrames)

	frame := make([]float64, nfft)
	re := make([]float64, nfft)
	im := make([]float64, nfft)
	power := make([]float64, halfFFT)

	for t := 0; t < numFrames; t++ {
		start := t * cfg.HopSize

		for i := 0; i < cfg.WindowSize; i++ {
			frame[i] = float64(samples[start+i]) * e.window[i]
		}
		for i := cfg.WindowSize; i < nfft; i++ {
			frame[i] = 0
		}

		copy(re, frame)
		for i := range im {
			im[i] = 0
		}
		fft(re, im)

		for i := 0; i < halfFFT; i++ {
			power[i] = re[i]*re[i] + im[i]*im[i]
		}

		mel := make([]float32, cfg.NumMels)
		for m := 0; m < cfg.NumMels; m++ {
			sum := 0.0
			for k, w := range e.melBank[m] {
				sum += w * power[k]
			}
			mag := math.Sqrt(sum)
			if mag < 1e-5 {
				mag = 1e-5
			}
			mel[m] = float32(math.Log(mag))
		}
		features[t] = mel
	}
	return features
}

// NumFrames reports how many mel frames Extract will produce for a clip of
// the given sample count.
func (e *MelExtractor) NumFrames(numSamples int) int {
	if numSamples < e.cfg.WindowSize {
		return 0
	}
	return (numSamples-e.cfg.WindowSize)/e.cfg.HopSize + 1
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilterBank creates the triangular mel filterbank matrix,
// [numMels][fftSize/2+1].
func melFilterBank(numMels, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	halfFFT := fftSize/2 + 1
	if highFreq <= 0 {
		highFreq = float64(sampleRate) / 2
	}
	lowMel := hzToMel(lowFreq)
	highMel := hzToMel(highFreq)

	// numMels + 2 equally spaced mel points.
	melPoints := make([]float64, numMels+2)
	step := (highMel - lowMel) / float64(numMels+1)
	for i := range melPoints {
		melPoints[i] = lowMel + float64(i)*step
	}

	bins := make([]int, numMels+2)
	for i, m := range melPoints {
		hz := melToHz(m)
		bin := int(math.Round(hz * float64(fftSize) / float64(sampleRate)))
		if bin >= halfFFT {
			bin = halfFFT - 1
		}
		bins[i] = bin
	}
	// Ensure each filter spans at least one bin.
	for i := 1; i < len(bins); i++ {
		if bins[i] <= bins[i-1] {
			bins[i] = bins[i-1] + 1
		}
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		filter := make([]float64, halfFFT)
		left, center, right := bins[m], bins[m+1], bins[m+2]

		for k := left; k < center && k < halfFFT; k++ {
			if center != left {
				filter[k] = float64(k-left) / float64(center-left)
			}
		}
		for k := center; k <= right && k < halfFFT; k++ {
			if right != center {
				filter[k] = float64(right-k) / float64(right-center)
			}
		}
		bank[m] = filter
	}
	return bank
}
