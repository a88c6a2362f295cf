package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// WAVLoader decodes RIFF/WAVE files with 16-bit signed PCM samples.
// Multi-channel files are downmixed to mono by averaging.
type WAVLoader struct{}

func (WAVLoader) Load(path string) ([]float32, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: read %s: %w", path, err)
	}
	samples, rate, err := DecodeWAV(data)
	if err != nil {
		return nil, 0, &FormatError{Path: path, Err: err}
	}
	return samples, rate, nil
}

// DecodeWAV parses a RIFF/WAVE byte stream into normalized mono samples.
func DecodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a RIFF/WAVE file")
	}

	var (
		sampleRate    int
		numChannels   int
		bitsPerSample int
		pcm           []byte
		haveFmt       bool
	)

	// Walk the chunk list. Chunks are word-aligned.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			return nil, 0, fmt.Errorf("truncated %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 { // PCM
				return nil, 0, fmt.Errorf("unsupported WAV format code %d", format)
			}
			numChannels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if !haveFmt {
		return nil, 0, errors.New("missing fmt chunk")
	}
	if pcm == nil {
		return nil, 0, errors.New("missing data chunk")
	}
	if bitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", bitsPerSample)
	}
	if numChannels < 1 {
		return nil, 0, fmt.Errorf("invalid channel count %d", numChannels)
	}

	frameBytes := 2 * numChannels
	numFrames := len(pcm) / frameBytes
	if numFrames == 0 {
		return nil, 0, ErrEmptyAudio
	}

	samples := make([]float32, numFrames)
	for i := 0; i < numFrames; i++ {
		var sum int32
		for ch := 0; ch < numChannels; ch++ {
			off := i*frameBytes + ch*2
			s := int16(pcm[off]) | int16(pcm[off+1])<<8
			sum += int32(s)
		}
		samples[i] = float32(sum/int32(numChannels)) / 32768.0
	}
	return samples, sampleRate, nil
}

// EncodeWAV renders mono float32 samples as a 16-bit PCM WAV byte stream.
// Used by tests and debug tooling.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		v := s
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(int16(v*32767)))
	}
	return buf
}
