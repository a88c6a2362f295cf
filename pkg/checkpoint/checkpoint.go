// Package checkpoint stores model parameters between training runs and
// transplants them into freshly initialized models.
//
// A checkpoint is a named tensor mapping plus the metadata needed to judge
// compatibility (format version, vocabulary size at save time). Checkpoints
// are read-only inputs: transplant copies from them, never into them.
//
// Two transplant policies exist. [FullResume] copies every parameter and
// demands exact shape agreement, so it only works across identical
// vocabularies. [VocoderWarmstart] copies only the vocoder parameter group
// and structurally excludes the phoneme embedding, which lets a new voice
// with a different vocabulary start from a prior model's acoustics.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is the on-disk checkpoint format version.
const FormatVersion = 1

// Tensor is a dense float32 tensor with row-major data.
type Tensor struct {
	Shape []int64   `msgpack:"shape"`
	Data  []float32 `msgpack:"data"`
}

// NumElements returns the element count implied by the shape.
func (t *Tensor) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// SameShape reports whether two tensors have identical shapes.
func SameShape(a, b *Tensor) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// clone returns a deep copy of the tensor.
func (t *Tensor) clone() Tensor {
	shape := make([]int64, len(t.Shape))
	copy(shape, t.Shape)
	data := make([]float32, len(t.Data))
	copy(data, t.Data)
	return Tensor{Shape: shape, Data: data}
}

// Checkpoint is a saved parameter set.
type Checkpoint struct {
	// Version is the checkpoint format version.
	Version int `msgpack:"version"`

	// NumSymbols is the phoneme vocabulary size at save time.
	NumSymbols int64 `msgpack:"num_symbols"`

	// NumSpeakers is the speaker count at save time, 1 for single-speaker.
	NumSpeakers int64 `msgpack:"num_speakers"`

	// Params maps parameter name to tensor.
	Params map[string]Tensor `msgpack:"params"`
}

// Load reads a checkpoint file.
func Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %s: %w", path, err)
	}
	var ck Checkpoint
	if err := msgpack.Unmarshal(data, &ck); err != nil {
		return nil, fmt.Errorf("checkpoint: decode %s: %w", path, err)
	}
	if ck.Version != FormatVersion {
		return nil, fmt.Errorf("checkpoint: %s has format version %d, want %d", path, ck.Version, FormatVersion)
	}
	return &ck, nil
}

// Save writes the checkpoint to path via a temp file and atomic rename, so
// an interrupted save never leaves a truncated checkpoint behind.
func (c *Checkpoint) Save(path string) error {
	data, err := msgpack.Marshal(c)
	if err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ckpt-*")
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: commit %s: %w", path, err)
	}
	return nil
}
