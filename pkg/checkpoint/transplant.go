package checkpoint

import (
	"fmt"
	"sort"
)

// ShapeMismatchError reports a parameter whose checkpoint shape disagrees
// with the model. Fatal during FullResume; warmstart never raises it.
type ShapeMismatchError struct {
	Name      string
	ModelDims []int64
	CkptDims  []int64
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("checkpoint: shape mismatch for %q: model %v, checkpoint %v",
		e.Name, e.ModelDims, e.CkptDims)
}

// Report lists what a transplant did, for logging and inspection.
type Report struct {
	// Copied parameters were transferred from the checkpoint.
	Copied []string

	// Skipped parameters were deliberately left at their initialization
	// (excluded group, or absent from the checkpoint).
	Skipped []string

	// Mismatched parameters were present but shape-incompatible. Only
	// populated by VocoderWarmstart; FullResume fails instead.
	Mismatched []string
}

func (r *Report) sorted() *Report {
	sort.Strings(r.Copied)
	sort.Strings(r.Skipped)
	sort.Strings(r.Mismatched)
	return r
}

// FullResume copies every model parameter from the checkpoint. All shapes
// are verified before any data moves, so a mismatch (for example a
// different phoneme vocabulary) fails with ShapeMismatchError and leaves
// the model completely untouched.
func FullResume(m *Model, ck *Checkpoint) (*Report, error) {
	report := &Report{}

	// Phase 1: verify. No copies happen until every parameter checks out.
	for _, name := range m.Names() {
		dst, _ := m.Param(name)
		src, ok := ck.Params[name]
		if !ok {
			return nil, fmt.Errorf("checkpoint: parameter %q missing from checkpoint", name)
		}
		if !SameShape(dst, &src) {
			return nil, &ShapeMismatchError{
				Name:      name,
				ModelDims: dst.Shape,
				CkptDims:  src.Shape,
			}
		}
	}

	// Phase 2: copy.
	for _, name := range m.Names() {
		dst, _ := m.Param(name)
		src := ck.Params[name]
		copy(dst.Data, src.Data)
		report.Copied = append(report.Copied, name)
	}
	for name := range ck.Params {
		if _, ok := m.Param(name); !ok {
			report.Skipped = append(report.Skipped, name)
		}
	}
	return report.sorted(), nil
}

// VocoderWarmstart copies only the vocoder parameter group from the
// checkpoint. Embedding-group parameters are skipped by their declared
// group before any shape comparison, so a checkpoint saved with a
// different vocabulary size transplants cleanly and the model's embedding
// keeps its fresh initialization. Each tensor copy is all-or-nothing.
func VocoderWarmstart(m *Model, ck *Checkpoint) (*Report, error) {
	report := &Report{}

	for _, name := range m.Names() {
		group, _ := m.GroupOf(name)
		if group != GroupVocoder {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		src, ok := ck.Params[name]
		if !ok {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		dst, _ := m.Param(name)
		if !SameShape(dst, &src) {
			report.Mismatched = append(report.Mismatched, name)
			continue
		}
		copy(dst.Data, src.Data)
		report.Copied = append(report.Copied, name)
	}
	return report.sorted(), nil
}
