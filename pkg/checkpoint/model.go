package checkpoint

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// Group classifies a parameter by the sub-network it belongs to. The
// taxonomy is declared with the model structure, so warmstart exclusion is
// a structural property rather than a name-matching heuristic.
type Group int

const (
	// GroupOther covers text encoder, duration predictor and flow
	// parameters.
	GroupOther Group = iota

	// GroupEmbedding marks vocabulary-dependent tensors (the phoneme
	// embedding). Never copied by VocoderWarmstart.
	GroupEmbedding

	// GroupVocoder marks the acoustic decoder/upsampling stack.
	GroupVocoder
)

func (g Group) String() string {
	switch g {
	case GroupEmbedding:
		return "embedding"
	case GroupVocoder:
		return "vocoder"
	default:
		return "other"
	}
}

// ParamSpec declares one parameter of a model's structure.
type ParamSpec struct {
	Name  string
	Group Group
	Shape []int64
}

// Model is a freshly constructed parameter set, the transplant target.
type Model struct {
	params map[string]*Tensor
	groups map[string]Group
	order  []string
}

// NewModel initializes a model from its declared structure. Parameters are
// filled with small deterministic pseudo-random values from seed, standing
// in for the collaborator's real initialization.
func NewModel(specs []ParamSpec, seed uint64) (*Model, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	m := &Model{
		params: make(map[string]*Tensor, len(specs)),
		groups: make(map[string]Group, len(specs)),
	}
	for _, spec := range specs {
		if _, dup := m.params[spec.Name]; dup {
			return nil, fmt.Errorf("checkpoint: duplicate parameter %q", spec.Name)
		}
		t := &Tensor{Shape: append([]int64(nil), spec.Shape...)}
		t.Data = make([]float32, t.NumElements())
		for i := range t.Data {
			t.Data[i] = float32(rng.NormFloat64() * 0.02)
		}
		m.params[spec.Name] = t
		m.groups[spec.Name] = spec.Group
		m.order = append(m.order, spec.Name)
	}
	return m, nil
}

// Param returns the named tensor.
func (m *Model) Param(name string) (*Tensor, bool) {
	t, ok := m.params[name]
	return t, ok
}

// GroupOf returns the declared group for a parameter.
func (m *Model) GroupOf(name string) (Group, bool) {
	g, ok := m.groups[name]
	return g, ok
}

// Names returns parameter names in declaration order.
func (m *Model) Names() []string {
	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

// GroupNames returns the names in the given group, sorted.
func (m *Model) GroupNames(g Group) []string {
	var names []string
	for name, grp := range m.groups {
		if grp == g {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ToCheckpoint snapshots the model into a new checkpoint.
func (m *Model) ToCheckpoint(numSymbols, numSpeakers int64) *Checkpoint {
	ck := &Checkpoint{
		Version:     FormatVersion,
		NumSymbols:  numSymbols,
		NumSpeakers: numSpeakers,
		Params:      make(map[string]Tensor, len(m.params)),
	}
	for name, t := range m.params {
		ck.Params[name] = t.clone()
	}
	return ck
}

// VoiceModelSpecs declares the parameter structure of the synthesis model
// for the given vocabulary and speaker count: a phoneme embedding, a text
// encoder and flow (GroupOther), and the vocoder upsampling stack.
func VoiceModelSpecs(numSymbols, numSpeakers int64) []ParamSpec {
	const hidden = 192

	specs := []ParamSpec{
		{Name: "enc_p.emb.weight", Group: GroupEmbedding, Shape: []int64{numSymbols, hidden}},

		{Name: "enc_p.encoder.attn.weight", Group: GroupOther, Shape: []int64{hidden, hidden}},
		{Name: "enc_p.encoder.ffn.weight", Group: GroupOther, Shape: []int64{hidden, 4 * hidden}},
		{Name: "enc_p.proj.weight", Group: GroupOther, Shape: []int64{hidden, 2 * hidden}},
		{Name: "dp.flows.0.weight", Group: GroupOther, Shape: []int64{hidden, hidden}},
		{Name: "flow.flows.0.enc.weight", Group: GroupOther, Shape: []int64{hidden, hidden}},

		{Name: "dec.conv_pre.weight", Group: GroupVocoder, Shape: []int64{512, hidden, 7}},
		{Name: "dec.ups.0.weight", Group: GroupVocoder, Shape: []int64{512, 256, 16}},
		{Name: "dec.ups.1.weight", Group: GroupVocoder, Shape: []int64{256, 128, 16}},
		{Name: "dec.resblocks.0.convs.0.weight", Group: GroupVocoder, Shape: []int64{128, 128, 3}},
		{Name: "dec.conv_post.weight", Group: GroupVocoder, Shape: []int64{1, 128, 7}},
	}
	if numSpeakers > 1 {
		specs = append(specs, ParamSpec{
			Name: "emb_g.weight", Group: GroupEmbedding, Shape: []int64{numSpeakers, 256},
		})
	}
	return specs
}
