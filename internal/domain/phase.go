package domain

// Phase identifies one step of the fixed design-thinking sequence. The phase
// of a project advances by user action only; the store never moves it.
type Phase string

// The five phases, in workshop order. Phase keys double as the top-level keys
// of the StageData bag, so they must stay lowercase and stable.
const (
	PhaseEmpathize Phase = "empathize"
	PhaseDefine    Phase = "define"
	PhaseIdeate    Phase = "ideate"
	PhasePrototype Phase = "prototype"
	PhaseTest      Phase = "test"
)

// String returns the lowercase phase key as stored and as used in the bag.
func (p Phase) String() string { return string(p) }

// phaseOrder is the canonical sequence used for advancement checks.
var phaseOrder = []Phase{PhaseEmpathize, PhaseDefine, PhaseIdeate, PhasePrototype, PhaseTest}

// Phases returns the full sequence in workshop order.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// Valid reports whether p is one of the five known phases.
func (p Phase) Valid() bool {
	for _, q := range phaseOrder {
		if p == q {
			return true
		}
	}
	return false
}

// Index returns the position of p in the sequence, or -1 for unknown phases.
func (p Phase) Index() int {
	for i, q := range phaseOrder {
		if p == q {
			return i
		}
	}
	return -1
}

// Next returns the phase following p and true, or p and false when p is the
// last phase (or unknown).
func (p Phase) Next() (Phase, bool) {
	i := p.Index()
	if i < 0 || i == len(phaseOrder)-1 {
		return p, false
	}
	return phaseOrder[i+1], true
}
