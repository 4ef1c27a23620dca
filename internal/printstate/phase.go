// Package printstate turns raw printer snapshots into a print phase and the
// text shown to the operator.
package printstate

// Phase is the semantic classification of printer activity.
type Phase string

const (
	PhaseNotReady Phase = "not_ready"
	PhaseStandby  Phase = "standby"
	PhasePrinting Phase = "printing"
	PhasePaused   Phase = "paused"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
	// PhaseUnknown covers print_stats labels this package does not know. The
	// raw label is kept in State.Label.
	PhaseUnknown Phase = "unknown"
)

func (p Phase) String() string { return string(p) }

// State is the outcome of Interpret.
type State struct {
	Phase Phase
	// Label is the raw print_stats.state the phase was derived from.
	Label string
	// Message is empty only for PhasePrinting.
	Message string
}

// Terminal reports whether a watch observing this state should end. Only
// printing keeps a watch alive.
func (s State) Terminal() bool { return s.Phase != PhasePrinting }
