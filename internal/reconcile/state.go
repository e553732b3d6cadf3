package reconcile

import (
	"github.com/goliatone/go-autotranslate/internal/fields"
)

// State is a step of the per-locale reconciliation state machine:
// start -> check_existing -> (merge | synthesize) -> committed, with failed
// reachable from every non-terminal state.
type State int

const (
	StateStart State = iota
	StateCheckExisting
	StateMerge
	StateSynthesize
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateCheckExisting:
		return "check_existing"
	case StateMerge:
		return "merge"
	case StateSynthesize:
		return "synthesize"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the terminal record of one target locale.
type Outcome struct {
	Locale string
	// State is StateCommitted or StateFailed.
	State State
	// Branch is StateMerge or StateSynthesize once check_existing completed,
	// otherwise the state the unit failed in.
	Branch State
	// Written is false when a merge had nothing to write.
	Written bool
	Report  fields.Report
	Err     error
}

// Result aggregates the outcomes of one invocation in target locale order.
type Result struct {
	Collection   string
	DocumentID   string
	SourceLocale string
	Outcomes     []Outcome
}

// Committed returns the locales that reached StateCommitted.
func (r *Result) Committed() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, outcome := range r.Outcomes {
		if outcome.State == StateCommitted {
			out = append(out, outcome.Locale)
		}
	}
	return out
}

// Failed returns the outcomes that reached StateFailed.
func (r *Result) Failed() []Outcome {
	if r == nil {
		return nil
	}
	var out []Outcome
	for _, outcome := range r.Outcomes {
		if outcome.State == StateFailed {
			out = append(out, outcome)
		}
	}
	return out
}

// Outcome returns the outcome recorded for locale.
func (r *Result) Outcome(locale string) (Outcome, bool) {
	if r == nil {
		return Outcome{}, false
	}
	for _, outcome := range r.Outcomes {
		if outcome.Locale == locale {
			return outcome, true
		}
	}
	return Outcome{}, false
}

// OK reports whether every locale committed.
func (r *Result) OK() bool {
	return len(r.Failed()) == 0
}
