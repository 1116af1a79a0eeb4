// Package wizard is the instantiate-contract wizard: a pure state machine
// over three steps and the session that drives it.
package wizard

import (
	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/contract"
)

// Step is a wizard page.
type Step int

const (
	Step1 Step = iota + 1 // pick or upload code
	Step2                 // constructor, arguments, account
	Step3                 // review and submit
)

func (s Step) Valid() bool { return s >= Step1 && s <= Step3 }

// Phase is the coarse position in the wizard, derived from State.
type Phase string

const (
	PhaseStep1   Phase = "step1"
	PhaseStep2   Phase = "step2"
	PhaseStep3   Phase = "step3"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

// State is everything the wizard has collected so far.
type State struct {
	Step            Step
	CodeHash        string
	Metadata        *contract.Metadata
	FromAddress     string
	ConstructorName string
	ArgValues       map[string]string
	IsLoading       bool
	IsSuccess       bool
	Contract        *contract.Instance
	Err             error
	Events          []chain.Event
}

// NewState returns the state of a fresh wizard.
func NewState() State {
	return State{Step: Step1}
}

// Phase reports where the wizard is.
func (s State) Phase() Phase {
	switch {
	case s.IsSuccess:
		return PhaseSuccess
	case s.IsLoading:
		return PhaseLoading
	case s.Err != nil:
		return PhaseFailed
	}
	switch s.Step {
	case Step2:
		return PhaseStep2
	case Step3:
		return PhaseStep3
	default:
		return PhaseStep1
	}
}

// HasCode reports whether step 1 has been completed.
func (s State) HasCode() bool { return s.CodeHash != "" && s.Metadata != nil }

func (s State) failed() bool { return s.Err != nil && !s.IsLoading }

// Done reports whether the wizard reached a terminal state.
func (s State) Done() bool { return s.IsSuccess || (s.Err != nil && !s.IsLoading) }
