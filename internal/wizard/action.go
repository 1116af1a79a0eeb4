package wizard

import (
	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/contract"
)

// Action is one wizard transition. The set is closed: only the types in this
// file implement it.
type Action interface {
	Name() string
	isAction()
}

// Step1Complete records the chosen code.
type Step1Complete struct {
	CodeHash string
	Metadata *contract.Metadata
}

// Step2Complete records the constructor, its arguments and the account.
type Step2Complete struct {
	ConstructorName string
	ArgValues       map[string]string
	FromAddress     string
}

// GoTo moves to another step.
type GoTo struct {
	Step Step
}

// Instantiate marks the submission as in flight.
type Instantiate struct{}

// InstantiateFinalized records the events of the finalized transaction.
type InstantiateFinalized struct {
	Events []chain.Event
}

// InstantiateSuccess records the created contract.
type InstantiateSuccess struct {
	Contract *contract.Instance
}

// InstantiateError records a failed submission.
type InstantiateError struct {
	Err error
}

func (Step1Complete) Name() string        { return "STEP_1_COMPLETE" }
func (Step2Complete) Name() string        { return "STEP_2_COMPLETE" }
func (GoTo) Name() string                 { return "GO_TO" }
func (Instantiate) Name() string          { return "INSTANTIATE" }
func (InstantiateFinalized) Name() string { return "INSTANTIATE_FINALIZED" }
func (InstantiateSuccess) Name() string   { return "INSTANTIATE_SUCCESS" }
func (InstantiateError) Name() string     { return "INSTANTIATE_ERROR" }

func (Step1Complete) isAction()        {}
func (Step2Complete) isAction()        {}
func (GoTo) isAction()                 {}
func (Instantiate) isAction()          {}
func (InstantiateFinalized) isAction() {}
func (InstantiateSuccess) isAction()   {}
func (InstantiateError) isAction()     {}
