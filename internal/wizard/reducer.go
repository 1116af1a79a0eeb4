package wizard

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/samber/lo"
)

var (
	// ErrInvalidTransition is returned when an action's precondition fails.
	ErrInvalidTransition = errors.New("invalid wizard transition")
	// ErrMissingCode is returned when step 1 completes without a code hash or
	// metadata.
	ErrMissingCode = errors.New("code hash and metadata are required")
	// ErrUnknownAction is returned for an action Reduce does not handle.
	ErrUnknownAction = errors.New("unknown wizard action")
)

// Reduce applies a to s. It has no side effects. When a precondition fails it
// returns s unchanged together with the error. A failed state is final: only
// the events of the failed deployment may still arrive.
func Reduce(s State, a Action) (State, error) {
	if s.failed() {
		if _, ok := a.(InstantiateFinalized); !ok {
			return s, fmt.Errorf("%w: %s after failure", ErrInvalidTransition, a.Name())
		}
	}
	switch a := a.(type) {
	case Step1Complete:
		if a.CodeHash == "" || a.Metadata == nil {
			return s, ErrMissingCode
		}
		if s.IsLoading || s.IsSuccess {
			return s, fmt.Errorf("%w: code cannot change after submission", ErrInvalidTransition)
		}
		if s.Step != Step1 {
			return s, fmt.Errorf("%w: not on step 1", ErrInvalidTransition)
		}
		if a.CodeHash != s.CodeHash {
			// Arguments belong to the previous code's constructor.
			s.ConstructorName = ""
			s.ArgValues = nil
		}
		s.CodeHash = a.CodeHash
		s.Metadata = a.Metadata
		s.Step = Step2
		return s, nil

	case Step2Complete:
		if s.Step < Step2 || !s.HasCode() {
			return s, fmt.Errorf("%w: step 1 is not complete", ErrInvalidTransition)
		}
		if s.IsLoading || s.IsSuccess {
			return s, fmt.Errorf("%w: arguments cannot change after submission", ErrInvalidTransition)
		}
		if a.ConstructorName == "" {
			return s, fmt.Errorf("%w: no constructor chosen", ErrInvalidTransition)
		}
		if _, err := s.Metadata.Constructor(a.ConstructorName); err != nil {
			return s, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		s.ConstructorName = a.ConstructorName
		s.ArgValues = lo.Assign(a.ArgValues)
		s.FromAddress = a.FromAddress
		s.Step = Step3
		return s, nil

	case GoTo:
		if !a.Step.Valid() {
			return s, fmt.Errorf("%w: no step %d", ErrInvalidTransition, a.Step)
		}
		if s.IsLoading {
			return s, fmt.Errorf("%w: submission in flight", ErrInvalidTransition)
		}
		if a.Step >= Step2 && !s.HasCode() {
			return s, fmt.Errorf("%w: step 1 is not complete", ErrInvalidTransition)
		}
		if a.Step == Step3 && s.ConstructorName == "" {
			return s, fmt.Errorf("%w: step 2 is not complete", ErrInvalidTransition)
		}
		s.Step = a.Step
		return s, nil

	case Instantiate:
		if s.Step != Step3 {
			return s, fmt.Errorf("%w: step 3 not reached", ErrInvalidTransition)
		}
		if s.IsLoading || s.Done() {
			return s, fmt.Errorf("%w: already submitted", ErrInvalidTransition)
		}
		s.IsLoading = true
		s.Err = nil
		return s, nil

	case InstantiateFinalized:
		s.Events = append([]chain.Event(nil), a.Events...)
		return s, nil

	case InstantiateSuccess:
		s.IsSuccess = true
		s.Contract = a.Contract
		s.IsLoading = false
		return s, nil

	case InstantiateError:
		s.IsLoading = false
		s.Err = a.Err
		if s.Err == nil {
			s.Err = errors.New("instantiation failed")
		}
		return s, nil

	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}
