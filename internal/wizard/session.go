package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/codestore"
	"github.com/Mohsinsiddi/w3canvas/internal/contract"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned by a session after Close.
	ErrClosed = errors.New("wizard session closed")
	// ErrNoContractAddress is returned when a finalized deployment produced no
	// instantiation event.
	ErrNoContractAddress = errors.New("no contract address in deployment events")
)

// CodeStore is where step 1 gets its code from.
type CodeStore interface {
	codestore.Source
	Get(hash string) (*codestore.Code, error)
	Upload(path string) (*codestore.Code, error)
}

// Instantiator submits a deployment and waits for it to finalize.
type Instantiator interface {
	Instantiate(ctx context.Context, req contract.Request) (*contract.Result, error)
}

// ContractSaver persists created contracts.
type ContractSaver interface {
	Save(ref contract.Reference) error
}

// Deps are the collaborators of a Session.
type Deps struct {
	Codes     CodeStore
	Contracts ContractSaver
	// NewInstantiator returns an instantiator signing as from.
	NewInstantiator func(from string) (Instantiator, error)
	Network         string
	Log             *zap.Logger
	Now             func() time.Time
}

// Session owns one wizard's State. Dispatch is serialised; async effects run
// outside the lock and report back through Dispatch.
type Session struct {
	id   string
	deps Deps
	log  *zap.Logger

	mu     sync.Mutex
	state  State
	closed bool
}

// NewSession starts a fresh wizard at step 1.
func NewSession(deps Deps) *Session {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	id := uuid.NewString()
	return &Session{
		id:    id,
		deps:  deps,
		log:   deps.Log.With(zap.String("session", id)),
		state: NewState(),
	}
}

// ID returns the session id used in logs.
func (s *Session) ID() string { return s.id }

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a to the session state.
func (s *Session) Dispatch(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.log.Debug("dropping action on closed session", zap.String("action", a.Name()))
		return ErrClosed
	}
	next, err := Reduce(s.state, a)
	if err != nil {
		s.log.Warn("rejected action", zap.String("action", a.Name()), zap.Int("step", int(s.state.Step)), zap.Error(err))
		return err
	}
	s.log.Debug("action", zap.String("action", a.Name()), zap.Int("from_step", int(s.state.Step)), zap.Int("to_step", int(next.Step)))
	s.state = next
	return nil
}

// Close marks the session as gone. Later dispatches and async results are
// dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// LoadCodeHashes lists the deployable code hashes. A failure is logged and
// reported in the result; if the session closed meanwhile the result is
// dropped and Err is ErrClosed.
func (s *Session) LoadCodeHashes(ctx context.Context) codestore.CodeHashResult {
	res := codestore.QueryCodeHashes(ctx, s.deps.Codes)
	if res.Failed() {
		s.log.Error("fetching code hashes", zap.Error(res.Err))
	}
	if s.Closed() {
		return codestore.CodeHashResult{Hashes: []string{}, Err: ErrClosed}
	}
	return res
}

// SelectCode completes step 1 with a stored code hash.
func (s *Session) SelectCode(hash string) error {
	code, err := s.deps.Codes.Get(hash)
	if err != nil {
		return err
	}
	if !code.Deployable() {
		return fmt.Errorf("%s has no bytecode: %w", hash, contract.ErrNoBytecode)
	}
	return s.Dispatch(Step1Complete{CodeHash: code.Hash.Hex(), Metadata: code.Metadata})
}

// UploadCode stores an artifact and completes step 1 with it.
func (s *Session) UploadCode(path string) (*codestore.Code, error) {
	code, err := s.deps.Codes.Upload(path)
	if err != nil {
		return nil, err
	}
	s.log.Info("code uploaded", zap.String("code_hash", code.Hash.Hex()), zap.String("name", code.Name))
	if !code.Deployable() {
		return code, fmt.Errorf("%s has no bytecode: %w", code.Name, contract.ErrNoBytecode)
	}
	return code, s.Dispatch(Step1Complete{CodeHash: code.Hash.Hex(), Metadata: code.Metadata})
}

// Instantiate submits the deployment collected in steps 1 and 2, then saves
// and records the created contract. Every failure after the submission
// started ends in InstantiateError; there are no retries.
func (s *Session) Instantiate(ctx context.Context) error {
	if err := s.Dispatch(Instantiate{}); err != nil {
		return err
	}
	st := s.State()
	log := s.log.With(zap.String("code_hash", st.CodeHash), zap.String("from", st.FromAddress))
	log.Info("instantiating", zap.String("constructor", st.ConstructorName))

	code, err := s.deps.Codes.Get(st.CodeHash)
	if err != nil {
		return s.fail(log, err)
	}
	if s.deps.NewInstantiator == nil {
		return s.fail(log, errors.New("no instantiator configured"))
	}
	inst, err := s.deps.NewInstantiator(st.FromAddress)
	if err != nil {
		return s.fail(log, err)
	}

	res, err := inst.Instantiate(ctx, contract.Request{
		CodeHash:        st.CodeHash,
		Bytecode:        code.Bytecode,
		Metadata:        st.Metadata,
		ConstructorName: st.ConstructorName,
		ArgValues:       st.ArgValues,
	})
	if res != nil {
		// Only fails once closed; the deployment still gets recorded below.
		_ = s.Dispatch(InstantiateFinalized{Events: res.Events})
	}
	if err != nil {
		return s.fail(log, err)
	}

	addr, ok := chain.ContractAddressFromEvents(res.Events)
	if !ok {
		return s.fail(log, ErrNoContractAddress)
	}

	ref := contract.Reference{
		Address:    addr.Hex(),
		Name:       st.Metadata.Name,
		Network:    s.deps.Network,
		CodeHash:   st.CodeHash,
		ABI:        st.Metadata.ABIJSON,
		Deployer:   firstNonEmpty(res.From, st.FromAddress),
		TxHash:     res.TxHash,
		DeployedAt: s.deps.Now().UTC().Format(time.RFC3339),
	}
	if res.ChainID != nil {
		ref.ChainID = res.ChainID.Int64()
	}
	instance, err := contract.NewInstance(ref)
	if err != nil {
		return s.fail(log, err)
	}
	if s.deps.Contracts != nil {
		if err := s.deps.Contracts.Save(ref); err != nil {
			return s.fail(log, fmt.Errorf("saving contract: %w", err))
		}
	}

	log.Info("contract instantiated", zap.String("address", ref.Address), zap.String("tx", ref.TxHash))
	if err := s.Dispatch(InstantiateSuccess{Contract: instance}); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}

func (s *Session) fail(log *zap.Logger, err error) error {
	log.Error("instantiation failed", zap.Error(err))
	if derr := s.Dispatch(InstantiateError{Err: err}); errors.Is(derr, ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
