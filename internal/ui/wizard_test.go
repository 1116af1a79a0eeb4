package ui

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/codestore"
	"github.com/Mohsinsiddi/w3canvas/internal/contract"
	"github.com/Mohsinsiddi/w3canvas/internal/wizard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenABI = `[{"type":"constructor","inputs":[{"name":"name","type":"string"},{"name":"supply","type":"uint256"}]}]`
	deployer = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	created  = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
)

var tokenHash = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")

type codes struct {
	code *codestore.Code
	err  error
}

func (c *codes) Entries(context.Context) ([]codestore.StorageEntry, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []codestore.StorageEntry{{Key: c.code.Hash, Value: c.code}}, nil
}

func (c *codes) Get(hash string) (*codestore.Code, error) {
	if common.HexToHash(hash) != c.code.Hash {
		return nil, codestore.ErrCodeNotFound
	}
	return c.code, nil
}

func (c *codes) Upload(string) (*codestore.Code, error) { return nil, errors.New("unsupported") }

type deployFn func(context.Context, contract.Request) (*contract.Result, error)

func (f deployFn) Instantiate(ctx context.Context, req contract.Request) (*contract.Result, error) {
	return f(ctx, req)
}

type saver struct{ refs []contract.Reference }

func (s *saver) Save(ref contract.Reference) error {
	s.refs = append(s.refs, ref)
	return nil
}

func newModel(t *testing.T, deploy deployFn) (instantiateModel, *saver) {
	t.Helper()
	meta, err := contract.ParseMetadata("Token", []byte(tokenABI))
	require.NoError(t, err)
	sv := &saver{}
	s := wizard.NewSession(wizard.Deps{
		Codes:     &codes{code: &codestore.Code{Hash: tokenHash, Name: "Token", Metadata: meta, Bytecode: []byte{0x60}}},
		Contracts: sv,
		NewInstantiator: func(string) (wizard.Instantiator, error) {
			return deploy, nil
		},
		Network: "local",
	})
	m := newInstantiateModel(context.Background(), s, WizardOptions{
		Network:   "local",
		CodeNames: map[string]string{tokenHash.Hex(): "Token"},
		Accounts:  []PickerItem{{Label: "dev", SubLabel: deployer, Value: deployer}},
	})
	return m, sv
}

func send(t *testing.T, m instantiateModel, keys ...string) instantiateModel {
	t.Helper()
	var tm tea.Model = m
	for _, k := range keys {
		tm, _ = tm.Update(key(k))
	}
	return tm.(instantiateModel)
}

func typeText(t *testing.T, m instantiateModel, s string) instantiateModel {
	t.Helper()
	var tm tea.Model = m
	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return tm.(instantiateModel)
}

func loaded(t *testing.T, m instantiateModel) instantiateModel {
	t.Helper()
	tm, _ := m.Update(m.loadCodes()())
	return tm.(instantiateModel)
}

func okDeploy(context.Context, contract.Request) (*contract.Result, error) {
	return &contract.Result{
		TxHash:  "0xabc",
		ChainID: big.NewInt(31337),
		From:    deployer,
		Events: []chain.Event{
			{Kind: chain.EventInstantiated, Address: created, Deployer: deployer},
			{Kind: chain.EventTxSuccess},
		},
	}, nil
}

// toReview drives the model through steps 1 and 2.
func toReview(t *testing.T, m instantiateModel) instantiateModel {
	t.Helper()
	m = loaded(t, m)
	m = send(t, m, "enter")
	m = typeText(t, m, "Gold")
	m = send(t, m, "tab")
	m = typeText(t, m, "1000")
	m = send(t, m, "enter", "enter")
	require.Equal(t, wizard.PhaseStep3, m.session.State().Phase(), m.notice)
	return m
}

func TestWizardLoadsCodes(t *testing.T) {
	m, _ := newModel(t, okDeploy)
	assert.Contains(t, m.View(), "loading code hashes")

	m = loaded(t, m)
	require.True(t, m.loaded)
	require.Len(t, m.codes.items, 1)
	assert.Equal(t, "Token", m.codes.items[0].Label)
	assert.Contains(t, m.View(), "Token")
}

func TestWizardLoadFailureShown(t *testing.T) {
	m, _ := newModel(t, okDeploy)
	m.session = wizard.NewSession(wizard.Deps{Codes: &codes{err: errors.New("disk gone")}})
	m = loaded(t, m)
	assert.Contains(t, m.View(), "disk gone")
}

func TestWizardDropsCodesAfterClose(t *testing.T) {
	m, _ := newModel(t, okDeploy)
	msg := m.loadCodes()
	m.session.Close()
	tm, _ := m.Update(msg())
	assert.False(t, tm.(instantiateModel).loaded)
}

func TestWizardFullFlow(t *testing.T) {
	var got contract.Request
	m, sv := newModel(t, func(ctx context.Context, req contract.Request) (*contract.Result, error) {
		got = req
		return okDeploy(ctx, req)
	})
	m = toReview(t, m)

	st := m.session.State()
	assert.Equal(t, map[string]string{"name": "Gold", "supply": "1000"}, st.ArgValues)
	assert.Equal(t, deployer, st.FromAddress)
	assert.Contains(t, m.View(), "Review")

	var tm tea.Model = m
	tm, cmd := tm.Update(key("enter"))
	require.NotNil(t, cmd)
	m = tm.(instantiateModel)
	assert.True(t, m.submitted)

	tm, _ = m.Update(m.instantiate()())
	m = tm.(instantiateModel)

	assert.Equal(t, wizard.PhaseSuccess, m.session.State().Phase())
	assert.Equal(t, "Gold", got.ArgValues["name"])
	require.Len(t, sv.refs, 1)
	assert.Equal(t, common.HexToAddress(created).Hex(), sv.refs[0].Address)

	v := m.View()
	assert.Contains(t, v, "Contract instantiated")
	assert.Contains(t, v, common.HexToAddress(created).Hex())
	assert.Contains(t, v, "TxSuccess")
}

func TestWizardFailureShowsError(t *testing.T) {
	m, sv := newModel(t, func(context.Context, contract.Request) (*contract.Result, error) {
		return nil, errors.New("execution reverted: sold out")
	})
	m = toReview(t, m)
	tm, _ := m.Update(m.instantiate()())
	m = tm.(instantiateModel)

	assert.Equal(t, wizard.PhaseFailed, m.session.State().Phase())
	assert.Contains(t, m.View(), "sold out")
	assert.Empty(t, sv.refs)

	m = send(t, m, "enter")
	assert.True(t, m.quitting)
	assert.True(t, m.session.Closed())
}

func TestWizardRejectsBadArgument(t *testing.T) {
	m, _ := newModel(t, okDeploy)
	m = loaded(t, m)
	m = send(t, m, "enter")
	m = typeText(t, m, "Gold")
	m = send(t, m, "tab")
	m = typeText(t, m, "lots")
	m = send(t, m, "enter", "enter")

	assert.Equal(t, wizard.PhaseStep2, m.session.State().Phase())
	assert.Contains(t, m.notice, "supply")
}

func TestWizardBackKeepsArgs(t *testing.T) {
	m, _ := newModel(t, okDeploy)
	m = toReview(t, m)

	m = send(t, m, "esc")
	require.Equal(t, wizard.PhaseStep2, m.session.State().Phase())
	assert.Equal(t, len(m.keys), m.field, "back lands on the account list")
	assert.Equal(t, "1000", m.args["supply"])

	// Walk back to step 1 through the fields.
	m = send(t, m, "shift+tab", "shift+tab", "shift+tab")
	assert.Equal(t, wizard.PhaseStep1, m.session.State().Phase())
}

func TestWizardBackspaceEditsField(t *testing.T) {
	m, _ := newModel(t, okDeploy)
	m = loaded(t, m)
	m = send(t, m, "enter")
	m = typeText(t, m, "Golx")
	m = send(t, m, "backspace")
	m = typeText(t, m, "d")
	assert.Equal(t, "Gold", m.args["name"])
	assert.True(t, strings.Contains(m.View(), "Gold"))
}

func TestWizardQuitClosesSession(t *testing.T) {
	m, _ := newModel(t, okDeploy)
	m = send(t, m, "ctrl+c")
	assert.True(t, m.quitting)
	assert.True(t, m.session.Closed())
	assert.Empty(t, m.View())
}

func TestStepBar(t *testing.T) {
	st := wizard.NewState()
	bar := stepBar(st)
	assert.Contains(t, bar, "1 Code")
	assert.Contains(t, bar, "3 Submit")

	st.Step = wizard.Step3
	bar = stepBar(st)
	assert.Contains(t, bar, "✓ Code")
	assert.Contains(t, bar, "✓ Constructor")
}
