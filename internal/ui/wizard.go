package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/codestore"
	"github.com/Mohsinsiddi/w3canvas/internal/contract"
	"github.com/Mohsinsiddi/w3canvas/internal/wizard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/samber/lo"
)

// WizardOptions configures the instantiate wizard.
type WizardOptions struct {
	Network        string
	CodeNames      map[string]string // code hash -> contract name
	Accounts       []PickerItem      // Value is the signing address
	DefaultAccount string
}

type (
	codeHashesMsg   codestore.CodeHashResult
	instantiatedMsg struct{ err error }
	tickMsg         struct{}
)

// instantiateModel is the bubbletea front end of a wizard.Session. All
// wizard state lives in the session; the model only keeps what is being
// typed before it is dispatched.
type instantiateModel struct {
	ctx     context.Context
	session *wizard.Session
	opts    WizardOptions

	codes   listView
	loaded  bool
	loadErr error

	// step 2 inputs
	ctorName string
	inputs   abi.Arguments
	keys     []string
	args     map[string]string
	field    int // index into keys; len(keys) is the account list
	accounts listView

	submitted bool
	notice    string
	frame     int
	quitting  bool
}

func newInstantiateModel(ctx context.Context, s *wizard.Session, opts WizardOptions) instantiateModel {
	accounts := listView{items: opts.Accounts}
	accounts.selectValue(opts.DefaultAccount)
	return instantiateModel{ctx: ctx, session: s, opts: opts, accounts: accounts}
}

func (m instantiateModel) Init() tea.Cmd {
	return tea.Batch(m.loadCodes(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m instantiateModel) loadCodes() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg { return codeHashesMsg(s.LoadCodeHashes(ctx)) }
}

func (m instantiateModel) instantiate() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg { return instantiatedMsg{err: s.Instantiate(ctx)} }
}

func (m instantiateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.frame++
		if m.quitting {
			return m, nil
		}
		return m, tick()

	case codeHashesMsg:
		res := codestore.CodeHashResult(msg)
		if errors.Is(res.Err, wizard.ErrClosed) {
			return m, nil
		}
		m.loaded, m.loadErr = true, res.Err
		m.codes = listView{items: lo.Map(res.Hashes, func(h string, _ int) PickerItem {
			name := m.opts.CodeNames[h]
			if name == "" {
				return PickerItem{Label: TruncateHash(h), Value: h}
			}
			return PickerItem{Label: name, SubLabel: TruncateHash(h), Value: h}
		})}
		return m, nil

	case instantiatedMsg:
		m.submitted = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m instantiateModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k == "ctrl+c" {
		return m.quit()
	}
	m.notice = ""

	switch m.session.State().Phase() {
	case wizard.PhaseLoading:
		return m, nil
	case wizard.PhaseSuccess, wizard.PhaseFailed:
		if k == "enter" || k == "q" || k == "esc" {
			return m.quit()
		}
		return m, nil
	case wizard.PhaseStep1:
		return m.updateCode(k)
	case wizard.PhaseStep2:
		return m.updateArgs(msg)
	default:
		return m.updateReview(k)
	}
}

func (m instantiateModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.session.Close()
	return m, tea.Quit
}

func (m instantiateModel) updateCode(k string) (tea.Model, tea.Cmd) {
	switch k {
	case "q", "esc":
		return m.quit()
	case "up", "k":
		m.codes.move(-1)
	case "down", "j":
		m.codes.move(1)
	case "r":
		m.loaded = false
		return m, m.loadCodes()
	case "enter":
		item, ok := m.codes.selected()
		if !ok {
			return m, nil
		}
		if err := m.session.SelectCode(item.Value); err != nil {
			m.notice = trimErr(err.Error())
			return m, nil
		}
		m.enterArgs()
	}
	return m, nil
}

// enterArgs loads the step 2 inputs from the session, keeping values typed
// earlier for the same code.
func (m *instantiateModel) enterArgs() {
	st := m.session.State()
	if st.Metadata == nil || len(st.Metadata.Constructors) == 0 {
		return
	}
	ctor := st.Metadata.Constructors[0]
	if c, err := st.Metadata.Constructor(st.ConstructorName); err == nil {
		ctor = *c
	}
	m.ctorName, m.inputs = ctor.Name, ctor.Inputs
	m.keys = make([]string, len(ctor.Inputs))
	for i, in := range ctor.Inputs {
		m.keys[i] = contract.ArgKey(i, in)
	}
	m.args = contract.EmptyArgValues(ctor.Inputs)
	for k, v := range st.ArgValues {
		if _, ok := m.args[k]; ok {
			m.args[k] = v
		}
	}
	m.field = 0
	if st.FromAddress != "" {
		m.accounts.selectValue(st.FromAddress)
	}
}

func (m instantiateModel) updateArgs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.field < len(m.keys) {
		key := m.keys[m.field]
		switch msg.Type {
		case tea.KeyEnter, tea.KeyTab, tea.KeyDown:
			m.field++
		case tea.KeyShiftTab, tea.KeyEsc, tea.KeyUp:
			if m.field == 0 {
				return m.back(wizard.Step1)
			}
			m.field--
		case tea.KeyBackspace:
			if r := []rune(m.args[key]); len(r) > 0 {
				m.args[key] = string(r[:len(r)-1])
			}
		case tea.KeySpace:
			m.args[key] += " "
		case tea.KeyRunes:
			m.args[key] += string(msg.Runes)
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.accounts.move(-1)
	case "down", "j":
		m.accounts.move(1)
	case "shift+tab", "esc":
		if len(m.keys) == 0 {
			return m.back(wizard.Step1)
		}
		m.field--
	case "enter":
		acct, ok := m.accounts.selected()
		if !ok {
			m.notice = "no wallet to deploy from"
			return m, nil
		}
		st := m.session.State()
		if _, err := contract.EncodeConstructorArgs(st.Metadata, m.ctorName, m.args); err != nil {
			m.notice = trimErr(err.Error())
			return m, nil
		}
		err := m.session.Dispatch(wizard.Step2Complete{
			ConstructorName: m.ctorName,
			ArgValues:       m.args,
			FromAddress:     acct.Value,
		})
		if err != nil {
			m.notice = trimErr(err.Error())
		}
	}
	return m, nil
}

func (m instantiateModel) updateReview(k string) (tea.Model, tea.Cmd) {
	switch k {
	case "q":
		return m.quit()
	case "esc", "shift+tab", "b":
		return m.back(wizard.Step2)
	case "enter", "y":
		if m.submitted {
			return m, nil
		}
		m.submitted = true
		return m, m.instantiate()
	}
	return m, nil
}

func (m instantiateModel) back(to wizard.Step) (tea.Model, tea.Cmd) {
	if err := m.session.Dispatch(wizard.GoTo{Step: to}); err != nil {
		m.notice = trimErr(err.Error())
		return m, nil
	}
	if to == wizard.Step2 {
		m.enterArgs()
		m.field = len(m.keys)
	}
	return m, nil
}

// --- view ---

func (m instantiateModel) View() string {
	if m.quitting {
		return ""
	}
	st := m.session.State()

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Instantiate contract"))
	if m.opts.Network != "" {
		b.WriteString("  " + NetworkName(m.opts.Network))
	}
	b.WriteString("\n" + stepBar(st) + "\n\n")

	var help string
	switch st.Phase() {
	case wizard.PhaseStep1:
		b.WriteString(m.viewCode())
		help = "↑/↓ navigate · Enter select · r reload · q quit"
	case wizard.PhaseStep2:
		b.WriteString(m.viewArgs())
		help = "Enter/Tab next · Shift+Tab back · ctrl+c quit"
	case wizard.PhaseStep3:
		b.WriteString(viewReview(st))
		help = "Enter instantiate · Esc back · q quit"
	case wizard.PhaseLoading:
		b.WriteString(SpinnerFrame(m.frame) + "  submitting deployment and waiting for finalization…\n")
		help = "ctrl+c abort"
	case wizard.PhaseSuccess:
		b.WriteString(viewResult(st))
		help = "Enter exit"
	case wizard.PhaseFailed:
		b.WriteString(viewResult(st))
		help = "Enter exit"
	}

	if m.notice != "" {
		b.WriteString("\n" + Err(m.notice) + "\n")
	}
	b.WriteString("\n" + StyleMeta.Render(help))
	return StyleBorder.Render(b.String()) + "\n"
}

func stepBar(st wizard.State) string {
	names := []string{"Code", "Constructor", "Submit"}
	parts := make([]string, len(names))
	for i, n := range names {
		step := wizard.Step(i + 1)
		label := fmt.Sprintf("%d %s", step, n)
		switch {
		case step == st.Step && !st.Done():
			parts[i] = StyleStepActive.Render(label)
		case step < st.Step || st.IsSuccess:
			parts[i] = StyleStepDone.Render("✓ " + n)
		default:
			parts[i] = StyleMeta.Render(label)
		}
	}
	return strings.Join(parts, StyleMeta.Render(" › "))
}

func (m instantiateModel) viewCode() string {
	switch {
	case !m.loaded:
		return SpinnerFrame(m.frame) + "  loading code hashes…\n"
	case m.loadErr != nil:
		return Err("could not load code hashes: "+trimErr(m.loadErr.Error())) + "\n" +
			Hint("press r to retry") + "\n"
	case len(m.codes.items) == 0:
		return Meta("no deployable code uploaded yet") + "\n" +
			Hint("w3canvas code upload <artifact.json>") + "\n"
	}
	return "Pick the code to instantiate:\n\n" + m.codes.render()
}

func (m instantiateModel) viewArgs() string {
	var b strings.Builder
	b.WriteString("Constructor " + Val(m.ctorName) + "\n\n")
	if len(m.keys) == 0 {
		b.WriteString(Meta("  no arguments") + "\n")
	}
	for i, key := range m.keys {
		label := padR(ArgPrompt(key, m.inputs[i].Type.String()), 28)
		val := m.args[key]
		if i == m.field {
			b.WriteString(StyleStepActive.Render("▸ "+label) + " " + Val(val) + "█\n")
		} else {
			b.WriteString("  " + Meta(label) + " " + val + "\n")
		}
	}

	b.WriteString("\nDeploy from:\n")
	switch {
	case len(m.accounts.items) == 0:
		b.WriteString(Warn("no wallets") + "  " + Hint("w3canvas wallet import <name> <key>") + "\n")
	case m.field == len(m.keys):
		b.WriteString(m.accounts.render())
	default:
		if acct, ok := m.accounts.selected(); ok {
			b.WriteString("  " + Meta(acct.Label+"  "+acct.SubLabel) + "\n")
		}
	}
	return b.String()
}

func viewReview(st wizard.State) string {
	pairs := [][2]string{
		{"Contract", st.Metadata.Name},
		{"Code hash", TruncateHash(st.CodeHash)},
		{"Constructor", st.ConstructorName},
		{"From", st.FromAddress},
	}
	keys := lo.Keys(st.ArgValues)
	if ctor, err := st.Metadata.Constructor(st.ConstructorName); err == nil {
		keys = make([]string, len(ctor.Inputs))
		for i, in := range ctor.Inputs {
			keys[i] = contract.ArgKey(i, in)
		}
	}
	for _, k := range keys {
		pairs = append(pairs, [2]string{"  " + k, st.ArgValues[k]})
	}
	return KeyValueBlock("Review", pairs) + "\n"
}

func viewResult(st wizard.State) string {
	var b strings.Builder
	if st.IsSuccess && st.Contract != nil {
		b.WriteString(Success("Contract instantiated") + "\n\n")
		b.WriteString("  Address  " + Addr(st.Contract.Address.Hex()) + "\n")
		b.WriteString("  Name     " + Val(st.Contract.Name()) + "\n\n")
	} else if st.Err != nil {
		b.WriteString(Err("Instantiation failed: "+trimErr(st.Err.Error())) + "\n\n")
	}
	if len(st.Events) > 0 {
		b.WriteString("Events:\n" + EventsBlock(st.Events) + "\n")
	}
	return b.String()
}

// RunInstantiateWizard runs the interactive wizard on s until the user
// finishes or quits, then closes the session and returns its final state.
func RunInstantiateWizard(ctx context.Context, s *wizard.Session, opts WizardOptions) (wizard.State, error) {
	m := newInstantiateModel(ctx, s, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	s.Close()
	if err != nil {
		return s.State(), fmt.Errorf("wizard: %w", err)
	}
	return s.State(), nil
}
