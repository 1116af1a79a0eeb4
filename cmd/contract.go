package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/contract"
	"github.com/Mohsinsiddi/w3canvas/internal/ui"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	contractYes   bool
	contractFrom  string
	contractValue string
)

// shownResults is how many logged calls `contract show` prints.
const shownResults = 10

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Contracts created by w3canvas",
}

// ── contract list ─────────────────────────────────────────────────────────────

var contractListCmd = &cobra.Command{
	Use:   "list",
	Short: "List instantiated contracts",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		refs, err := newContractRegistry().All()
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			fmt.Fprintln(out, ui.Info("No contracts instantiated yet."))
			fmt.Fprintln(out, ui.Hint("w3canvas instantiate"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 18},
			{Title: "Address", Width: 42},
			{Title: "Network", Width: 12},
			{Title: "Deployed", Width: 16},
		})
		now := time.Now()
		for _, r := range refs {
			t.AddRow(ui.Row{r.Name, r.Address, r.Network, ui.Age(r.DeployedAt, now)})
		}
		fmt.Fprintln(out, t.Render())
		networks := lo.Uniq(lo.Map(refs, func(r contract.Reference, _ int) string { return r.Network }))
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d contract(s) on %d network(s)", len(refs), len(networks))))
		return nil
	},
}

// ── contract show ─────────────────────────────────────────────────────────────

var contractShowCmd = &cobra.Command{
	Use:   "show <address>",
	Short: "Show a stored contract and its methods",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		reg := newContractRegistry()
		ref, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.KeyValueBlock(ref.Name, [][2]string{
			{"Address", ref.Address},
			{"Network", fmt.Sprintf("%s (chain %d)", ref.Network, ref.ChainID)},
			{"Code hash", orDash(ref.CodeHash)},
			{"Deployer", orDash(ref.Deployer)},
			{"Tx", orDash(ref.TxHash)},
			{"Deployed", orDash(ref.DeployedAt)},
		}))

		inst, err := reg.Instance(ref.Address)
		if err != nil {
			fmt.Fprintln(out, ui.Warn(err.Error()))
			return nil
		}
		reads, writes := inst.Metadata.Methods()
		printMethods(out, "Read", reads)
		printMethods(out, "Write", writes)

		recs, err := newResultLog().List(ref.Address)
		if err != nil {
			return err
		}
		printResults(out, recs, time.Now())
		if len(reads) > 0 {
			fmt.Fprintln(out, ui.Hint(fmt.Sprintf("w3canvas contract call %s %s", ref.Address, reads[0].Name)))
		}
		return nil
	},
}

// ── contract call ─────────────────────────────────────────────────────────────

var contractCallCmd = &cobra.Command{
	Use:   "call <address> <method> [args...]",
	Short: "Call a method of a stored contract",
	Long: `Run a method with eth_call on the contract's network. Arguments use the same
text forms as constructor arguments.

View and pure methods are plain reads. Methods that change state are dry-run:
the node simulates them as --from (default: the default wallet) with --value
wei attached, and nothing is sent. Every call is logged and listed by
` + "`contract show`" + `.

Examples:
  w3canvas contract call 0x5FbDB2315678afecb367f032d93F642f64180aa3 totalSupply
  w3canvas contract call 0x5FbD…0aa3 balanceOf 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
  w3canvas contract call 0x5FbD…0aa3 deposit --from alice --value 1000`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		out := cmd.OutOrStdout()

		reg := newContractRegistry()
		ref, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		inst, err := reg.Instance(ref.Address)
		if err != nil {
			return err
		}
		value, err := contract.ParseWei(contractValue)
		if err != nil {
			return fmt.Errorf("--value: %w", err)
		}
		req := contract.CallRequest{Method: args[1], Args: args[2:], Value: value}
		if m, ok := inst.Metadata.ABI.Methods[req.Method]; ok && (!m.IsConstant() || contractFrom != "") {
			if req.From, err = callSender(contractFrom); err != nil {
				return err
			}
		}

		// A contract lives on the network it was created on, not the current default.
		c, err := chain.NewRegistry().GetByName(ref.Network)
		if err != nil {
			return fmt.Errorf("contract network %q: %w", ref.Network, err)
		}
		url, err := rpcURL(ctx, c)
		if err != nil {
			return err
		}

		res, callErr := contract.NewCaller(chain.NewEVMClient(url)).Call(ctx, inst, req)
		rec := contract.CallRecord{Method: req.Method, Args: req.Args, From: req.From}
		if value.Sign() > 0 {
			rec.Value = value.String()
		}
		if res != nil {
			rec.Outputs, rec.DryRun = res.Outputs, res.DryRun
		}
		if callErr != nil {
			var de *chain.DispatchError
			if !errors.As(callErr, &de) || !de.Reverted() {
				return callErr
			}
			// Reverts are results too.
			rec.Error = callErr.Error()
			rec.DryRun = !inst.Metadata.ABI.Methods[req.Method].IsConstant()
		}
		if err := newResultLog().Record(ref.Address, rec); err != nil {
			logger.Warn("could not log call result", zap.String("contract", ref.Address), zap.Error(err))
		}
		if callErr != nil {
			return callErr
		}

		if res.DryRun {
			fmt.Fprintln(out, ui.Warn(fmt.Sprintf("dry-run: %s simulated as %s, nothing was sent", req.Method, ui.TruncateAddr(req.From))))
		}
		for _, v := range res.Outputs {
			fmt.Fprintln(out, ui.Val(v))
		}
		if len(res.Outputs) == 0 {
			fmt.Fprintln(out, ui.Meta("(no outputs)"))
		}
		return nil
	},
}

// callSender resolves --from: an address, a wallet name, or the default wallet.
// Watch-only wallets qualify since nothing is signed.
func callSender(from string) (string, error) {
	if common.IsHexAddress(from) {
		return common.HexToAddress(from).Hex(), nil
	}
	mgr, err := newWalletManager()
	if err != nil {
		return "", err
	}
	if from == "" {
		from = cfg.DefaultWallet
	}
	if from != "" {
		w, err := mgr.Get(from)
		if err != nil {
			return "", err
		}
		return w.Address, nil
	}
	if w := mgr.Default(); w != nil {
		return w.Address, nil
	}
	return "", fmt.Errorf("%w, pass --from or run `w3canvas wallet default <name>`", contract.ErrNoSender)
}

// ── contract remove ───────────────────────────────────────────────────────────

var contractRemoveCmd = &cobra.Command{
	Use:   "remove <address>",
	Short: "Forget a stored contract",
	Long:  "Remove the contract from the local list. The contract itself stays on chain.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		reg := newContractRegistry()
		ref, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		if !contractYes && !ui.ConfirmDanger(cmd.InOrStdin(), out, fmt.Sprintf("Forget %s at %s?", ref.Name, ref.Address)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		if err := reg.Remove(ref.Address); err != nil {
			return err
		}
		if err := newResultLog().Clear(ref.Address); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Removed %s.", ref.Address)))
		return nil
	},
}

func printMethods(out io.Writer, title string, methods []abi.Method) {
	if len(methods) == 0 {
		return
	}
	fmt.Fprintln(out, ui.StyleTitle.Render(fmt.Sprintf("%s methods (%d)", title, len(methods))))
	for _, m := range methods {
		fmt.Fprintln(out, "  "+methodSig(m))
	}
	fmt.Fprintln(out)
}

func printResults(out io.Writer, recs []contract.CallRecord, now time.Time) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintln(out, ui.StyleTitle.Render(fmt.Sprintf("Call results (%d)", len(recs))))
	for _, r := range lo.Slice(recs, 0, shownResults) {
		line := fmt.Sprintf("  %-10s %s(%s)", ui.Age(r.Time, now), r.Method, strings.Join(r.Args, ", "))
		switch {
		case r.Error != "":
			line += " ✗ " + r.Error
		case len(r.Outputs) > 0:
			line += " → " + strings.Join(r.Outputs, ", ")
		}
		if r.DryRun {
			line += " " + ui.Meta("[dry-run]")
		}
		fmt.Fprintln(out, line)
	}
	if len(recs) > shownResults {
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("  … %d older", len(recs)-shownResults)))
	}
	fmt.Fprintln(out)
}

func methodSig(m abi.Method) string {
	in := lo.Map(m.Inputs, func(a abi.Argument, _ int) string { return a.Type.String() })
	sig := m.Name + "(" + strings.Join(in, ",") + ")"
	if len(m.Outputs) > 0 {
		outs := lo.Map(m.Outputs, func(a abi.Argument, _ int) string { return a.Type.String() })
		sig += " → " + strings.Join(outs, ",")
	}
	return sig
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	contractRemoveCmd.Flags().BoolVarP(&contractYes, "yes", "y", false, "skip confirmation")
	contractCallCmd.Flags().StringVar(&contractFrom, "from", "", "sender wallet name or address (default: the default wallet)")
	contractCallCmd.Flags().StringVar(&contractValue, "value", "", "wei to attach, payable methods only")
	contractCmd.AddCommand(contractListCmd, contractShowCmd, contractCallCmd, contractRemoveCmd)
}
