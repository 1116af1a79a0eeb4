package cmd

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/codestore"
	"github.com/Mohsinsiddi/w3canvas/internal/contract"
	"github.com/Mohsinsiddi/w3canvas/internal/ui"
	"github.com/Mohsinsiddi/w3canvas/internal/wallet"
	"github.com/Mohsinsiddi/w3canvas/internal/wizard"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	instCode   string
	instArgs   []string
	instWallet string
	instYes    bool
)

var codeHashRe = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

var instantiateCmd = &cobra.Command{
	Use:     "instantiate",
	Aliases: []string{"deploy"},
	Short:   "Instantiate a contract from uploaded code",
	Long: `Open the instantiate wizard: pick uploaded code, fill in the constructor
arguments, choose the deploying wallet and submit.

With --yes the same steps run without the TUI, taking their input from flags.
--code accepts a stored code hash or an artifact path (which is uploaded first).

Examples:
  w3canvas instantiate
  w3canvas instantiate --yes --code ./out/Token.sol/Token.json \
      --arg name=Gold --arg supply=1000000 --wallet deployer
  w3canvas instantiate --yes --code 0x3f5a…c1 --network base --testnet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		out := cmd.OutOrStdout()

		c, err := currentNetwork()
		if err != nil {
			return err
		}
		url, err := rpcURL(ctx, c)
		if err != nil {
			return err
		}
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}

		s := newSession(chain.NewEVMClient(url), mgr, c)
		defer s.Close()

		if !instYes {
			st, err := ui.RunInstantiateWizard(ctx, s, ui.WizardOptions{
				Network:        c.Name,
				CodeNames:      codeNames(ctx, newCodeStore()),
				Accounts:       signingWallets(mgr),
				DefaultAccount: defaultAddress(mgr),
			})
			if err != nil {
				return err
			}
			return printOutcome(out, st)
		}
		return runHeadless(ctx, out, s, mgr)
	},
}

func init() {
	instantiateCmd.Flags().StringVar(&instCode, "code", "", "code hash or artifact path")
	instantiateCmd.Flags().StringArrayVar(&instArgs, "arg", nil, "constructor argument as name=value (repeatable)")
	instantiateCmd.Flags().StringVar(&instWallet, "wallet", "", "wallet to deploy from (default: default wallet)")
	instantiateCmd.Flags().BoolVarP(&instYes, "yes", "y", false, "run without the interactive wizard")
}

// runHeadless drives the session from flags.
func runHeadless(ctx context.Context, out io.Writer, s *wizard.Session, mgr *wallet.Manager) error {
	if instCode == "" {
		return fmt.Errorf("--code is required with --yes")
	}
	if codeHashRe.MatchString(instCode) {
		if err := s.SelectCode(instCode); err != nil {
			return err
		}
	} else {
		code, err := s.UploadCode(instCode)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Info(fmt.Sprintf("Uploaded %s as %s", code.Name, code.Hash.Hex())))
	}

	st := s.State()
	ctor := st.Metadata.Constructors[0]
	argValues, err := parseArgFlags(instArgs, contract.EmptyArgValues(ctor.Inputs))
	if err != nil {
		return err
	}

	w, err := deployWallet(mgr, instWallet)
	if err != nil {
		return err
	}
	if err := s.Dispatch(wizard.Step2Complete{
		ConstructorName: ctor.Name,
		ArgValues:       argValues,
		FromAddress:     w.Address,
	}); err != nil {
		return err
	}

	spin := ui.NewSpinner(out, fmt.Sprintf("Instantiating %s from %s...", st.Metadata.Name, ui.TruncateAddr(w.Address)))
	spin.Start()
	err = s.Instantiate(ctx)
	spin.Stop()
	if final := s.State(); err == nil || final.Err != nil {
		return printOutcome(out, final)
	}
	return err
}

// parseArgFlags fills blank with name=value pairs. Unknown names are errors.
func parseArgFlags(pairs []string, blank map[string]string) (map[string]string, error) {
	out := lo.Assign(blank)
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("--arg %q: expected name=value", p)
		}
		k = strings.TrimSpace(k)
		if _, known := blank[k]; !known {
			names := lo.Keys(blank)
			sort.Strings(names)
			if len(names) == 0 {
				return nil, fmt.Errorf("--arg %q: constructor takes no arguments", k)
			}
			return nil, fmt.Errorf("--arg %q: unknown argument, expected one of %s", k, strings.Join(names, ", "))
		}
		out[k] = v
	}
	return out, nil
}

// deployWallet resolves --wallet, falling back to the default wallet.
func deployWallet(mgr *wallet.Manager, name string) (*wallet.Wallet, error) {
	if name == "" {
		name = cfg.DefaultWallet
	}
	var w *wallet.Wallet
	if name != "" {
		var err error
		if w, err = mgr.Get(name); err != nil {
			return nil, err
		}
	} else if w = mgr.Default(); w == nil {
		return nil, fmt.Errorf("no wallet selected, pass --wallet or run `w3canvas wallet default <name>`")
	}
	if !w.CanSign() {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot deploy", w.Name)
	}
	return w, nil
}

func codeNames(ctx context.Context, store *codestore.Store) map[string]string {
	entries, err := store.Entries(ctx)
	if err != nil {
		return nil
	}
	present := lo.Filter(entries, func(e codestore.StorageEntry, _ int) bool { return e.Value != nil })
	return lo.Associate(present, func(e codestore.StorageEntry) (string, string) {
		return e.Key.Hex(), e.Value.Name
	})
}

func signingWallets(mgr *wallet.Manager) []ui.PickerItem {
	return lo.FilterMap(mgr.List(), func(w *wallet.Wallet, _ int) (ui.PickerItem, bool) {
		return ui.PickerItem{Label: w.Name, SubLabel: w.Address, Value: w.Address}, w.CanSign()
	})
}

func defaultAddress(mgr *wallet.Manager) string {
	if cfg.DefaultWallet != "" {
		if w, err := mgr.Get(cfg.DefaultWallet); err == nil {
			return w.Address
		}
	}
	if w := mgr.Default(); w != nil {
		return w.Address
	}
	return ""
}

// printOutcome reports the final wizard state. A failed deployment returns
// its error so the exit code reflects it.
func printOutcome(out io.Writer, st wizard.State) error {
	switch {
	case st.IsSuccess && st.Contract != nil:
		ref := st.Contract.Ref
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("%s instantiated", st.Contract.Name())))
		fmt.Fprintln(out, ui.KeyValueBlock("", [][2]string{
			{"Address", ref.Address},
			{"Network", ref.Network},
			{"Chain ID", fmt.Sprintf("%d", ref.ChainID)},
			{"Code hash", ref.CodeHash},
			{"Deployer", ref.Deployer},
			{"Tx", ref.TxHash},
		}))
		if len(st.Events) > 0 {
			fmt.Fprintln(out, ui.EventsBlock(st.Events))
		}
		fmt.Fprintln(out, ui.Hint("w3canvas contract show "+ref.Address))
		return nil
	case st.Err != nil:
		if len(st.Events) > 0 {
			fmt.Fprintln(out, ui.EventsBlock(st.Events))
		}
		return fmt.Errorf("instantiation failed: %w", st.Err)
	default:
		fmt.Fprintln(out, ui.Meta("Cancelled."))
		return nil
	}
}
