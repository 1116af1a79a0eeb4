package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/ens"
	"github.com/Mohsinsiddi/w3canvas/internal/ui"
	"github.com/Mohsinsiddi/w3canvas/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var walletYes bool

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage deploying wallets",
}

// ── wallet import ─────────────────────────────────────────────────────────────

var walletImportCmd = &cobra.Command{
	Use:   "import <name> <private-key>",
	Short: "Import a signing wallet",
	Long: `Import a private key into the OS keychain and register the wallet under name.

Only signing wallets can instantiate contracts.

Examples:
  w3canvas wallet import deployer 0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		w, err := mgr.AddWithKey(args[0], args[1])
		if err != nil {
			return err
		}
		logger.Info("wallet imported", zap.String("wallet", w.Name), zap.String("address", w.Address))
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Signing wallet %q added: %s", w.Name, ui.Addr(w.Address))))
		if w.IsDefault {
			fmt.Fprintln(out, ui.Hint("This is your default wallet."))
		} else {
			fmt.Fprintln(out, ui.Hint("Set as default with: w3canvas wallet default "+w.Name))
		}
		return nil
	},
}

// ── wallet add ────────────────────────────────────────────────────────────────

var walletAddCmd = &cobra.Command{
	Use:   "add <name> <address|ens-name>",
	Short: "Add a watch-only wallet",
	Long: `Add a wallet that is tracked by address but cannot sign. ENS names are
resolved on Ethereum (Sepolia in testnet mode).

Examples:
  w3canvas wallet add treasury 0x70997970C51812dc3A010C7d01b50e0d17dc79C8
  w3canvas wallet add vitalik vitalik.eth --mainnet`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, address := args[0], args[1]
		if ens.IsName(address) {
			resolved, err := resolveENS(cmd.Context(), address)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Info(fmt.Sprintf("%s resolves to %s", address, resolved.Hex())))
			address = resolved.Hex()
		}
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid address %q", address)
		}
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		if err := mgr.Add(name, &wallet.Wallet{
			Name:    name,
			Address: common.HexToAddress(address).Hex(),
			Type:    wallet.TypeWatchOnly,
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(address))))
		return nil
	},
}

// ── wallet list ───────────────────────────────────────────────────────────────

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		wallets := mgr.List()
		if len(wallets) == 0 {
			fmt.Fprintln(out, ui.Info("No wallets configured yet."))
			fmt.Fprintln(out, ui.Hint("w3canvas wallet import <name> <private-key>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 42},
			{Title: "Type", Width: 10},
			{Title: "Default", Width: 7},
		})
		for _, w := range wallets {
			def := ""
			if w.IsDefault {
				def = "✓"
			}
			t.AddRow(ui.Row{w.Name, w.Address, walletTypeLabel(w.Type), def})
		}
		fmt.Fprintln(out, t.Render())
		signing := lo.CountBy(wallets, func(w *wallet.Wallet) bool { return w.CanSign() })
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d wallet(s), %d can sign", len(wallets), signing)))
		return nil
	},
}

// ── wallet default ────────────────────────────────────────────────────────────

var walletDefaultCmd = &cobra.Command{
	Use:     "default [name]",
	Aliases: []string{"use"},
	Short:   "Set the default deploying wallet",
	Long: `Set the wallet used when --wallet is not given. Without a name, pick one
interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			items := lo.Map(mgr.List(), func(w *wallet.Wallet, _ int) ui.PickerItem {
				return ui.PickerItem{Label: w.Name, SubLabel: w.Address + "  " + walletTypeLabel(w.Type), Value: w.Name}
			})
			if name, err = ui.PickItem("Default wallet", items); err != nil {
				if errors.Is(err, ui.ErrNothingToPick) {
					return fmt.Errorf("no wallets yet, import one with `w3canvas wallet import`")
				}
				return err
			}
			if name == "" {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
				return nil
			}
		}

		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

// ── wallet remove ─────────────────────────────────────────────────────────────

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		name := args[0]
		if !walletYes && !ui.ConfirmDanger(cmd.InOrStdin(), out, fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

func resolveENS(ctx context.Context, name string) (common.Address, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := chain.NewRegistry().GetByName(ens.Network)
	if err != nil {
		return common.Address{}, err
	}
	url, err := rpcURL(ctx, c)
	if err != nil {
		return common.Address{}, err
	}
	return ens.NewResolver(chain.NewEVMClient(url)).Resolve(ctx, name)
}

func walletTypeLabel(t string) string {
	if t == wallet.TypeSigning {
		return "signing"
	}
	return "watch"
}

func init() {
	walletRemoveCmd.Flags().BoolVarP(&walletYes, "yes", "y", false, "skip confirmation")
	walletCmd.AddCommand(walletImportCmd, walletAddCmd, walletListCmd, walletDefaultCmd, walletRemoveCmd)
}
