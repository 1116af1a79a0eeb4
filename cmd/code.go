package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/codestore"
	"github.com/Mohsinsiddi/w3canvas/internal/ui"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Manage uploaded contract code",
	Long: `Uploaded code is what the instantiate wizard offers in step 1. Each upload
is stored under the keccak-256 hash of its init bytecode.

Artifacts can be Hardhat or Foundry build outputs, or a bare ABI array
(stored, but not deployable).`,
}

var codeUploadCmd = &cobra.Command{
	Use:   "upload <artifact.json>",
	Short: "Upload a compiled contract artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		code, err := newCodeStore().Upload(args[0])
		if err != nil {
			return err
		}
		logger.Info("code uploaded", zap.String("code_hash", code.Hash.Hex()), zap.String("name", code.Name), zap.Int("size", len(code.Bytecode)))

		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Uploaded %s", code.Name)))
		fmt.Fprintln(out, ui.KeyValueBlock("", [][2]string{
			{"Code hash", code.Hash.Hex()},
			{"Bytecode", ui.Size(len(code.Bytecode))},
			{"Constructor", constructorSig(code)},
		}))
		if !code.Deployable() {
			fmt.Fprintln(out, ui.Warn("No bytecode in this artifact; it cannot be instantiated."))
			return nil
		}
		fmt.Fprintln(out, ui.Hint("w3canvas instantiate --yes --code "+code.Hash.Hex()))
		return nil
	},
}

var codeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded code",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		store := newCodeStore()
		entries, err := store.Entries(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, ui.Info("No code uploaded yet."))
			fmt.Fprintln(out, ui.Hint("w3canvas code upload <artifact.json>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 18},
			{Title: "Code hash", Width: 66},
			{Title: "Size", Width: 9},
			{Title: "Uploaded", Width: 16},
		})
		now := time.Now()
		for _, e := range entries {
			code := e.Value
			if code == nil {
				// ABI-only entry: listed, but not offered by the wizard.
				if code, err = store.Get(e.Key.Hex()); err != nil {
					continue
				}
			}
			t.AddRow(ui.Row{code.Name, e.Key.Hex(), ui.Size(len(code.Bytecode)), ui.Age(code.UploadedAt.Format(time.RFC3339), now)})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d code hash(es), %d deployable", len(entries), len(codestore.ExtractCodeHashes(entries)))))
		return nil
	},
}

var codeRemoveCmd = &cobra.Command{
	Use:   "remove <code-hash>",
	Short: "Remove uploaded code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newCodeStore().Remove(args[0]); err != nil {
			if errors.Is(err, codestore.ErrCodeNotFound) {
				return fmt.Errorf("%w, see `w3canvas code list`", err)
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Removed "+args[0]))
		return nil
	},
}

// codeHashesCmd prints the plain listing scripts use; failures print nothing.
var codeHashesCmd = &cobra.Command{
	Use:    "hashes",
	Short:  "Print deployable code hashes, one per line",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		for _, h := range codestore.FetchCodeHashes(ctx, newCodeStore(), logger) {
			fmt.Fprintln(cmd.OutOrStdout(), h)
		}
		return nil
	},
}

func constructorSig(code *codestore.Code) string {
	if code.Metadata == nil || len(code.Metadata.Constructors) == 0 {
		return "-"
	}
	ctor := code.Metadata.Constructors[0]
	params := lo.Map(ctor.Inputs, func(a abi.Argument, _ int) string {
		return strings.TrimSpace(a.Type.String() + " " + a.Name)
	})
	return ctor.Name + "(" + strings.Join(params, ", ") + ")"
}

func init() {
	codeCmd.AddCommand(codeUploadCmd, codeListCmd, codeRemoveCmd, codeHashesCmd)
}
