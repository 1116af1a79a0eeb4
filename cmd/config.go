package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/ui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		fmt.Fprintln(out, ui.Meta("Config directory: "+cfg.Dir()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a single setting by its JSON key.

Keys:
  default_network    network used when --network is not given
  default_wallet     wallet used when --wallet is not given
  network_mode       mainnet | testnet
  rpc_algorithm      fastest | round-robin | failover
  deploy_gas_limit   gas limit used when estimation fails
  confirm_timeout    how long to wait for a deployment receipt (e.g. 2m)
  log_level          debug | info | warn | error`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if key == "default_network" {
			if _, err := chain.NewRegistry().GetByName(value); err != nil {
				return fmt.Errorf("unknown network %q, see `w3canvas network list`", value)
			}
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("%s set to %q", key, value)))
		return nil
	},
}

var configSetRPCCmd = &cobra.Command{
	Use:   "set-rpc <network> <url>",
	Short: "Use a custom RPC for a network",
	Long: `Pin the RPC used for a network. A custom RPC is used as is; public RPCs are
only probed when none is set. An empty url removes the override.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		if _, err := chain.NewRegistry().GetByName(name); err != nil {
			return fmt.Errorf("unknown network %q, see `w3canvas network list`", name)
		}
		if url == "" {
			delete(cfg.CustomRPCs, name)
		} else {
			cfg.SetRPC(name, url)
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		if url == "" {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Custom RPC for "+name+" removed"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("RPC for %s set to %s", name, url)))
		return nil
	},
}

var configRPCsCmd = &cobra.Command{
	Use:   "rpcs",
	Short: "List custom RPC overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(cfg.CustomRPCs) == 0 {
			fmt.Fprintln(out, ui.Info("No custom RPCs; public RPCs are probed with "+cfg.RPCAlgorithm+"."))
			return nil
		}
		names := lo.Keys(cfg.CustomRPCs)
		sort.Strings(names)
		pairs := lo.Map(names, func(n string, _ int) [2]string { return [2]string{n, cfg.CustomRPCs[n]} })
		fmt.Fprintln(out, ui.KeyValueBlock("Custom RPCs", pairs))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configSetRPCCmd, configRPCsCmd)
}
