package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/rpc"
	"github.com/Mohsinsiddi/w3canvas/internal/ui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Networks contracts can be instantiated on",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		reg := chain.NewRegistry()
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 12},
			{Title: "Display", Width: 18},
			{Title: "Chain ID", Width: 10},
			{Title: "Currency", Width: 8},
			{Title: "Testnet", Width: 16},
			{Title: "RPC", Width: 8},
		})
		for _, c := range reg.All() {
			source := "public"
			if cfg.GetRPC(c.Name) != "" {
				source = "custom"
			}
			name := c.Name
			if c.Name == network {
				name += " *"
			}
			t.AddRow(ui.Row{name, c.DisplayName, fmt.Sprintf("%d", c.ChainID), c.NativeCurrency, c.TestnetName, source})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d networks, mode %s, * = current", len(reg.All()), cfg.NetworkMode)))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network",
	Long: `Set the default network and persist it to config.

With --testnet or --mainnet the network mode is persisted too.

Examples:
  w3canvas network use base
  w3canvas network use base --testnet`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, err := chain.NewRegistry().GetByName(name); err != nil {
			return fmt.Errorf("unknown network %q, see `w3canvas network list`", name)
		}
		cfg.DefaultNetwork = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default network set to %s (%s)", ui.NetworkName(name), cfg.NetworkMode)))
		return nil
	},
}

var networkCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the RPCs of the current network",
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
		urls := c.RPCs(cfg.NetworkMode)
		if custom := cfg.GetRPC(c.Name); custom != "" {
			urls = append([]string{custom}, urls...)
		}
		urls = lo.Uniq(lo.Compact(urls))
		if len(urls) == 0 {
			return fmt.Errorf("no RPCs for %s (%s)", c.Name, cfg.NetworkMode)
		}

		ctx, cancel := context.WithTimeout(ctx, rpcSelectTimeout)
		defer cancel()
		spin := ui.NewSpinner(out, fmt.Sprintf("Probing %d RPC(s) for %s...", len(urls), c.Name))
		spin.Start()
		endpoints := rpc.Benchmark(ctx, urls)
		spin.Stop()

		t := ui.NewTable([]ui.Column{
			{Title: "RPC", Width: 44},
			{Title: "Latency", Width: 9},
			{Title: "Block", Width: 10},
			{Title: "Status", Width: 8},
		})
		for _, e := range endpoints {
			status := "ok"
			if !e.Healthy {
				status = "down"
				if e.BlockNumber > 0 {
					status = "stale"
				}
			}
			latency := "-"
			if e.Healthy {
				latency = e.Latency.Round(time.Millisecond).String()
			}
			t.AddRow(ui.Row{e.URL, latency, fmt.Sprintf("%d", e.BlockNumber), status})
		}
		fmt.Fprintln(out, t.Render())

		healthy := lo.CountBy(endpoints, func(e rpc.Endpoint) bool { return e.Healthy })
		if healthy == 0 {
			return rpc.ErrNoHealthyRPC
		}
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d of %d healthy", healthy, len(endpoints))))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd, networkCheckCmd)
}
