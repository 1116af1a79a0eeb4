package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3canvas/internal/config"
	applog "github.com/Mohsinsiddi/w3canvas/internal/log"
	"github.com/Mohsinsiddi/w3canvas/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3canvas/cmd.Version=1.2.3" .
var Version = ui.Version

// envConfigDir overrides --config.
const envConfigDir = "W3CANVAS_CONFIG_DIR"

var (
	cfgDir  string
	cfg     *config.Config
	logger  = zap.NewNop()
	verbose bool
	testnet bool
	mainnet bool
	network string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3canvas",
	Short: "Instantiate smart contracts on EVM chains",
	Long: `w3canvas uploads compiled contract code and instantiates it on an EVM
node through a three-step wizard, keeping a local list of the contracts it
created.

  1. pick uploaded code (or upload an artifact)
  2. fill in the constructor arguments and the deploying wallet
  3. submit and follow the deployment until it is finalized

Global flags --testnet and --mainnet override the configured network mode
for a single invocation.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if testnet {
			cfg.NetworkMode = "testnet"
		}
		if mainnet {
			cfg.NetworkMode = "mainnet"
		}
		if network == "" {
			network = cfg.DefaultNetwork
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		l, err := applog.New(applog.Options{Dir: cfg.LogsDir(), Level: level})
		if err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
		logger = l.With(zap.String("cmd", cmd.CommandPath()))
		logger.Debug("config loaded", zap.String("dir", cfg.Dir()), zap.String("network", network), zap.String("mode", cfg.NetworkMode))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync() //nolint:errcheck
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		os.Exit(1)
	}
}

func init() {
	if envDir := os.Getenv(envConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.w3canvas, env "+envConfigDir+")")
	rootCmd.PersistentFlags().StringVarP(&network, "network", "n", "", "network to use (default: config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&testnet, "testnet", false, "use testnet RPCs")
	rootCmd.PersistentFlags().BoolVar(&mainnet, "mainnet", false, "use mainnet RPCs")
	rootCmd.MarkFlagsMutuallyExclusive("testnet", "mainnet")

	rootCmd.AddCommand(
		instantiateCmd,
		codeCmd,
		contractCmd,
		walletCmd,
		networkCmd,
		configCmd,
	)
}
