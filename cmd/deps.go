package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/codestore"
	"github.com/Mohsinsiddi/w3canvas/internal/contract"
	"github.com/Mohsinsiddi/w3canvas/internal/localstore"
	"github.com/Mohsinsiddi/w3canvas/internal/rpc"
	"github.com/Mohsinsiddi/w3canvas/internal/wallet"
	"github.com/Mohsinsiddi/w3canvas/internal/wizard"
	"go.uber.org/zap"
)

// rpcSelectTimeout bounds probing public RPCs.
const rpcSelectTimeout = 10 * time.Second

// openKeystore is swapped out in tests.
var openKeystore = func(dir string) (wallet.KeystoreBackend, error) {
	return wallet.OpenKeystore(dir)
}

func newWalletManager() (*wallet.Manager, error) {
	ks, err := openKeystore(cfg.Dir())
	if err != nil {
		return nil, fmt.Errorf("opening keystore: %w", err)
	}
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(ks),
	), nil
}

func newCodeStore() *codestore.Store {
	return codestore.New(cfg.CodesDir())
}

func newContractRegistry() *contract.Registry {
	return contract.NewRegistry(localstore.New(cfg.StoragePath()))
}

func newResultLog() *contract.ResultLog {
	return contract.NewResultLog(localstore.New(cfg.StoragePath()))
}

func currentNetwork() (*chain.Chain, error) {
	c, err := chain.NewRegistry().GetByName(network)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q, see `w3canvas network list`: %w", network, err)
	}
	return c, nil
}

// rpcURL returns the endpoint for c. A custom RPC always wins; otherwise the
// public RPCs for the current mode are probed and one is picked with the
// configured algorithm.
func rpcURL(ctx context.Context, c *chain.Chain) (string, error) {
	if custom := cfg.GetRPC(c.Name); custom != "" {
		return custom, nil
	}
	urls := c.RPCs(cfg.NetworkMode)
	if len(urls) == 0 {
		return "", fmt.Errorf("no RPCs for %s (%s), add one with `w3canvas config set-rpc %s <url>`", c.Name, cfg.NetworkMode, c.Name)
	}
	ctx, cancel := context.WithTimeout(ctx, rpcSelectTimeout)
	defer cancel()
	return rpc.Best(ctx, urls, rpc.ParseAlgorithm(cfg.RPCAlgorithm), logger)
}

// instantiatorFactory returns the wizard hook that builds an instantiator
// signing with the wallet owning the chosen address.
func instantiatorFactory(client *chain.EVMClient, mgr *wallet.Manager) func(string) (wizard.Instantiator, error) {
	return func(from string) (wizard.Instantiator, error) {
		signer, err := mgr.SignerFor(from)
		if err != nil {
			return nil, err
		}
		return contract.NewInstantiator(client, signer,
			contract.WithGasLimit(cfg.DeployGasLimit),
			contract.WithConfirmTimeout(cfg.Timeout()),
			contract.WithLogger(logger),
		), nil
	}
}

// newSession wires a wizard session to the stores of the current config.
func newSession(client *chain.EVMClient, mgr *wallet.Manager, c *chain.Chain) *wizard.Session {
	s := wizard.NewSession(wizard.Deps{
		Codes:           newCodeStore(),
		Contracts:       newContractRegistry(),
		NewInstantiator: instantiatorFactory(client, mgr),
		Network:         c.Name,
		Log:             logger,
	})
	logger.Info("wizard session started", zap.String("session", s.ID()), zap.String("network", c.Name), zap.String("rpc", client.URL()))
	return s
}
