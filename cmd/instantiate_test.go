package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/Mohsinsiddi/w3canvas/internal/config"
	"github.com/Mohsinsiddi/w3canvas/internal/contract"
	"github.com/Mohsinsiddi/w3canvas/internal/wallet"
	"github.com/Mohsinsiddi/w3canvas/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgFlags(t *testing.T) {
	blank := map[string]string{"name": "", "supply": ""}

	got, err := parseArgFlags([]string{"name=Gold", " supply =1000", "name=Silver=2"}, blank)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Silver=2", "supply": "1000"}, got)
	assert.Equal(t, "", blank["name"], "blank map must not be modified")

	got, err = parseArgFlags(nil, blank)
	require.NoError(t, err)
	assert.Equal(t, blank, got)

	_, err = parseArgFlags([]string{"name"}, blank)
	assert.ErrorContains(t, err, "expected name=value")

	_, err = parseArgFlags([]string{"owner=0x1"}, blank)
	assert.ErrorContains(t, err, "expected one of name, supply")

	_, err = parseArgFlags([]string{"x=1"}, map[string]string{})
	assert.ErrorContains(t, err, "constructor takes no arguments")
}

func TestDeployWallet(t *testing.T) {
	var err error
	cfg, err = config.Load(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(resetGlobals)

	mgr := wallet.NewManager(wallet.WithInMemoryStore(), wallet.WithKeystore(wallet.NewInMemoryKeystore()))
	_, err = deployWallet(mgr, "")
	assert.ErrorContains(t, err, "no wallet selected")

	require.NoError(t, mgr.Add("watcher", &wallet.Wallet{Address: anvilAddr0, Type: wallet.TypeWatchOnly}))
	_, err = mgr.AddWithKey("deployer", anvilKey0)
	require.NoError(t, err)

	_, err = deployWallet(mgr, "watcher")
	assert.ErrorContains(t, err, "watch-only")

	_, err = deployWallet(mgr, "ghost")
	assert.True(t, errors.Is(err, wallet.ErrWalletNotFound))

	w, err := deployWallet(mgr, "deployer")
	require.NoError(t, err)
	assert.Equal(t, anvilAddr0, w.Address)

	cfg.DefaultWallet = "deployer"
	w, err = deployWallet(mgr, "")
	require.NoError(t, err)
	assert.Equal(t, "deployer", w.Name)
}

func TestPrintOutcome(t *testing.T) {
	meta, err := contract.ParseMetadata("Counter", []byte(`[]`))
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		var out bytes.Buffer
		err := printOutcome(&out, wizard.State{
			IsSuccess: true,
			Contract: &contract.Instance{Metadata: meta, Ref: contract.Reference{
				Address: deployedAddr, Network: "local", ChainID: 31337, TxHash: deployTxHash,
			}},
			Events: []chain.Event{{Kind: chain.EventInstantiated, Address: deployedAddr}},
		})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Counter instantiated")
		assert.Contains(t, out.String(), deployedAddr)
		assert.Contains(t, out.String(), "w3canvas contract show")
	})

	t.Run("failure", func(t *testing.T) {
		var out bytes.Buffer
		cause := errors.New("execution reverted")
		err := printOutcome(&out, wizard.State{Err: cause, Events: []chain.Event{{Kind: chain.EventTxFailed}}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, out.String(), "TxFailed")
	})

	t.Run("cancelled", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printOutcome(&out, wizard.State{Step: wizard.Step2}))
		assert.Contains(t, out.String(), "Cancelled.")
	})
}

func TestInstantiateHeadless(t *testing.T) {
	c := newCLI(t)
	n, url := deployNode(t, "0x1")

	c.mustRun("config", "set-rpc", "local", url)
	c.mustRun("wallet", "import", "deployer", anvilKey0)
	c.mustRun("wallet", "default", "deployer")

	out := c.mustRun("instantiate", "--yes", "--code", writeArtifact(t, "Counter.json", counterArtifact), "--arg", "start=7")
	assert.Contains(t, out, "Uploaded Counter")
	assert.Contains(t, out, "Counter instantiated")
	assert.Contains(t, out, deployedAddr)
	assert.Equal(t, 1, n.count("eth_sendRawTransaction"))

	out = c.mustRun("contract", "list")
	assert.Contains(t, out, deployedAddr)
	assert.Contains(t, out, "1 contract(s) on 1 network(s)")

	out = c.mustRun("contract", "show", deployedAddr)
	assert.Contains(t, out, "Read methods (1)")
	assert.Contains(t, out, "count() → uint256")
	assert.Contains(t, out, "increment()")
	assert.Contains(t, out, anvilAddr0)

	out = c.mustRun("contract", "call", deployedAddr, "count")
	assert.Contains(t, out, "42")
}

func TestInstantiateHeadlessReusesStoredCode(t *testing.T) {
	c := newCLI(t)
	_, url := deployNode(t, "0x1")
	c.mustRun("config", "set-rpc", "local", url)
	c.mustRun("wallet", "import", "deployer", anvilKey0)

	out := c.mustRun("code", "upload", writeArtifact(t, "Counter.json", counterArtifact))
	require.Contains(t, out, "Uploaded Counter")
	hash := strings.TrimSpace(c.mustRun("code", "hashes"))
	require.True(t, codeHashRe.MatchString(hash), hash)

	out = c.mustRun("instantiate", "-y", "--code", hash, "--arg", "start=1", "--wallet", "deployer")
	assert.NotContains(t, out, "Uploaded")
	assert.Contains(t, out, "Counter instantiated")
}

func TestInstantiateHeadlessReverted(t *testing.T) {
	c := newCLI(t)
	_, url := deployNode(t, "0x0")
	c.mustRun("config", "set-rpc", "local", url)
	c.mustRun("wallet", "import", "deployer", anvilKey0)

	_, err := c.run("instantiate", "--yes", "--wallet", "deployer",
		"--code", writeArtifact(t, "Counter.json", counterArtifact), "--arg", "start=1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "instantiation failed")
	assert.True(t, errors.Is(err, chain.ErrTxReverted))

	out := c.mustRun("contract", "list")
	assert.Contains(t, out, "No contracts instantiated yet.")
}

func TestInstantiateHeadlessInputErrors(t *testing.T) {
	c := newCLI(t)
	_, url := deployNode(t, "0x1")
	c.mustRun("config", "set-rpc", "local", url)
	artifact := writeArtifact(t, "Counter.json", counterArtifact)

	_, err := c.run("instantiate", "--yes")
	assert.ErrorContains(t, err, "--code is required")

	_, err = c.run("instantiate", "--yes", "--code", artifact, "--arg", "begin=1")
	assert.ErrorContains(t, err, "expected one of start")

	_, err = c.run("instantiate", "--yes", "--code", artifact)
	assert.ErrorContains(t, err, "no wallet selected")

	c.mustRun("wallet", "add", "watcher", anvilAddr0)
	_, err = c.run("instantiate", "--yes", "--code", artifact, "--wallet", "watcher")
	assert.ErrorContains(t, err, "watch-only")
}
