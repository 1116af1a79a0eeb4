package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/w3canvas/internal/wallet"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	anvilKey0    = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	anvilAddr0   = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	deployedAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	deployTxHash = "0x9a0b000000000000000000000000000000000000000000000000000000000001"
)

const counterArtifact = `{
	"contractName": "Counter",
	"abi": [
		{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"start","type":"uint256"}]},
		{"type":"function","name":"count","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"increment","stateMutability":"nonpayable","inputs":[],"outputs":[]}
	],
	"bytecode": "0x6080604052"
}`

// cli runs commands in-process against one config dir and one in-memory
// keystore, the way a user would across several invocations.
type cli struct {
	t   *testing.T
	dir string
	in  string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	ks := wallet.NewInMemoryKeystore()
	prev := openKeystore
	openKeystore = func(string) (wallet.KeystoreBackend, error) { return ks, nil }
	t.Cleanup(func() {
		openKeystore = prev
		resetGlobals()
	})
	return &cli{t: t, dir: t.TempDir()}
}

func resetGlobals() {
	cfg = nil
	logger = zap.NewNop()
	network, verbose, testnet, mainnet = "", false, false, false
	instCode, instArgs, instWallet, instYes = "", nil, "", false
	walletYes, contractYes = false, false
	contractFrom, contractValue = "", ""
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetGlobals()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(c.in))
	rootCmd.SetArgs(append([]string{"--config", c.dir}, args...))
	err := rootCmd.Execute()
	c.in = ""
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// node is a JSON-RPC mock answering by method.
type node struct {
	mu        sync.Mutex
	responses map[string]interface{}
	errs      map[string]map[string]interface{}
	calls     map[string]int
}

func newNode(t *testing.T, responses map[string]interface{}) (*node, string) {
	t.Helper()
	n := &node{responses: responses, errs: make(map[string]map[string]interface{}), calls: make(map[string]int)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		n.mu.Lock()
		n.calls[req.Method]++
		result, ok := n.responses[req.Method]
		errObj, failing := n.errs[req.Method]
		n.mu.Unlock()

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		switch {
		case failing:
			resp["error"] = errObj
		case ok:
			resp["result"] = result
		default:
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return n, srv.URL
}

// fail makes method answer with a JSON-RPC error carrying data.
func (n *node) fail(method string, code int, msg, data string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs[method] = map[string]interface{}{"code": code, "message": msg, "data": data}
}

func (n *node) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// deployNode answers everything a deployment and a follow-up read need.
func deployNode(t *testing.T, status string) (*node, string) {
	t.Helper()
	return newNode(t, map[string]interface{}{
		"eth_chainId":             "0x7a69",
		"eth_blockNumber":         "0x10",
		"eth_gasPrice":            "0x77359400",
		"eth_getTransactionCount": "0x0",
		"eth_estimateGas":         "0x186a0",
		"eth_sendRawTransaction":  deployTxHash,
		"eth_getTransactionReceipt": map[string]interface{}{
			"from":            strings.ToLower(anvilAddr0),
			"status":          status,
			"blockNumber":     "0x11",
			"gasUsed":         "0x15f90",
			"contractAddress": strings.ToLower(deployedAddr),
			"logs":            []interface{}{},
		},
		"eth_call": "0x000000000000000000000000000000000000000000000000000000000000002a",
	})
}
