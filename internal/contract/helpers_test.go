package contract

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const tokenABI = `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[
		{"name":"name","type":"string"},
		{"name":"supply","type":"uint256"},
		{"name":"owner","type":"address"}
	]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}
	]},
	{"type":"error","name":"Unauthorized","inputs":[{"name":"caller","type":"address"}]}
]`

const counterABI = `[
	{"type":"function","name":"increment","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"count","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

func writeFile(t *testing.T, name string, v interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	var data []byte
	switch b := v.(type) {
	case string:
		data = []byte(b)
	default:
		var err error
		data, err = json.Marshal(v)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func mustMetadata(t *testing.T, name, abiJSON string) *Metadata {
	t.Helper()
	m, err := ParseMetadata(name, []byte(abiJSON))
	require.NoError(t, err)
	return m
}

// rpcNode is a JSON-RPC mock that answers by method and records the calls.
type rpcNode struct {
	mu        sync.Mutex
	responses map[string]interface{}
	errors    map[string]map[string]interface{}
	calls     []string
	params    map[string][]json.RawMessage
}

func newRPCNode(t *testing.T, responses map[string]interface{}) (*rpcNode, *httptest.Server) {
	t.Helper()
	n := &rpcNode{
		responses: responses,
		errors:    make(map[string]map[string]interface{}),
		params:    make(map[string][]json.RawMessage),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     int               `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		n.mu.Lock()
		n.calls = append(n.calls, req.Method)
		n.params[req.Method] = req.Params
		errObj, hasErr := n.errors[req.Method]
		result, hasResult := n.responses[req.Method]
		n.mu.Unlock()

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		switch {
		case hasErr:
			resp["error"] = errObj
		case hasResult:
			resp["result"] = result
		default:
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return n, srv
}

func (n *rpcNode) fail(method string, code int, msg string, data string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	e := map[string]interface{}{"code": code, "message": msg}
	if data != "" {
		e["data"] = data
	}
	n.errors[method] = e
}

func (n *rpcNode) called(method string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.calls {
		if c == method {
			return true
		}
	}
	return false
}
