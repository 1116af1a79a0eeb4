package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultPollInterval is how often WaitForReceipt polls for a receipt.
const DefaultPollInterval = 2 * time.Second

// ErrTxReverted is returned when a mined transaction has status 0.
var ErrTxReverted = errors.New("transaction reverted")

// EVMClient is a minimal JSON-RPC client for EVM chains.
type EVMClient struct {
	url          string
	client       *http.Client
	pollInterval time.Duration
}

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
func NewEVMClient(url string) *EVMClient {
	return &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval changes the receipt polling interval.
func (c *EVMClient) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// URL returns the RPC endpoint.
func (c *EVMClient) URL() string { return c.url }

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "chain id", "eth_chainId")
}

// GetBlockNumber returns the latest block number.
func (c *EVMClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.callBig(ctx, "block number", "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Ping measures a block-number round trip.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, block uint64, err error) {
	start := time.Now()
	block, err = c.GetBlockNumber(ctx)
	return time.Since(start), block, err
}

// GasPrice returns the current gas price.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "gas price", "eth_gasPrice")
}

// GetPendingNonce returns the transaction count including pending (queued)
// transactions, using the "pending" block tag.
func (c *EVMClient) GetPendingNonce(ctx context.Context, address string) (uint64, error) {
	n, err := c.callBig(ctx, "pending nonce", "eth_getTransactionCount", address, "pending")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// EstimateDeployGas estimates gas for a contract creation (no "to").
func (c *EVMClient) EstimateDeployGas(ctx context.Context, from string, data []byte, value *big.Int) (uint64, error) {
	params := map[string]string{
		"from": from,
		"data": fmt.Sprintf("0x%x", data),
	}
	if value != nil && value.Sign() > 0 {
		params["value"] = "0x" + value.Text(16)
	}
	n, err := c.callBig(ctx, "gas estimate", "eth_estimateGas", params)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// SendRawTransaction broadcasts a signed raw transaction.
func (c *EVMClient) SendRawTransaction(ctx context.Context, rawTx []byte) (string, error) {
	result, err := c.call(ctx, "eth_sendRawTransaction", fmt.Sprintf("0x%x", rawTx))
	if err != nil {
		return "", err
	}
	hash, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return hash, nil
}

// GetCode returns the bytecode at an address. Empty "0x" means EOA (no code).
func (c *EVMClient) GetCode(ctx context.Context, address string) (string, error) {
	result, err := c.call(ctx, "eth_getCode", address, "latest")
	if err != nil {
		return "", err
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return s, nil
}

// CallContract runs a read-only eth_call against the latest block.
func (c *EVMClient) CallContract(ctx context.Context, to string, data []byte) ([]byte, error) {
	return c.CallContractFrom(ctx, "", to, nil, data)
}

// CallContractFrom runs eth_call as from with value wei attached. Nothing is
// sent: state changes the call would make are discarded by the node. An empty
// from and a nil value are left out of the message.
func (c *EVMClient) CallContractFrom(ctx context.Context, from, to string, value *big.Int, data []byte) ([]byte, error) {
	msg := map[string]string{
		"to":   to,
		"data": fmt.Sprintf("0x%x", data),
	}
	if from != "" {
		msg["from"] = from
	}
	if value != nil && value.Sign() > 0 {
		msg["value"] = hexutil.EncodeBig(value)
	}
	result, err := c.call(ctx, "eth_call", msg, "latest")
	if err != nil {
		return nil, err
	}
	s, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result: %T", result)
	}
	out, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("could not parse call result: %w", err)
	}
	return out, nil
}

// LogEntry holds one event log.
type LogEntry struct {
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     string   `json:"data"`
	LogIndex string   `json:"logIndex"`
}

// TxReceipt holds the on-chain receipt of a mined transaction.
type TxReceipt struct {
	Hash            string
	From            string
	Status          uint64 // 1 = success, 0 = reverted
	BlockNumber     uint64
	GasUsed         uint64
	ContractAddress string // non-empty when a contract was deployed
	Logs            []LogEntry
}

// GetTransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, hash string) (*TxReceipt, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil // still pending
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	var r struct {
		From            string     `json:"from"`
		Status          string     `json:"status"`
		BlockNumber     string     `json:"blockNumber"`
		GasUsed         string     `json:"gasUsed"`
		ContractAddress *string    `json:"contractAddress"`
		Logs            []LogEntry `json:"logs"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}

	receipt := &TxReceipt{Hash: hash, From: r.From, Logs: r.Logs}
	if r.ContractAddress != nil {
		receipt.ContractAddress = *r.ContractAddress
	}
	if s, ok := parseBigHex(r.Status); ok {
		receipt.Status = s.Uint64()
	}
	if bn, ok := parseBigHex(r.BlockNumber); ok {
		receipt.BlockNumber = bn.Uint64()
	}
	if gu, ok := parseBigHex(r.GasUsed); ok {
		receipt.GasUsed = gu.Uint64()
	}
	return receipt, nil
}

// WaitForReceipt polls until the transaction is mined, ctx is done or timeout
// expires. A reverted transaction returns its receipt together with ErrTxReverted.
func (c *EVMClient) WaitForReceipt(ctx context.Context, hash string, timeout time.Duration) (*TxReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.GetTransactionReceipt(ctx, hash)
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrTxReverted, hash)
			}
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("transaction %s not mined within %s", hash, timeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is a JSON-RPC error object. Data carries revert data for failed
// executions when the node returns it.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// DataHex returns Data as a hex string when it is one, or "".
func (e *RPCError) DataHex() string {
	var s string
	if len(e.Data) == 0 || json.Unmarshal(e.Data, &s) != nil {
		return ""
	}
	if !strings.HasPrefix(s, "0x") {
		return ""
	}
	return s
}

func (c *EVMClient) call(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	if params == nil {
		params = []interface{}{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	var result interface{}
	if len(rpcResp.Result) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}

	return result, nil
}

func (c *EVMClient) callBig(ctx context.Context, what, method string, params ...interface{}) (*big.Int, error) {
	result, err := c.call(ctx, method, params...)
	if err != nil {
		return nil, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result: %T", result)
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse %s: %s", what, hexStr)
	}
	return n, nil
}

func parseBigHex(s string) (*big.Int, bool) {
	return new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
}
