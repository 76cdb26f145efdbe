package ethereum

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/OriginProtocol/bridge-server/internal/metrics"
	"github.com/OriginProtocol/bridge-server/pkg/config"
)

// ChainReadError indicates a remote contract read failed or returned
// malformed data. Callers treat it as retryable.
type ChainReadError struct {
	Kind    ContractKind
	Address common.Address
	Method  string
	Err     error
}

func (e *ChainReadError) Error() string {
	return fmt.Sprintf("chain read %s.%s at %s failed: %v", e.Kind, e.Method, e.Address.Hex(), e.Err)
}

func (e *ChainReadError) Unwrap() error { return e.Err }

// Client reads marketplace contract state over JSON-RPC.
type Client struct {
	eth         *ethclient.Client
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewClient creates a new Ethereum read client
func NewClient(cfg *config.EthereumConfig, logger *zap.Logger) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum RPC: %w", err)
	}

	logger.Info("Connected to Ethereum",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("rpc_url", cfg.RPCURL))

	return &Client{
		eth:         eth,
		callTimeout: cfg.CallTimeout,
		logger:      logger,
	}, nil
}

// Close closes the underlying RPC connection
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// Call executes a read-only contract method and returns the unpacked output
// values. Any transport or decoding failure surfaces as *ChainReadError.
func (c *Client) Call(ctx context.Context, kind ContractKind, address common.Address, method string, args ...any) ([]any, error) {
	contractABI, ok := contractABIs[kind]
	if !ok {
		return nil, &ChainReadError{Kind: kind, Address: address, Method: method,
			Err: fmt.Errorf("unknown contract kind %q", kind)}
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, &ChainReadError{Kind: kind, Address: address, Method: method,
			Err: fmt.Errorf("failed to pack call data: %w", err)}
	}

	callCtx := ctx
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	out, err := c.eth.CallContract(callCtx, ethereum.CallMsg{To: &address, Data: data}, nil)
	if err != nil {
		metrics.ChainReadErrors.WithLabelValues(string(kind)).Inc()
		return nil, &ChainReadError{Kind: kind, Address: address, Method: method, Err: err}
	}

	values, err := contractABI.Unpack(method, out)
	if err != nil {
		metrics.ChainReadErrors.WithLabelValues(string(kind)).Inc()
		return nil, &ChainReadError{Kind: kind, Address: address, Method: method,
			Err: fmt.Errorf("failed to unpack return data: %w", err)}
	}

	return values, nil
}

// BlockNumber returns the latest block number
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return n, nil
}

// FilterLogs fetches logs matching the query
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return c.eth.FilterLogs(ctx, q)
}
