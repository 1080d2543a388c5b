// Package geth bridges the monitor to an Ethereum execution node over
// JSON-RPC using go-ethereum's rpc client. The node is untrusted: this
// package only moves bytes, the monitor decides what they are worth.
package geth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethrlp "github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/eth2030/eclipsemonitor/events"
)

// API selects the RPC methods used to fetch raw data.
type API string

const (
	// APIDebug uses debug_getRawHeader and debug_getRawReceipts.
	APIDebug API = "debug"
	// APIEth re-encodes eth_getBlockByNumber and eth_getBlockReceipts
	// results, for nodes that do not expose the debug namespace.
	APIEth API = "eth"
)

// DefaultTimeout bounds a single RPC call.
const DefaultTimeout = 10 * time.Second

var (
	ErrNotFound   = errors.New("geth: block not found")
	ErrUnknownAPI = errors.New("geth: unknown api")
)

// Bridge is the host surface the node needs: the monitor's Host plus raw
// header retrieval for the feeder.
type Bridge interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	RawHeaderByNumber(ctx context.Context, number uint64) ([]byte, error)
	ReceiptsByNumber(ctx context.Context, number uint64) ([][]byte, error)
}

// ParseAPI maps a configuration value to an API.
func ParseAPI(s string) (API, error) {
	switch API(s) {
	case "", APIDebug:
		return APIDebug, nil
	case APIEth:
		return APIEth, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAPI, s)
	}
}

// Client is a Bridge over one rpc.Client. It is safe for concurrent use.
type Client struct {
	rpc     *rpc.Client
	api     API
	timeout time.Duration
}

// Dial connects to url (http, ws or ipc).
func Dial(ctx context.Context, url string, api API, timeout time.Duration) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, &events.HostUnavailableError{Op: "dial", Err: err}
	}
	return NewClient(c, api, timeout), nil
}

// NewClient wraps an existing connection. A zero timeout means DefaultTimeout.
func NewClient(c *rpc.Client, api API, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if api == "" {
		api = APIDebug
	}
	return &Client{rpc: c, api: api, timeout: timeout}
}

// Close closes the underlying connection.
func (c *Client) Close() { c.rpc.Close() }

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.rpc.CallContext(ctx, result, method, args...); err != nil {
		return &events.HostUnavailableError{Op: method, Err: err}
	}
	return nil
}

// LatestBlockNumber returns the host's head block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	if err := c.call(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// RawHeaderByNumber returns the consensus encoding of the header at number.
func (c *Client) RawHeaderByNumber(ctx context.Context, number uint64) ([]byte, error) {
	if c.api == APIEth {
		return c.headerFromBlock(ctx, number)
	}
	var raw hexutil.Bytes
	if err := c.call(ctx, &raw, "debug_getRawHeader", hexutil.Uint64(number)); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, notFound("debug_getRawHeader", number)
	}
	return raw, nil
}

// ReceiptsByNumber returns the consensus-encoded receipts of block number
// in transaction order.
func (c *Client) ReceiptsByNumber(ctx context.Context, number uint64) ([][]byte, error) {
	if c.api == APIEth {
		return c.receiptsFromBlock(ctx, number)
	}
	var raw []hexutil.Bytes
	if err := c.call(ctx, &raw, "debug_getRawReceipts", hexutil.Uint64(number)); err != nil {
		return nil, err
	}
	out := make([][]byte, len(raw))
	for i, r := range raw {
		out[i] = r
	}
	return out, nil
}

func (c *Client) headerFromBlock(ctx context.Context, number uint64) ([]byte, error) {
	var h *gethtypes.Header
	if err := c.call(ctx, &h, "eth_getBlockByNumber", hexutil.Uint64(number), false); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, notFound("eth_getBlockByNumber", number)
	}
	return gethrlp.EncodeToBytes(h)
}

func (c *Client) receiptsFromBlock(ctx context.Context, number uint64) ([][]byte, error) {
	var receipts []*gethtypes.Receipt
	if err := c.call(ctx, &receipts, "eth_getBlockReceipts", hexutil.Uint64(number)); err != nil {
		return nil, err
	}
	out := make([][]byte, len(receipts))
	for i, r := range receipts {
		enc, err := r.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("geth: receipt %d of block %d: %w", i, number, err)
		}
		out[i] = enc
	}
	return out, nil
}

func notFound(op string, number uint64) error {
	return &events.HostUnavailableError{Op: op, Err: fmt.Errorf("%w: %d", ErrNotFound, number)}
}
