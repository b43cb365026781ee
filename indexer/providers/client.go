package providers

import (
	"context"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ManagedClient is a dialed, chain-id-verified connection to a single
// endpoint. Every call is timed and folded back into the owning pool's
// health record so candidate ordering reflects real behavior.
type ManagedClient struct {
	pool *Pool
	url  string
	eth  *ethclient.Client
}

// URL returns the raw endpoint this client is connected to.
func (c *ManagedClient) URL() string {
	return c.url
}

func (c *ManagedClient) close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// ChainID reports the remote chain identifier.
func (c *ManagedClient) ChainID(ctx context.Context) (*big.Int, error) {
	start := time.Now()
	id, err := c.eth.ChainID(ctx)
	c.pool.observe(c.url, start, err)
	return id, err
}

// BlockNumber reports the chain tip.
func (c *ManagedClient) BlockNumber(ctx context.Context) (uint64, error) {
	start := time.Now()
	n, err := c.eth.BlockNumber(ctx)
	c.pool.observe(c.url, start, err)
	return n, err
}

// HeaderByNumber fetches one block header. A nil number means latest.
func (c *ManagedClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	start := time.Now()
	h, err := c.eth.HeaderByNumber(ctx, number)
	c.pool.observe(c.url, start, err)
	return h, err
}

// FilterLogs runs one eth_getLogs query.
func (c *ManagedClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	start := time.Now()
	lgs, err := c.eth.FilterLogs(ctx, q)
	c.pool.observe(c.url, start, err)
	return lgs, err
}

// TransactionByHash fetches a transaction body.
func (c *ManagedClient) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	start := time.Now()
	tx, pending, err := c.eth.TransactionByHash(ctx, hash)
	c.pool.observe(c.url, start, err)
	return tx, pending, err
}

// TransactionReceipt fetches a mined transaction's receipt.
func (c *ManagedClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	start := time.Now()
	r, err := c.eth.TransactionReceipt(ctx, hash)
	c.pool.observe(c.url, start, err)
	return r, err
}

// CallContract executes a read-only contract call at the given block.
// A nil block number means latest.
func (c *ManagedClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	start := time.Now()
	out, err := c.eth.CallContract(ctx, msg, blockNumber)
	c.pool.observe(c.url, start, err)
	return out, err
}
