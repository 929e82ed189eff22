package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// TxInfo is the subset of a raw transaction the eligibility check needs.
type TxInfo struct {
	Input []byte
	From  common.Address
}

// Client wraps go-ethereum RPC and provides helper methods. The same type
// serves the query endpoint, the funding endpoint, and the websocket
// subscription endpoint.
type Client struct {
	rpcClient   *rpc.Client
	ethClient   *ethclient.Client
	callTimeout time.Duration
}

// NewClient creates a new chain client from the RPC URL. Websocket URLs are
// accepted; subscriptions require one. callTimeout bounds every single RPC
// call; zero disables the bound.
func NewClient(ctx context.Context, rpcURL string, callTimeout time.Duration) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient:   rpcClient,
		ethClient:   ethclient.NewClient(rpcClient),
		callTimeout: callTimeout,
	}, nil
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.ethClient.ChainID(ctx)
}

// BalanceAt returns the native-currency balance of an address in wei.
func (c *Client) BalanceAt(ctx context.Context, address common.Address) (*big.Int, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.ethClient.BalanceAt(ctx, address, nil)
}

// TransactionInfo returns the input data and sender of a transaction.
func (c *Client) TransactionInfo(ctx context.Context, txHash common.Hash) (TxInfo, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	tx, _, err := c.ethClient.TransactionByHash(ctx, txHash)
	if err != nil {
		return TxInfo{}, fmt.Errorf("transaction %s: %w", txHash.Hex(), err)
	}
	if tx == nil {
		return TxInfo{}, fmt.Errorf("transaction %s: not found", txHash.Hex())
	}

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return TxInfo{}, fmt.Errorf("recover sender of %s: %w", txHash.Hex(), err)
	}

	return TxInfo{Input: tx.Data(), From: from}, nil
}

// PendingNonceAt returns the next nonce for an account including pending
// transactions.
func (c *Client) PendingNonceAt(ctx context.Context, address common.Address) (uint64, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.ethClient.PendingNonceAt(ctx, address)
}

// SendTransaction submits a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.ethClient.SendTransaction(ctx, tx)
}

// WaitForReceipt polls until the transaction is mined or the context ends.
// A receipt with failed status is returned alongside an error.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash, poll time.Duration) (*types.Receipt, error) {
	if poll <= 0 {
		poll = 2 * time.Second
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		receipt, err := c.transactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("transaction %s reverted", txHash.Hex())
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait receipt %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) transactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.ethClient.TransactionReceipt(ctx, txHash)
}

// SubscribeFilterLogs subscribes to contract logs matching the query.
func (c *Client) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.ethClient.SubscribeFilterLogs(ctx, query, ch)
}
