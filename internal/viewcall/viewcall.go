// Package viewcall wraps the on-chain view calls the driver binds a batch
// against: the OrderBook contract's utxoMerkleRoot() and
// currentBatchIndex(), plus a commit() finalizer that produces the opaque
// StateCommitment carried in the output Journal.
package viewcall

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/steelbatch/orderbook-engine/pkg/bkerrors"
	"github.com/steelbatch/orderbook-engine/pkg/orderbook"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

// selectors are the first four bytes of keccak256(signature), the
// standard Solidity function selector.
var (
	selectorUtxoMerkleRoot  = crypto.Keccak256([]byte("utxoMerkleRoot()"))[:4]
	selectorCurrentBatchIdx = crypto.Keccak256([]byte("currentBatchIndex()"))[:4]
)

// Client queries the OrderBook contract's view functions over an
// Ethereum-compatible JSON-RPC endpoint.
type Client struct {
	eth      *ethclient.Client
	contract common.Address
}

// Dial connects to rpcURL and binds subsequent calls to contract.
func Dial(ctx context.Context, rpcURL string, contract common.Address) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("viewcall: connecting to rpc: %w", err)
	}
	return &Client{eth: eth, contract: contract}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// UtxoMerkleRoot calls the contract's utxoMerkleRoot() view function.
func (c *Client) UtxoMerkleRoot(ctx context.Context) (types.Hash, error) {
	result, err := c.call(ctx, selectorUtxoMerkleRoot)
	if err != nil {
		return types.Hash{}, err
	}
	if len(result) != types.HashSize {
		return types.Hash{}, bkerrors.Wrap(bkerrors.KindStateMismatch, nil,
			"viewcall: utxoMerkleRoot returned %d bytes, want %d", len(result), types.HashSize)
	}
	var root types.Hash
	copy(root[:], result)
	return root, nil
}

// CurrentBatchIndex calls the contract's currentBatchIndex() view function.
func (c *Client) CurrentBatchIndex(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, selectorCurrentBatchIdx)
	if err != nil {
		return 0, err
	}
	if len(result) < 32 {
		return 0, bkerrors.Wrap(bkerrors.KindStateMismatch, nil,
			"viewcall: currentBatchIndex returned %d bytes, want >= 32", len(result))
	}
	return new(big.Int).SetBytes(result[:32]).Uint64(), nil
}

func (c *Client) call(ctx context.Context, selector []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &c.contract, Data: selector}
	result, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("viewcall: calling contract %s: %w", c.contract, err)
	}
	return result, nil
}

// Commit derives the StateCommitment binding a BatchOutput to the
// on-chain state it was validated against: the contract address, the
// batch index, and the prior root it extends. It is an opaque value to
// every other package — only the on-chain verifier and this function
// agree on its construction.
func Commit(contract common.Address, batchIndex uint64, priorRoot types.Hash) orderbook.StateCommitment {
	var idx [8]byte
	big.NewInt(0).SetUint64(batchIndex).FillBytes(idx[:])

	buf := make([]byte, 0, len(contract)+len(idx)+types.HashSize)
	buf = append(buf, contract.Bytes()...)
	buf = append(buf, idx[:]...)
	buf = append(buf, priorRoot.Bytes()...)

	return orderbook.StateCommitment(crypto.Keccak256(buf))
}
