// Package driver binds a BatchInput to live on-chain state, executes the
// matching engine, and emits the Journal a caller can submit back to the
// OrderBook contract.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/steelbatch/orderbook-engine/internal/applog"
	"github.com/steelbatch/orderbook-engine/internal/viewcall"
	"github.com/steelbatch/orderbook-engine/pkg/bkerrors"
	"github.com/steelbatch/orderbook-engine/pkg/matching"
	"github.com/steelbatch/orderbook-engine/pkg/orderbook"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

// chainReader is the subset of *viewcall.Client the driver depends on. It
// exists so tests can bind a Driver against on-chain state without a live
// RPC endpoint.
type chainReader interface {
	CurrentBatchIndex(ctx context.Context) (uint64, error)
	UtxoMerkleRoot(ctx context.Context) (types.Hash, error)
}

// Driver ties the on-chain view-call client to the pure matching engine.
type Driver struct {
	chain    chainReader
	contract common.Address
}

// New returns a Driver that validates batches against chain and commits
// their Journal against contract. chain is ordinarily a *viewcall.Client;
// tests may substitute any type satisfying the same two methods.
func New(chain chainReader, contract common.Address) *Driver {
	return &Driver{chain: chain, contract: contract}
}

// RunBatch validates input's declared batch index and prior root against
// the live on-chain values, runs matching.MatchOrders, and returns the
// resulting Journal. A disagreement between input and on-chain state is a
// StateMismatch, raised before any matching work is attempted.
func (d *Driver) RunBatch(ctx context.Context, input orderbook.BatchInput) (orderbook.Journal, error) {
	logger := applog.WithBatchIndex(input.BatchIndex)

	if err := d.checkChainState(ctx, input); err != nil {
		return orderbook.Journal{}, err
	}

	ordersDroppedExpiredTotal.Add(float64(countExpired(input)))

	start := time.Now()
	output, err := matching.MatchOrders(input)
	matchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error().Err(err).Msg("batch matching failed")
		return orderbook.Journal{}, err
	}

	batchesProcessedTotal.Inc()
	fillsTotal.Add(float64(len(output.Fills)))

	journal := orderbook.Journal{
		StateCommitment: viewcall.Commit(d.contract, input.BatchIndex, input.PriorRoot),
		Output:          output,
	}

	logSummary(logger, journal)
	return journal, nil
}

func (d *Driver) checkChainState(ctx context.Context, input orderbook.BatchInput) error {
	onChainIndex, err := d.chain.CurrentBatchIndex(ctx)
	if err != nil {
		return bkerrors.Wrap(bkerrors.KindStateMismatch, err, "reading on-chain batch index")
	}
	if input.BatchIndex != onChainIndex {
		return bkerrors.New(bkerrors.KindStateMismatch,
			fmt.Sprintf("batch_index %d does not match on-chain batch index %d", input.BatchIndex, onChainIndex))
	}

	onChainRoot, err := d.chain.UtxoMerkleRoot(ctx)
	if err != nil {
		return bkerrors.Wrap(bkerrors.KindStateMismatch, err, "reading on-chain utxo merkle root")
	}
	if input.PriorRoot != onChainRoot {
		return bkerrors.New(bkerrors.KindStateMismatch,
			fmt.Sprintf("prior_root %s does not match on-chain root %s", input.PriorRoot, onChainRoot))
	}
	return nil
}

func countExpired(input orderbook.BatchInput) int {
	n := 0
	for _, o := range input.NewOrders {
		if o.IsExpired(input.BatchIndex) {
			n++
		}
	}
	return n
}

func logSummary(logger zerolog.Logger, j orderbook.Journal) {
	logger.Info().Msg("=== Batch Execution Summary ===")
	logger.Info().
		Int("fills", len(j.Output.Fills)).
		Int("new_utxos", len(j.Output.NewUtxos)).
		Int("consumed_utxos", len(j.Output.ConsumedUtxoIds)).
		Str("new_root", j.Output.NewRoot.String()).
		Msg("batch result")

	for i, f := range j.Output.Fills {
		logger.Info().
			Int("fill", i).
			Str("maker", f.Maker.String()).
			Str("taker", f.Taker.String()).
			Uint64("price", f.Price).
			Uint64("quantity", f.Quantity).
			Bool("maker_is_seller", f.MakerIsSeller).
			Msg("fill detail")
	}
}
