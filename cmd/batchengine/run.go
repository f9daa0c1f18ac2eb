package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/steelbatch/orderbook-engine/internal/applog"
	"github.com/steelbatch/orderbook-engine/internal/driver"
	"github.com/steelbatch/orderbook-engine/internal/ingest"
	"github.com/steelbatch/orderbook-engine/internal/snapshot"
	"github.com/steelbatch/orderbook-engine/internal/viewcall"
	"github.com/steelbatch/orderbook-engine/pkg/merkle"
	"github.com/steelbatch/orderbook-engine/pkg/orderbook"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest new orders, match one batch against live on-chain state, and persist the surviving UTXO set",
	RunE:  runBatch,
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runID := uuid.New()
	logger := applog.WithComponent("run").With().Str("run_id", runID.String()).Logger()

	if cfg.MetricsAddr != "" {
		srv := driver.StartServer(cfg.MetricsAddr)
		defer srv.Close()
	}

	contract, err := types.ParseAddress(cfg.ContractAddress)
	if err != nil {
		return fmt.Errorf("parsing order book contract address: %w", err)
	}

	existing, err := loadExistingUtxosWithProofs(cfg.UTXOSnapshotPath)
	if err != nil {
		return err
	}

	newOrders, err := loadNewOrders(cfg.OrdersCSVPath, cfg.BatchSize)
	if err != nil {
		return err
	}
	logger.Info().Int("new_orders", len(newOrders)).Int("existing_utxos", len(existing)).Msg("loaded batch input")

	chain, err := viewcall.Dial(ctx, cfg.RPCURL, common.Address(contract))
	if err != nil {
		return fmt.Errorf("dialing rpc endpoint: %w", err)
	}
	defer chain.Close()

	batchIndex, err := chain.CurrentBatchIndex(ctx)
	if err != nil {
		return fmt.Errorf("reading on-chain batch index: %w", err)
	}
	priorRoot, err := chain.UtxoMerkleRoot(ctx)
	if err != nil {
		return fmt.Errorf("reading on-chain utxo merkle root: %w", err)
	}

	input := orderbook.BatchInput{
		BatchIndex:              batchIndex,
		PriorRoot:               priorRoot,
		ExistingUtxosWithProofs: existing,
		NewOrders:               newOrders,
	}

	d := driver.New(chain, common.Address(contract))
	journal, err := d.RunBatch(ctx, input)
	if err != nil {
		return err
	}

	if err := saveSurvivingUtxos(cfg.UTXOSnapshotPath, journal.Output.NewUtxos); err != nil {
		return err
	}

	logger.Info().Str("state_commitment", fmt.Sprintf("%x", journal.StateCommitment)).Msg("batch run complete")
	return nil
}

// loadExistingUtxosWithProofs reads the persisted UTXO snapshot and rebuilds
// each entry's Merkle inclusion proof against the tree the snapshot itself
// implies — the snapshot's on-disk order is exactly the leaf order the
// on-chain root was last computed over. A missing snapshot file means this
// is the first batch ever run against this contract: an empty set.
func loadExistingUtxosWithProofs(path string) ([]orderbook.UtxoWithProof, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening utxo snapshot %s: %w", path, err)
	}
	defer f.Close()

	utxos, err := snapshot.Load(f)
	if err != nil {
		return nil, err
	}

	ids := make([]types.Hash, len(utxos))
	for i, u := range utxos {
		ids[i] = u.ID
	}
	tree := merkle.New(ids)

	withProofs := make([]orderbook.UtxoWithProof, len(utxos))
	for i, u := range utxos {
		proof, err := tree.Proof(i)
		if err != nil {
			return nil, fmt.Errorf("building proof for snapshot entry %d: %w", i, err)
		}
		withProofs[i] = orderbook.UtxoWithProof{Utxo: u, ProofHashes: proof, LeafIndex: uint64(i)}
	}
	return withProofs, nil
}

func loadNewOrders(path string, limit int) ([]orderbook.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening orders file %s: %w", path, err)
	}
	defer f.Close()

	return ingest.Orders(f, limit, ingest.NonceSeed())
}

func saveSurvivingUtxos(path string, utxos []orderbook.UTXO) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing utxo snapshot %s: %w", path, err)
	}
	defer f.Close()

	return snapshot.Save(f, utxos)
}
