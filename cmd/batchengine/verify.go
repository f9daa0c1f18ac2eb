package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/steelbatch/orderbook-engine/internal/applog"
	"github.com/steelbatch/orderbook-engine/internal/snapshot"
	"github.com/steelbatch/orderbook-engine/internal/viewcall"
	"github.com/steelbatch/orderbook-engine/pkg/bkerrors"
	"github.com/steelbatch/orderbook-engine/pkg/merkle"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

var verifyProofsCmd = &cobra.Command{
	Use:   "verify-proofs",
	Short: "Recompute the Merkle root over the local UTXO snapshot and compare it against the live on-chain root",
	RunE:  verifyProofs,
}

func verifyProofs(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := applog.WithComponent("verify-proofs")

	f, err := os.Open(cfg.UTXOSnapshotPath)
	if err != nil {
		return fmt.Errorf("opening utxo snapshot %s: %w", cfg.UTXOSnapshotPath, err)
	}
	defer f.Close()

	utxos, err := snapshot.Load(f)
	if err != nil {
		return err
	}

	ids := make([]types.Hash, len(utxos))
	for i, u := range utxos {
		ids[i] = u.ID
	}
	localRoot := merkle.RootOf(ids)

	contract, err := types.ParseAddress(cfg.ContractAddress)
	if err != nil {
		return fmt.Errorf("parsing order book contract address: %w", err)
	}

	chain, err := viewcall.Dial(ctx, cfg.RPCURL, common.Address(contract))
	if err != nil {
		return fmt.Errorf("dialing rpc endpoint: %w", err)
	}
	defer chain.Close()

	onChainRoot, err := chain.UtxoMerkleRoot(ctx)
	if err != nil {
		return fmt.Errorf("reading on-chain utxo merkle root: %w", err)
	}

	if localRoot != onChainRoot {
		return bkerrors.New(bkerrors.KindStateMismatch,
			fmt.Sprintf("local snapshot root %s does not match on-chain root %s", localRoot, onChainRoot))
	}

	logger.Info().Int("utxos", len(utxos)).Str("root", localRoot.String()).Msg("snapshot matches on-chain root")
	cmd.Printf("ok: %d utxos, root %s\n", len(utxos), localRoot)
	return nil
}
