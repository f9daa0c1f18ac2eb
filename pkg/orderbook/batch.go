package orderbook

import "github.com/steelbatch/orderbook-engine/pkg/types"

// BatchInput is everything match_orders needs to process one batch: the
// batch's declared index, the Merkle root it claims to extend, the
// surviving pre-batch UTXOs (each with a proof against PriorRoot), and the
// new orders submitted in this batch.
type BatchInput struct {
	BatchIndex              uint64
	PriorRoot               types.Hash
	ExistingUtxosWithProofs []UtxoWithProof
	NewOrders               []Order
}

// BatchOutput is the deterministic result of matching one BatchInput: the
// fills executed, the UTXOs surviving into the next batch, the ids removed
// from the active set, and the new Merkle root over NewUtxos.
type BatchOutput struct {
	BatchIndex      uint64
	Fills           []Fill
	NewUtxos        []UTXO
	ConsumedUtxoIds []types.Hash
	NewRoot         types.Hash
}

// StateCommitment is an opaque value proving which on-chain state a batch
// was validated against. The core treats it as a black box produced by the
// view-call abstraction (internal/viewcall) and only carries it through.
type StateCommitment []byte

// Journal is the final object the driver emits: a BatchOutput bound to the
// on-chain state it was computed against.
type Journal struct {
	StateCommitment StateCommitment
	Output          BatchOutput
}
