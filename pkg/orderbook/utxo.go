package orderbook

import "github.com/steelbatch/orderbook-engine/pkg/types"

// UTXO is a content-addressed standing order: an unfilled or partially
// filled Order together with the id derived from its fields. The id and
// the order must always satisfy id == order.ComputeID() (invariant I1).
type UTXO struct {
	ID    types.Hash
	Order Order
}

// NewUTXO builds a UTXO from an order, computing its id.
func NewUTXO(order Order) UTXO {
	return UTXO{ID: order.ComputeID(), Order: order}
}

// IsExpired reports whether the underlying order is no longer valid at
// batchIndex.
func (u UTXO) IsExpired(batchIndex uint64) bool {
	return u.Order.IsExpired(batchIndex)
}

// WithQuantity returns a fresh UTXO carrying the order with a reduced
// quantity. The returned UTXO has a new id — a partial fill always
// materializes a brand-new UTXO.
func (u UTXO) WithQuantity(qty uint64) UTXO {
	return NewUTXO(u.Order.WithQuantity(qty))
}

// UtxoWithProof pairs a UTXO with its Merkle inclusion proof against a
// previously committed root, plus the leaf index the proof was generated
// for. LeafIndex and len(ProofHashes) are bound together with the root at
// verification time — see pkg/merkle.
type UtxoWithProof struct {
	Utxo        UTXO
	ProofHashes []types.Hash
	LeafIndex   uint64
}
