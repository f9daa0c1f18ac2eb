package orderbook

import "github.com/steelbatch/orderbook-engine/pkg/types"

// Fill records one match between a maker and a taker UTXO. Execution price
// is always the maker's price (invariant I5); quantity is always strictly
// positive.
type Fill struct {
	MakerUtxoID   types.Hash
	TakerUtxoID   types.Hash
	Price         uint64
	Quantity      uint64
	Maker         types.Address
	Taker         types.Address
	MakerIsSeller bool
}
