// Package orderbook defines the value types of the batch-matching engine:
// orders, UTXOs, fills, and the batch input/output envelopes that flow
// between the driver and the matching engine.
package orderbook

import (
	"encoding/binary"

	"github.com/steelbatch/orderbook-engine/pkg/crypto"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

// Order is a standing limit order: buy or sell a fixed quantity at a fixed
// price, submitted by an owner and tagged with a globally unique nonce used
// as the time-priority key.
type Order struct {
	Side        types.Side
	Price       uint64
	Quantity    uint64
	Owner       types.Address
	Nonce       uint64
	ExpiryBatch uint64
}

// IsExpired reports whether the order is no longer valid at batchIndex.
// ExpiryBatch is inclusive: the order is valid in batches <= ExpiryBatch.
func (o Order) IsExpired(batchIndex uint64) bool {
	return o.ExpiryBatch < batchIndex
}

// ComputeID derives the content-addressed UTXO id of an order:
// SHA-256(side_byte || price_le8 || quantity_le8 || owner_20 || nonce_le8 || expiry_le8).
// This serialization is normative — every implementation must produce
// identical bytes for identical orders.
func (o Order) ComputeID() types.Hash {
	var buf [1 + 8 + 8 + types.AddressSize + 8 + 8]byte
	off := 0
	buf[off] = o.Side.Byte()
	off++
	binary.LittleEndian.PutUint64(buf[off:], o.Price)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], o.Quantity)
	off += 8
	copy(buf[off:], o.Owner[:])
	off += types.AddressSize
	binary.LittleEndian.PutUint64(buf[off:], o.Nonce)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], o.ExpiryBatch)

	return crypto.Hash(buf[:])
}

// WithQuantity returns a copy of the order with its quantity replaced. Used
// to materialize the residual order left behind by a partial fill — the
// result has a different id because its quantity differs.
func (o Order) WithQuantity(qty uint64) Order {
	o.Quantity = qty
	return o
}
