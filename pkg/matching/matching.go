// Package matching implements the pure, deterministic batch matching
// algorithm: proof verification of existing UTXOs, price-time priority
// crossing between buy and sell books, and emission of a fresh BatchOutput.
//
// MatchOrders has no I/O, no globals, and no shared mutable state — it
// borrows its input, owns its intermediate allocations, and returns a
// freshly built BatchOutput.
package matching

import (
	"sort"
	"strconv"

	"github.com/steelbatch/orderbook-engine/pkg/bkerrors"
	"github.com/steelbatch/orderbook-engine/pkg/merkle"
	"github.com/steelbatch/orderbook-engine/pkg/orderbook"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

// bookEntry is a mutable working copy of a UTXO (existing or freshly
// created from a new order) as it moves through the crossing loop. id and
// order always describe the entry's state *before* this batch's fills;
// remaining tracks the quantity left to match.
type bookEntry struct {
	id        types.Hash
	order     orderbook.Order
	remaining uint64
}

// MatchOrders validates input, executes price-time priority matching
// between the buy and sell books, and returns the resulting BatchOutput.
func MatchOrders(input orderbook.BatchInput) (orderbook.BatchOutput, error) {
	// Step 1 — existing UTXO verification.
	totalLeaves := uint64(len(input.ExistingUtxosWithProofs))
	seenExistingIDs := make(map[types.Hash]int, len(input.ExistingUtxosWithProofs))
	for i, p := range input.ExistingUtxosWithProofs {
		if !merkle.Verify(input.PriorRoot, p.Utxo.ID, p.LeafIndex, p.ProofHashes, totalLeaves) {
			return orderbook.BatchOutput{}, bkerrors.NewAt(bkerrors.KindProofInvalid,
				"existing utxo proof failed verification against prior_root", i)
		}
		if p.Utxo.Order.Quantity == 0 {
			return orderbook.BatchOutput{}, bkerrors.NewAt(bkerrors.KindInputInvariantViolated,
				"existing utxo has zero quantity", i)
		}
		if prev, dup := seenExistingIDs[p.Utxo.ID]; dup {
			return orderbook.BatchOutput{}, bkerrors.NewAt(bkerrors.KindInputInvariantViolated,
				"duplicate utxo id in existing set (also at index "+strconv.Itoa(prev)+")", i)
		}
		seenExistingIDs[p.Utxo.ID] = i
	}

	for i, o := range input.NewOrders {
		if o.Quantity == 0 {
			return orderbook.BatchOutput{}, bkerrors.NewAt(bkerrors.KindInputInvariantViolated,
				"new order has zero quantity", i)
		}
	}

	var buyBook, sellBook []bookEntry
	var consumed []types.Hash
	nonceOwner := make(map[uint64]string, len(input.ExistingUtxosWithProofs)+len(input.NewOrders))

	checkNonce := func(nonce uint64, origin string) error {
		if prev, dup := nonceOwner[nonce]; dup {
			return bkerrors.New(bkerrors.KindInputInvariantViolated,
				"duplicate nonce "+strconv.FormatUint(nonce, 10)+": "+origin+" collides with "+prev)
		}
		nonceOwner[nonce] = origin
		return nil
	}

	// Step 2 — expiry pass on existing UTXOs.
	for i, p := range input.ExistingUtxosWithProofs {
		u := p.Utxo
		if u.IsExpired(input.BatchIndex) {
			consumed = append(consumed, u.ID)
			continue
		}
		if err := checkNonce(u.Order.Nonce, "existing utxo "+strconv.Itoa(i)); err != nil {
			return orderbook.BatchOutput{}, err
		}
		entry := bookEntry{id: u.ID, order: u.Order, remaining: u.Order.Quantity}
		if u.Order.Side == types.Buy {
			buyBook = append(buyBook, entry)
		} else {
			sellBook = append(sellBook, entry)
		}
	}

	// Step 3 — new-order intake.
	for i, o := range input.NewOrders {
		if o.IsExpired(input.BatchIndex) {
			continue
		}
		if err := checkNonce(o.Nonce, "new order "+strconv.Itoa(i)); err != nil {
			return orderbook.BatchOutput{}, err
		}
		entry := bookEntry{id: o.ComputeID(), order: o, remaining: o.Quantity}
		if o.Side == types.Buy {
			buyBook = append(buyBook, entry)
		} else {
			sellBook = append(sellBook, entry)
		}
	}

	// Step 4 — sort with price-time priority.
	sort.Slice(buyBook, func(i, j int) bool {
		if buyBook[i].order.Price != buyBook[j].order.Price {
			return buyBook[i].order.Price > buyBook[j].order.Price
		}
		return buyBook[i].order.Nonce < buyBook[j].order.Nonce
	})
	sort.Slice(sellBook, func(i, j int) bool {
		if sellBook[i].order.Price != sellBook[j].order.Price {
			return sellBook[i].order.Price < sellBook[j].order.Price
		}
		return sellBook[i].order.Nonce < sellBook[j].order.Nonce
	})

	// Step 5 — crossing loop.
	var fills []orderbook.Fill
	bi, si := 0, 0
	for bi < len(buyBook) && si < len(sellBook) {
		b := &buyBook[bi]
		s := &sellBook[si]
		if b.order.Price < s.order.Price {
			break
		}

		var makerIsSeller bool
		var makerID, takerID types.Hash
		var makerOwner, takerOwner types.Address
		var execPrice uint64
		if b.order.Nonce < s.order.Nonce {
			makerIsSeller = false
			makerID, takerID = b.id, s.id
			makerOwner, takerOwner = b.order.Owner, s.order.Owner
			execPrice = b.order.Price
		} else {
			makerIsSeller = true
			makerID, takerID = s.id, b.id
			makerOwner, takerOwner = s.order.Owner, b.order.Owner
			execPrice = s.order.Price
		}

		fillQty := min(b.remaining, s.remaining)
		fills = append(fills, orderbook.Fill{
			MakerUtxoID:   makerID,
			TakerUtxoID:   takerID,
			Price:         execPrice,
			Quantity:      fillQty,
			Maker:         makerOwner,
			Taker:         takerOwner,
			MakerIsSeller: makerIsSeller,
		})

		b.remaining -= fillQty
		s.remaining -= fillQty
		if b.remaining == 0 {
			consumed = append(consumed, b.id)
			bi++
		}
		if s.remaining == 0 {
			consumed = append(consumed, s.id)
			si++
		}
	}

	// Step 6 — residuals become new UTXOs, buy book first then sell book.
	var newUtxos []orderbook.UTXO
	for _, e := range buyBook[bi:] {
		newUtxos = append(newUtxos, orderbook.NewUTXO(e.order.WithQuantity(e.remaining)))
	}
	for _, e := range sellBook[si:] {
		newUtxos = append(newUtxos, orderbook.NewUTXO(e.order.WithQuantity(e.remaining)))
	}

	// Step 7 — root computation.
	ids := make([]types.Hash, len(newUtxos))
	for i, u := range newUtxos {
		ids[i] = u.ID
	}
	newRoot := merkle.RootOf(ids)

	return orderbook.BatchOutput{
		BatchIndex:      input.BatchIndex,
		Fills:           fills,
		NewUtxos:        newUtxos,
		ConsumedUtxoIds: consumed,
		NewRoot:         newRoot,
	}, nil
}
