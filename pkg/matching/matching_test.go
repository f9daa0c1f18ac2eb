package matching

import (
	"testing"

	"github.com/steelbatch/orderbook-engine/pkg/bkerrors"
	"github.com/steelbatch/orderbook-engine/pkg/merkle"
	"github.com/steelbatch/orderbook-engine/pkg/orderbook"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

// addresses from the concrete scenarios: A = 0x853e...0d8F, B = 0xf841...4070.
var (
	addrA, _ = types.ParseAddress("0x853e3dC3005b83db47B21d6532F3c5500E970d8F")
	addrB, _ = types.ParseAddress("0xf841c5bba73Fa25AE775B0a3a2D816d06B044070")
)

func order(side types.Side, price, qty uint64, owner types.Address, nonce, expiry uint64) orderbook.Order {
	return orderbook.Order{Side: side, Price: price, Quantity: qty, Owner: owner, Nonce: nonce, ExpiryBatch: expiry}
}

func inputWith(batchIndex uint64, newOrders ...orderbook.Order) orderbook.BatchInput {
	return orderbook.BatchInput{BatchIndex: batchIndex, PriorRoot: types.Hash{}, NewOrders: newOrders}
}

// S1 — no cross.
func TestMatchOrders_S1_NoCross(t *testing.T) {
	in := inputWith(1,
		order(types.Buy, 100, 10, addrA, 1, 10),
		order(types.Sell, 101, 10, addrB, 2, 10),
	)
	out, err := MatchOrders(in)
	if err != nil {
		t.Fatalf("MatchOrders: %v", err)
	}
	if len(out.Fills) != 0 {
		t.Errorf("expected 0 fills, got %d", len(out.Fills))
	}
	if len(out.NewUtxos) != 2 {
		t.Fatalf("expected 2 new utxos, got %d", len(out.NewUtxos))
	}
	wantRoot := merkle.RootOf([]types.Hash{out.NewUtxos[0].ID, out.NewUtxos[1].ID})
	if out.NewRoot != wantRoot {
		t.Errorf("new_root mismatch")
	}
	if len(out.ConsumedUtxoIds) != 0 {
		t.Errorf("expected empty consumed, got %v", out.ConsumedUtxoIds)
	}
	// buy-then-sell order.
	if out.NewUtxos[0].Order.Side != types.Buy || out.NewUtxos[1].Order.Side != types.Sell {
		t.Error("expected buy-then-sell emission order")
	}
}

// S2 — exact cross, maker is buy.
func TestMatchOrders_S2_ExactCross(t *testing.T) {
	in := inputWith(1,
		order(types.Buy, 100, 10, addrA, 1, 10),
		order(types.Sell, 100, 10, addrB, 2, 10),
	)
	out, err := MatchOrders(in)
	if err != nil {
		t.Fatalf("MatchOrders: %v", err)
	}
	if len(out.Fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(out.Fills))
	}
	f := out.Fills[0]
	if f.Price != 100 || f.Quantity != 10 || f.MakerIsSeller {
		t.Errorf("unexpected fill: %+v", f)
	}
	if len(out.NewUtxos) != 0 {
		t.Errorf("expected no new utxos, got %d", len(out.NewUtxos))
	}
	if !out.NewRoot.IsZero() {
		t.Errorf("expected zero root for empty new_utxos, got %s", out.NewRoot)
	}
	if len(out.ConsumedUtxoIds) != 2 {
		t.Fatalf("expected 2 consumed ids, got %d", len(out.ConsumedUtxoIds))
	}
	buyID := order(types.Buy, 100, 10, addrA, 1, 10).ComputeID()
	sellID := order(types.Sell, 100, 10, addrB, 2, 10).ComputeID()
	if out.ConsumedUtxoIds[0] != buyID || out.ConsumedUtxoIds[1] != sellID {
		t.Errorf("expected consumed = [buy, sell] in that order, got %v", out.ConsumedUtxoIds)
	}
}

// S3 — partial fill on sell. Maker is the smaller-nonce order (the buy);
// the execution price is the maker's price (spec.md line 93-95, I5).
func TestMatchOrders_S3_PartialFill(t *testing.T) {
	in := inputWith(1,
		order(types.Buy, 100, 5, addrA, 1, 10),
		order(types.Sell, 99, 10, addrB, 2, 10),
	)
	out, err := MatchOrders(in)
	if err != nil {
		t.Fatalf("MatchOrders: %v", err)
	}
	if len(out.Fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(out.Fills))
	}
	f := out.Fills[0]
	if f.Price != 100 || f.Quantity != 5 || f.MakerIsSeller {
		t.Errorf("unexpected fill: %+v", f)
	}
	if len(out.NewUtxos) != 1 {
		t.Fatalf("expected 1 new utxo, got %d", len(out.NewUtxos))
	}
	residual := out.NewUtxos[0]
	if residual.Order.Side != types.Sell || residual.Order.Quantity != 5 {
		t.Errorf("unexpected residual: %+v", residual.Order)
	}
	buyID := order(types.Buy, 100, 5, addrA, 1, 10).ComputeID()
	if len(out.ConsumedUtxoIds) != 1 || out.ConsumedUtxoIds[0] != buyID {
		t.Errorf("expected consumed = [buyID], got %v", out.ConsumedUtxoIds)
	}
	wantRoot := merkle.RootOf([]types.Hash{residual.ID})
	if out.NewRoot != wantRoot {
		t.Errorf("new_root mismatch")
	}
}

// S4 — price-time priority.
func TestMatchOrders_S4_PriceTimePriority(t *testing.T) {
	in := inputWith(1,
		order(types.Buy, 100, 5, addrA, 1, 10),
		order(types.Sell, 100, 5, addrB, 2, 10),
		order(types.Buy, 100, 5, addrA, 3, 10),
	)
	out, err := MatchOrders(in)
	if err != nil {
		t.Fatalf("MatchOrders: %v", err)
	}
	if len(out.Fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(out.Fills))
	}
	lowNonceBuyID := order(types.Buy, 100, 5, addrA, 1, 10).ComputeID()
	if out.Fills[0].MakerUtxoID != lowNonceBuyID && out.Fills[0].TakerUtxoID != lowNonceBuyID {
		t.Errorf("expected the lower-nonce buy to participate in the fill")
	}
	if len(out.NewUtxos) != 1 {
		t.Fatalf("expected 1 residual new utxo, got %d", len(out.NewUtxos))
	}
	highNonceBuyID := order(types.Buy, 100, 5, addrA, 3, 10).ComputeID()
	if out.NewUtxos[0].ID != highNonceBuyID {
		t.Error("expected the higher-nonce buy to remain untouched as a new utxo")
	}
}

// S5 — expiry of an existing UTXO.
func TestMatchOrders_S5_ExpiredExisting(t *testing.T) {
	existingOrder := order(types.Sell, 100, 10, addrB, 5, 0)
	existingUtxo := orderbook.NewUTXO(existingOrder)
	in := orderbook.BatchInput{
		BatchIndex: 1,
		PriorRoot:  merkle.RootOf([]types.Hash{existingUtxo.ID}),
		ExistingUtxosWithProofs: []orderbook.UtxoWithProof{
			{Utxo: existingUtxo, ProofHashes: nil, LeafIndex: 0},
		},
	}
	out, err := MatchOrders(in)
	if err != nil {
		t.Fatalf("MatchOrders: %v", err)
	}
	if len(out.Fills) != 0 {
		t.Errorf("expected 0 fills, got %d", len(out.Fills))
	}
	if len(out.NewUtxos) != 0 {
		t.Errorf("expected 0 new utxos, got %d", len(out.NewUtxos))
	}
	if len(out.ConsumedUtxoIds) != 1 || out.ConsumedUtxoIds[0] != existingUtxo.ID {
		t.Errorf("expected consumed = [existing id], got %v", out.ConsumedUtxoIds)
	}
}

// S6 — cascading cross. In both crosses the buy (nonce=1) is the
// smaller-nonce order and therefore the maker, so exec_price is the buy's
// price in each fill (spec.md line 93-95, I5).
func TestMatchOrders_S6_CascadingCross(t *testing.T) {
	in := inputWith(1,
		order(types.Buy, 105, 100, addrA, 1, 10),
		order(types.Sell, 99, 75, addrB, 2, 10),
		order(types.Sell, 101, 150, addrB, 3, 10),
	)
	out, err := MatchOrders(in)
	if err != nil {
		t.Fatalf("MatchOrders: %v", err)
	}
	if len(out.Fills) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(out.Fills))
	}

	f1 := out.Fills[0]
	if f1.Price != 105 || f1.Quantity != 75 || f1.MakerIsSeller {
		t.Errorf("fill1 mismatch: %+v", f1)
	}

	f2 := out.Fills[1]
	if f2.Price != 105 || f2.Quantity != 25 || f2.MakerIsSeller {
		t.Errorf("fill2 mismatch: %+v", f2)
	}

	if len(out.NewUtxos) != 1 {
		t.Fatalf("expected 1 residual, got %d", len(out.NewUtxos))
	}
	residual := out.NewUtxos[0]
	if residual.Order.Side != types.Sell || residual.Order.Price != 101 || residual.Order.Quantity != 125 {
		t.Errorf("unexpected residual: %+v", residual.Order)
	}
}

// P4 — matching determinism.
func TestMatchOrders_Deterministic(t *testing.T) {
	in := inputWith(1,
		order(types.Buy, 105, 100, addrA, 1, 10),
		order(types.Sell, 99, 75, addrB, 2, 10),
		order(types.Sell, 101, 150, addrB, 3, 10),
	)
	out1, err1 := MatchOrders(in)
	out2, err2 := MatchOrders(in)
	if err1 != nil || err2 != nil {
		t.Fatalf("MatchOrders errors: %v / %v", err1, err2)
	}
	if out1.NewRoot != out2.NewRoot || len(out1.Fills) != len(out2.Fills) || len(out1.NewUtxos) != len(out2.NewUtxos) {
		t.Error("MatchOrders is not deterministic")
	}
}

// P5 — order independence of input ordering.
func TestMatchOrders_InputOrderIndependence(t *testing.T) {
	a := order(types.Buy, 105, 100, addrA, 1, 10)
	b := order(types.Sell, 99, 75, addrB, 2, 10)
	c := order(types.Sell, 101, 150, addrB, 3, 10)

	in1 := inputWith(1, a, b, c)
	in2 := inputWith(1, c, a, b)

	out1, err1 := MatchOrders(in1)
	out2, err2 := MatchOrders(in2)
	if err1 != nil || err2 != nil {
		t.Fatalf("MatchOrders errors: %v / %v", err1, err2)
	}
	if out1.NewRoot != out2.NewRoot {
		t.Error("permuting new_orders should not change new_root")
	}
	if len(out1.Fills) != len(out2.Fills) {
		t.Error("permuting new_orders should not change fill count")
	}
}

func TestMatchOrders_ExpiredNewOrderSilentlyDropped(t *testing.T) {
	in := inputWith(1, order(types.Buy, 100, 5, addrA, 1, 0))
	out, err := MatchOrders(in)
	if err != nil {
		t.Fatalf("MatchOrders: %v", err)
	}
	if len(out.NewUtxos) != 0 || len(out.ConsumedUtxoIds) != 0 {
		t.Errorf("expired new order should be silently dropped, got %+v", out)
	}
}

func TestMatchOrders_ZeroQuantityOrderIsFatal(t *testing.T) {
	in := inputWith(1, order(types.Buy, 100, 0, addrA, 1, 10))
	_, err := MatchOrders(in)
	if bkerrors.KindOf(err) != bkerrors.KindInputInvariantViolated {
		t.Fatalf("expected InputInvariantViolated, got %v", err)
	}
}

func TestMatchOrders_DuplicateNonceIsFatal(t *testing.T) {
	in := inputWith(1,
		order(types.Buy, 100, 5, addrA, 1, 10),
		order(types.Sell, 101, 5, addrB, 1, 10),
	)
	_, err := MatchOrders(in)
	if bkerrors.KindOf(err) != bkerrors.KindInputInvariantViolated {
		t.Fatalf("expected InputInvariantViolated for duplicate nonce, got %v", err)
	}
}

func TestMatchOrders_InvalidProofIsFatal(t *testing.T) {
	o := order(types.Sell, 100, 10, addrB, 1, 10)
	u := orderbook.NewUTXO(o)
	in := orderbook.BatchInput{
		BatchIndex: 1,
		PriorRoot:  types.Hash{0xFF}, // wrong root
		ExistingUtxosWithProofs: []orderbook.UtxoWithProof{
			{Utxo: u, ProofHashes: nil, LeafIndex: 0},
		},
	}
	_, err := MatchOrders(in)
	if bkerrors.KindOf(err) != bkerrors.KindProofInvalid {
		t.Fatalf("expected ProofInvalid, got %v", err)
	}
}

func TestMatchOrders_EmptyInputYieldsZeroRoot(t *testing.T) {
	out, err := MatchOrders(inputWith(1))
	if err != nil {
		t.Fatalf("MatchOrders: %v", err)
	}
	if !out.NewRoot.IsZero() {
		t.Errorf("expected zero root, got %s", out.NewRoot)
	}
}
