package wire

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/steelbatch/orderbook-engine/pkg/bkerrors"
	"github.com/steelbatch/orderbook-engine/pkg/orderbook"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

func orderToABI(o orderbook.Order) abiOrder {
	return abiOrder{
		Side:        o.Side.Byte(),
		Price:       o.Price,
		Quantity:    o.Quantity,
		Owner:       common.Address(o.Owner),
		Nonce:       o.Nonce,
		ExpiryBatch: o.ExpiryBatch,
	}
}

func orderFromABI(a abiOrder) (orderbook.Order, error) {
	side, err := types.SideFromByte(a.Side)
	if err != nil {
		return orderbook.Order{}, bkerrors.Wrap(bkerrors.KindDecodeError, err, "order: invalid side byte %d", a.Side)
	}
	return orderbook.Order{
		Side:        side,
		Price:       a.Price,
		Quantity:    a.Quantity,
		Owner:       types.Address(a.Owner),
		Nonce:       a.Nonce,
		ExpiryBatch: a.ExpiryBatch,
	}, nil
}

func utxoToABI(u orderbook.UTXO) abiUtxo {
	return abiUtxo{
		Id:          u.ID,
		Side:        u.Order.Side.Byte(),
		Price:       u.Order.Price,
		Quantity:    u.Order.Quantity,
		Owner:       common.Address(u.Order.Owner),
		Nonce:       u.Order.Nonce,
		ExpiryBatch: u.Order.ExpiryBatch,
	}
}

func utxoFromABI(a abiUtxo) (orderbook.UTXO, error) {
	order, err := orderFromABI(abiOrder{
		Side: a.Side, Price: a.Price, Quantity: a.Quantity,
		Owner: a.Owner, Nonce: a.Nonce, ExpiryBatch: a.ExpiryBatch,
	})
	if err != nil {
		return orderbook.UTXO{}, err
	}
	u := orderbook.UTXO{ID: a.Id, Order: order}
	if u.ID != order.ComputeID() {
		return orderbook.UTXO{}, bkerrors.New(bkerrors.KindDecodeError, "utxo: decoded id does not equal H(order)")
	}
	return u, nil
}

func utxoWithProofToABI(p orderbook.UtxoWithProof) abiUtxoWithProof {
	base := utxoToABI(p.Utxo)
	proof := make([][32]byte, len(p.ProofHashes))
	for i, h := range p.ProofHashes {
		proof[i] = h
	}
	return abiUtxoWithProof{
		Id: base.Id, Side: base.Side, Price: base.Price, Quantity: base.Quantity,
		Owner: base.Owner, Nonce: base.Nonce, ExpiryBatch: base.ExpiryBatch,
		ProofHashes: proof,
		LeafIndex:   new(big.Int).SetUint64(p.LeafIndex),
	}
}

func utxoWithProofFromABI(a abiUtxoWithProof) (orderbook.UtxoWithProof, error) {
	u, err := utxoFromABI(abiUtxo{
		Id: a.Id, Side: a.Side, Price: a.Price, Quantity: a.Quantity,
		Owner: a.Owner, Nonce: a.Nonce, ExpiryBatch: a.ExpiryBatch,
	})
	if err != nil {
		return orderbook.UtxoWithProof{}, err
	}
	if a.LeafIndex == nil || !a.LeafIndex.IsUint64() {
		return orderbook.UtxoWithProof{}, bkerrors.New(bkerrors.KindDecodeError, "utxo_with_proof: leafIndex out of uint64 range")
	}
	proof := make([]types.Hash, len(a.ProofHashes))
	for i, h := range a.ProofHashes {
		proof[i] = h
	}
	return orderbook.UtxoWithProof{Utxo: u, ProofHashes: proof, LeafIndex: a.LeafIndex.Uint64()}, nil
}

func fillToABI(f orderbook.Fill) abiFill {
	return abiFill{
		MakerUtxoId: f.MakerUtxoID, TakerUtxoId: f.TakerUtxoID,
		Price: f.Price, Quantity: f.Quantity,
		Maker: common.Address(f.Maker), Taker: common.Address(f.Taker),
		MakerIsSeller: f.MakerIsSeller,
	}
}

func fillFromABI(a abiFill) orderbook.Fill {
	return orderbook.Fill{
		MakerUtxoID: a.MakerUtxoId, TakerUtxoID: a.TakerUtxoId,
		Price: a.Price, Quantity: a.Quantity,
		Maker: types.Address(a.Maker), Taker: types.Address(a.Taker),
		MakerIsSeller: a.MakerIsSeller,
	}
}

// EncodeOrder produces the canonical ABI encoding of an Order.
func EncodeOrder(o orderbook.Order) ([]byte, error) {
	return argsOf(orderType).Pack(orderToABI(o))
}

// DecodeOrder accepts only bytes that round-trip to an equal Order.
func DecodeOrder(data []byte) (orderbook.Order, error) {
	var out abiOrder
	if err := unpackTuple(orderType, data, &out); err != nil {
		return orderbook.Order{}, err
	}
	return orderFromABI(out)
}

// EncodeUtxo produces the canonical ABI encoding of a UTXO.
func EncodeUtxo(u orderbook.UTXO) ([]byte, error) {
	return argsOf(utxoType).Pack(utxoToABI(u))
}

// DecodeUtxo decodes a UTXO, rejecting a payload whose id does not equal
// H(order).
func DecodeUtxo(data []byte) (orderbook.UTXO, error) {
	var out abiUtxo
	if err := unpackTuple(utxoType, data, &out); err != nil {
		return orderbook.UTXO{}, err
	}
	return utxoFromABI(out)
}

// EncodeUtxoWithProof produces the canonical ABI encoding of a UtxoWithProof.
func EncodeUtxoWithProof(p orderbook.UtxoWithProof) ([]byte, error) {
	return argsOf(utxoWithProofType).Pack(utxoWithProofToABI(p))
}

// DecodeUtxoWithProof decodes a UtxoWithProof.
func DecodeUtxoWithProof(data []byte) (orderbook.UtxoWithProof, error) {
	var out abiUtxoWithProof
	if err := unpackTuple(utxoWithProofType, data, &out); err != nil {
		return orderbook.UtxoWithProof{}, err
	}
	return utxoWithProofFromABI(out)
}

// EncodeFill produces the canonical ABI encoding of a Fill.
func EncodeFill(f orderbook.Fill) ([]byte, error) {
	return argsOf(fillType).Pack(fillToABI(f))
}

// DecodeFill decodes a Fill.
func DecodeFill(data []byte) (orderbook.Fill, error) {
	var out abiFill
	if err := unpackTuple(fillType, data, &out); err != nil {
		return orderbook.Fill{}, err
	}
	return fillFromABI(out), nil
}

// EncodeBatchInput produces the canonical ABI encoding of a BatchInput.
func EncodeBatchInput(in orderbook.BatchInput) ([]byte, error) {
	existing := make([]abiUtxoWithProof, len(in.ExistingUtxosWithProofs))
	for i, p := range in.ExistingUtxosWithProofs {
		existing[i] = utxoWithProofToABI(p)
	}
	newOrders := make([]abiOrder, len(in.NewOrders))
	for i, o := range in.NewOrders {
		newOrders[i] = orderToABI(o)
	}
	return argsOf(batchInputType).Pack(abiBatchInput{
		BatchIndex:     in.BatchIndex,
		UtxoMerkleRoot: in.PriorRoot,
		Existing:       existing,
		NewOrders:      newOrders,
	})
}

// DecodeBatchInput decodes a BatchInput.
func DecodeBatchInput(data []byte) (orderbook.BatchInput, error) {
	var out abiBatchInput
	if err := unpackTuple(batchInputType, data, &out); err != nil {
		return orderbook.BatchInput{}, err
	}
	existing := make([]orderbook.UtxoWithProof, len(out.Existing))
	for i, a := range out.Existing {
		p, err := utxoWithProofFromABI(a)
		if err != nil {
			return orderbook.BatchInput{}, bkerrors.Wrap(bkerrors.KindDecodeError, err, "batch_input: existing[%d]", i)
		}
		existing[i] = p
	}
	newOrders := make([]orderbook.Order, len(out.NewOrders))
	for i, a := range out.NewOrders {
		o, err := orderFromABI(a)
		if err != nil {
			return orderbook.BatchInput{}, bkerrors.Wrap(bkerrors.KindDecodeError, err, "batch_input: new_orders[%d]", i)
		}
		newOrders[i] = o
	}
	return orderbook.BatchInput{
		BatchIndex:              out.BatchIndex,
		PriorRoot:               out.UtxoMerkleRoot,
		ExistingUtxosWithProofs: existing,
		NewOrders:               newOrders,
	}, nil
}

// EncodeBatchOutput produces the canonical ABI encoding of a BatchOutput.
func EncodeBatchOutput(out orderbook.BatchOutput) ([]byte, error) {
	abiOut, err := batchOutputToABI(out)
	if err != nil {
		return nil, err
	}
	return argsOf(batchOutputType).Pack(abiOut)
}

// DecodeBatchOutput decodes a BatchOutput.
func DecodeBatchOutput(data []byte) (orderbook.BatchOutput, error) {
	var out abiBatchOutput
	if err := unpackTuple(batchOutputType, data, &out); err != nil {
		return orderbook.BatchOutput{}, err
	}
	return batchOutputFromABI(out)
}

// EncodeJournal produces the canonical ABI encoding of a Journal.
func EncodeJournal(j orderbook.Journal) ([]byte, error) {
	abiOut, err := batchOutputToABI(j.Output)
	if err != nil {
		return nil, err
	}
	return argsOf(journalType).Pack(abiJournal{
		SteelCommitment:   []byte(j.StateCommitment),
		BatchIndex:        abiOut.BatchIndex,
		Fills:             abiOut.Fills,
		NewUtxos:          abiOut.NewUtxos,
		ConsumedUtxoIds:   abiOut.ConsumedUtxoIds,
		NewUtxoMerkleRoot: abiOut.NewUtxoMerkleRoot,
	})
}

// DecodeJournal decodes a Journal.
func DecodeJournal(data []byte) (orderbook.Journal, error) {
	var out abiJournal
	if err := unpackTuple(journalType, data, &out); err != nil {
		return orderbook.Journal{}, err
	}
	output, err := batchOutputFromABI(abiBatchOutput{
		BatchIndex: out.BatchIndex, Fills: out.Fills, NewUtxos: out.NewUtxos,
		ConsumedUtxoIds: out.ConsumedUtxoIds, NewUtxoMerkleRoot: out.NewUtxoMerkleRoot,
	})
	if err != nil {
		return orderbook.Journal{}, err
	}
	return orderbook.Journal{
		StateCommitment: orderbook.StateCommitment(out.SteelCommitment),
		Output:          output,
	}, nil
}

func batchOutputToABI(out orderbook.BatchOutput) (abiBatchOutput, error) {
	fills := make([]abiFill, len(out.Fills))
	for i, f := range out.Fills {
		fills[i] = fillToABI(f)
	}
	newUtxos := make([]abiUtxo, len(out.NewUtxos))
	for i, u := range out.NewUtxos {
		newUtxos[i] = utxoToABI(u)
	}
	consumed := make([][32]byte, len(out.ConsumedUtxoIds))
	for i, h := range out.ConsumedUtxoIds {
		consumed[i] = h
	}
	return abiBatchOutput{
		BatchIndex:        out.BatchIndex,
		Fills:             fills,
		NewUtxos:          newUtxos,
		ConsumedUtxoIds:   consumed,
		NewUtxoMerkleRoot: out.NewRoot,
	}, nil
}

func batchOutputFromABI(a abiBatchOutput) (orderbook.BatchOutput, error) {
	fills := make([]orderbook.Fill, len(a.Fills))
	for i, f := range a.Fills {
		fills[i] = fillFromABI(f)
	}
	newUtxos := make([]orderbook.UTXO, len(a.NewUtxos))
	for i, u := range a.NewUtxos {
		decoded, err := utxoFromABI(u)
		if err != nil {
			return orderbook.BatchOutput{}, bkerrors.Wrap(bkerrors.KindDecodeError, err, "batch_output: new_utxos[%d]", i)
		}
		newUtxos[i] = decoded
	}
	consumed := make([]types.Hash, len(a.ConsumedUtxoIds))
	for i, h := range a.ConsumedUtxoIds {
		consumed[i] = h
	}
	return orderbook.BatchOutput{
		BatchIndex:      a.BatchIndex,
		Fills:           fills,
		NewUtxos:        newUtxos,
		ConsumedUtxoIds: consumed,
		NewRoot:         a.NewUtxoMerkleRoot,
	}, nil
}

// unpackTuple decodes a single top-level ABI tuple argument into dst,
// converting go-ethereum's dynamically generated tuple struct into our
// named mirror type.
func unpackTuple(t abi.Type, data []byte, dst any) error {
	values, err := argsOf(t).Unpack(data)
	if err != nil {
		return bkerrors.Wrap(bkerrors.KindDecodeError, err, "malformed wire bytes")
	}
	if len(values) != 1 {
		return bkerrors.New(bkerrors.KindDecodeError, "malformed wire bytes: expected exactly one top-level value")
	}
	abi.ConvertType(values[0], dst)
	return nil
}
