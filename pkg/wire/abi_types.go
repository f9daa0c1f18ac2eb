// Package wire implements the bit-exact on-chain ABI encoding and decoding
// of every externally visible structure: Order, Utxo, UtxoWithProof, Fill,
// BatchInput, BatchOutput, and Journal. Encoding uses the Solidity ABI via
// go-ethereum's accounts/abi package, matching the struct layout the
// consuming contract expects (see the wire format in the design notes this
// package implements).
package wire

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// abiOrder mirrors the Solidity Order tuple:
// { uint8 side, uint64 price, uint64 quantity, address owner, uint64 nonce, uint64 expiryBatch }
type abiOrder struct {
	Side        uint8
	Price       uint64
	Quantity    uint64
	Owner       common.Address
	Nonce       uint64
	ExpiryBatch uint64
}

// abiUtxo mirrors the Solidity Utxo tuple:
// { bytes32 id, uint8 side, uint64 price, uint64 quantity, address owner, uint64 nonce, uint64 expiryBatch }
type abiUtxo struct {
	Id          [32]byte
	Side        uint8
	Price       uint64
	Quantity    uint64
	Owner       common.Address
	Nonce       uint64
	ExpiryBatch uint64
}

// abiUtxoWithProof mirrors the Solidity UtxoWithProof tuple: the Utxo
// fields inline, plus proofHashes and leafIndex.
type abiUtxoWithProof struct {
	Id          [32]byte
	Side        uint8
	Price       uint64
	Quantity    uint64
	Owner       common.Address
	Nonce       uint64
	ExpiryBatch uint64
	ProofHashes [][32]byte
	LeafIndex   *big.Int
}

// abiFill mirrors the Solidity Fill tuple:
// { bytes32 makerUtxoId, bytes32 takerUtxoId, uint64 price, uint64 quantity,
//   address maker, address taker, bool makerIsSeller }
type abiFill struct {
	MakerUtxoId   [32]byte
	TakerUtxoId   [32]byte
	Price         uint64
	Quantity      uint64
	Maker         common.Address
	Taker         common.Address
	MakerIsSeller bool
}

// abiBatchInput mirrors the Solidity BatchInput tuple:
// { uint64 batchIndex, bytes32 utxoMerkleRoot, UtxoWithProof[] existing, Order[] newOrders }
type abiBatchInput struct {
	BatchIndex     uint64
	UtxoMerkleRoot [32]byte
	Existing       []abiUtxoWithProof
	NewOrders      []abiOrder
}

// abiBatchOutput mirrors the Solidity BatchOutput tuple:
// { uint64 batchIndex, Fill[] fills, Utxo[] newUtxos, bytes32[] consumedUtxoIds, bytes32 newUtxoMerkleRoot }
type abiBatchOutput struct {
	BatchIndex        uint64
	Fills             []abiFill
	NewUtxos          []abiUtxo
	ConsumedUtxoIds   [][32]byte
	NewUtxoMerkleRoot [32]byte
}

// abiJournal mirrors the Solidity Journal tuple: an opaque state commitment
// plus the BatchOutput fields inlined.
type abiJournal struct {
	SteelCommitment   []byte
	BatchIndex        uint64
	Fills             []abiFill
	NewUtxos          []abiUtxo
	ConsumedUtxoIds   [][32]byte
	NewUtxoMerkleRoot [32]byte
}

var (
	orderComponents = []abi.ArgumentMarshaling{
		{Name: "side", Type: "uint8"},
		{Name: "price", Type: "uint64"},
		{Name: "quantity", Type: "uint64"},
		{Name: "owner", Type: "address"},
		{Name: "nonce", Type: "uint64"},
		{Name: "expiryBatch", Type: "uint64"},
	}

	utxoComponents = []abi.ArgumentMarshaling{
		{Name: "id", Type: "bytes32"},
		{Name: "side", Type: "uint8"},
		{Name: "price", Type: "uint64"},
		{Name: "quantity", Type: "uint64"},
		{Name: "owner", Type: "address"},
		{Name: "nonce", Type: "uint64"},
		{Name: "expiryBatch", Type: "uint64"},
	}

	utxoWithProofComponents = []abi.ArgumentMarshaling{
		{Name: "id", Type: "bytes32"},
		{Name: "side", Type: "uint8"},
		{Name: "price", Type: "uint64"},
		{Name: "quantity", Type: "uint64"},
		{Name: "owner", Type: "address"},
		{Name: "nonce", Type: "uint64"},
		{Name: "expiryBatch", Type: "uint64"},
		{Name: "proofHashes", Type: "bytes32[]"},
		{Name: "leafIndex", Type: "uint256"},
	}

	fillComponents = []abi.ArgumentMarshaling{
		{Name: "makerUtxoId", Type: "bytes32"},
		{Name: "takerUtxoId", Type: "bytes32"},
		{Name: "price", Type: "uint64"},
		{Name: "quantity", Type: "uint64"},
		{Name: "maker", Type: "address"},
		{Name: "taker", Type: "address"},
		{Name: "makerIsSeller", Type: "bool"},
	}

	batchInputComponents = []abi.ArgumentMarshaling{
		{Name: "batchIndex", Type: "uint64"},
		{Name: "utxoMerkleRoot", Type: "bytes32"},
		{Name: "existing", Type: "tuple[]", Components: utxoWithProofComponents},
		{Name: "newOrders", Type: "tuple[]", Components: orderComponents},
	}

	batchOutputComponents = []abi.ArgumentMarshaling{
		{Name: "batchIndex", Type: "uint64"},
		{Name: "fills", Type: "tuple[]", Components: fillComponents},
		{Name: "newUtxos", Type: "tuple[]", Components: utxoComponents},
		{Name: "consumedUtxoIds", Type: "bytes32[]"},
		{Name: "newUtxoMerkleRoot", Type: "bytes32"},
	}

	journalComponents = []abi.ArgumentMarshaling{
		{Name: "steelCommitment", Type: "bytes"},
		{Name: "batchIndex", Type: "uint64"},
		{Name: "fills", Type: "tuple[]", Components: fillComponents},
		{Name: "newUtxos", Type: "tuple[]", Components: utxoComponents},
		{Name: "consumedUtxoIds", Type: "bytes32[]"},
		{Name: "newUtxoMerkleRoot", Type: "bytes32"},
	}
)

// mustType builds an abi.Type from ArgumentMarshaling components, panicking
// on a malformed definition — these are compile-time constants, so a
// failure here is a defect in this package, not a runtime condition.
func mustType(components []abi.ArgumentMarshaling) abi.Type {
	t, err := abi.NewType("tuple", "", components)
	if err != nil {
		panic("wire: invalid abi type definition: " + err.Error())
	}
	return t
}

var (
	orderType         = mustType(orderComponents)
	utxoType          = mustType(utxoComponents)
	utxoWithProofType = mustType(utxoWithProofComponents)
	fillType          = mustType(fillComponents)
	batchInputType    = mustType(batchInputComponents)
	batchOutputType   = mustType(batchOutputComponents)
	journalType       = mustType(journalComponents)
)

func argsOf(t abi.Type) abi.Arguments {
	return abi.Arguments{{Type: t}}
}
