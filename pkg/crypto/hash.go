// Package crypto provides the content-hashing primitives the batch engine
// is built on: UTXO identity hashing and the merkle-set internal node hash.
package crypto

import (
	"crypto/sha256"

	"github.com/steelbatch/orderbook-engine/pkg/types"
)

// Hash computes a SHA-256 digest of the input data. This is the hash used
// for UTXO identity (order field serialization) and for merkle tree nodes.
func Hash(data []byte) types.Hash {
	return sha256.Sum256(data)
}

// HashConcat hashes the concatenation of two hashes. This is the internal
// node hash of the merkle set: HashConcat(left, right) = SHA256(left || right).
func HashConcat(a, b types.Hash) types.Hash {
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return Hash(buf[:])
}
