// Package merkle implements the UTXO set's binary Merkle tree: root
// computation, per-leaf inclusion proof generation, and proof verification
// bound to a declared total leaf count.
//
// The internal node hash is SHA-256(left || right) (pkg/crypto.HashConcat).
// An odd level's unpaired last element is promoted to the next level
// unchanged, without being re-hashed against itself — this is rs_merkle's
// convention (algorithms::Sha256 over MerkleTree::from_leaves), not
// Bitcoin-style last-element duplication, and the on-chain verifier must
// share it bit-exactly (N3).
package merkle

import (
	"fmt"

	"github.com/steelbatch/orderbook-engine/pkg/crypto"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

// Tree is a Merkle tree built once over a full leaf set, able to produce a
// proof for any leaf index cheaply.
type Tree struct {
	numLeaves int
	// levels[0] is the leaf level; the last level holds exactly the root.
	// A level whose length is odd carries its last element straight into
	// the next level, so level lengths are ceil(prev/2), not necessarily
	// powers of two apart.
	levels [][]types.Hash
}

// New builds a Tree over leaves. The leaves are copied; the caller's slice
// is never mutated.
func New(leaves []types.Hash) *Tree {
	t := &Tree{numLeaves: len(leaves)}
	if len(leaves) == 0 {
		return t
	}

	level := make([]types.Hash, len(leaves))
	copy(level, leaves)
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		next := make([]types.Hash, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, crypto.HashConcat(level[i], level[i+1]))
		}
		if len(level)%2 != 0 {
			next = append(next, level[len(level)-1])
		}
		t.levels = append(t.levels, next)
		level = next
	}

	return t
}

// Root returns the tree's root, or the all-zero hash for an empty leaf set
// (O3).
func (t *Tree) Root() types.Hash {
	if len(t.levels) == 0 {
		return types.Hash{}
	}
	last := t.levels[len(t.levels)-1]
	return last[0]
}

// NumLeaves returns the number of leaves the tree was built over.
func (t *Tree) NumLeaves() int {
	return t.numLeaves
}

// Proof returns the ordered sequence of sibling hashes on the root-ward
// path from leaf index, for use as a UtxoWithProof.ProofHashes. A level
// where index names that level's lone unpaired element contributes no
// entry — the element is promoted to the next level unhashed — so proof
// length can differ between leaves of the same tree.
func (t *Tree) Proof(index int) ([]types.Hash, error) {
	if index < 0 || index >= t.numLeaves {
		return nil, fmt.Errorf("merkle: leaf index %d out of range [0,%d)", index, t.numLeaves)
	}

	var proof []types.Hash
	idx := index
	for level := 0; level < len(t.levels)-1; level++ {
		cur := t.levels[level]
		if len(cur)%2 != 0 && idx == len(cur)-1 {
			idx /= 2
			continue
		}
		siblingIdx := idx ^ 1
		proof = append(proof, cur[siblingIdx])
		idx /= 2
	}
	return proof, nil
}

// RootOf is a convenience wrapper computing the root of leaves directly.
func RootOf(leaves []types.Hash) types.Hash {
	return New(leaves).Root()
}

// Verify checks that leaf at leafIndex, combined with proof, reconstructs
// root under a tree declared to have totalLeaves leaves. Verify replays the
// same level-by-level pairing New used to build that tree — driven by
// totalLeaves, not by len(proof) — skipping a proof entry at any level
// where leafIndex names that level's lone unpaired element. Any proof
// entries left unconsumed at the end, or a proof that runs out before the
// walk reaches the root, is rejected.
func Verify(root types.Hash, leaf types.Hash, leafIndex uint64, proof []types.Hash, totalLeaves uint64) bool {
	if totalLeaves == 0 {
		return false
	}
	if leafIndex >= totalLeaves {
		return false
	}

	cur := leaf
	idx := leafIndex
	size := totalLeaves
	consumed := 0
	for size > 1 {
		if size%2 != 0 && idx == size-1 {
			// lone node at this level: promoted unchanged, no sibling.
		} else {
			if consumed >= len(proof) {
				return false
			}
			sibling := proof[consumed]
			consumed++
			if idx%2 == 0 {
				cur = crypto.HashConcat(cur, sibling)
			} else {
				cur = crypto.HashConcat(sibling, cur)
			}
		}
		idx /= 2
		size = (size + 1) / 2
	}

	if consumed != len(proof) {
		return false
	}
	return cur == root
}
