// Package merkle verifies allocation membership proofs against a committed
// root. The leaf and node hashing match OpenZeppelin's StandardMerkleTree
// for ["address", "uint256"] leaves, so roots produced by the usual
// off-chain tooling verify here unchanged.
package merkle

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// Entry is one committed allocation: a wallet and its maximum amount.
type Entry struct {
	Address common.Address
	Amount  *big.Int
}

// LeafHash hashes one allocation entry. The double keccak mirrors
// StandardMerkleTree: keccak256(keccak256(abi.encode(address, uint256))).
func LeafHash(addr common.Address, amount *big.Int) common.Hash {
	encoded := make([]byte, 0, 64)
	encoded = append(encoded, common.LeftPadBytes(addr.Bytes(), 32)...)
	encoded = append(encoded, math.U256Bytes(new(big.Int).Set(amount))...)
	inner := crypto.Keccak256(encoded)
	return common.BytesToHash(crypto.Keccak256(inner))
}

// hashPair hashes two nodes in sorted order.
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return common.BytesToHash(crypto.Keccak256(a[:], b[:]))
}

// Verify folds the sibling path over the leaf and compares against root.
func Verify(root common.Hash, leaf common.Hash, proof []common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// VerifyEntry verifies a raw (address, amount) allocation against root.
func VerifyEntry(root common.Hash, addr common.Address, amount *big.Int, proof []common.Hash) bool {
	return Verify(root, LeafHash(addr, amount), proof)
}

// Tree is an in-memory Merkle tree over allocation entries. It exists for
// operators preparing commitments and for tests; claim verification only
// needs Verify.
type Tree struct {
	entries []Entry
	leaves  []common.Hash
	layers  [][]common.Hash
}

// NewTree builds a tree over the entries. Leaves are sorted by hash so the
// root is independent of input order.
func NewTree(entries []Entry) *Tree {
	t := &Tree{entries: make([]Entry, len(entries))}
	copy(t.entries, entries)

	sort.Slice(t.entries, func(i, j int) bool {
		a := LeafHash(t.entries[i].Address, t.entries[i].Amount)
		b := LeafHash(t.entries[j].Address, t.entries[j].Amount)
		return bytes.Compare(a[:], b[:]) < 0
	})

	t.leaves = make([]common.Hash, len(t.entries))
	for i, e := range t.entries {
		t.leaves[i] = LeafHash(e.Address, e.Amount)
	}

	layer := t.leaves
	t.layers = append(t.layers, layer)
	for len(layer) > 1 {
		next := make([]common.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 < len(layer) {
				next = append(next, hashPair(layer[i], layer[i+1]))
			} else {
				next = append(next, layer[i])
			}
		}
		t.layers = append(t.layers, next)
		layer = next
	}
	return t
}

// Root returns the committed root. An empty tree has a zero root.
func (t *Tree) Root() common.Hash {
	if len(t.layers) == 0 || len(t.layers[len(t.layers)-1]) == 0 {
		return common.Hash{}
	}
	return t.layers[len(t.layers)-1][0]
}

// Proof returns the sibling path for the entry matching addr and amount.
func (t *Tree) Proof(addr common.Address, amount *big.Int) ([]common.Hash, bool) {
	target := LeafHash(addr, amount)
	index := -1
	for i, leaf := range t.leaves {
		if leaf == target {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, false
	}

	var proof []common.Hash
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := index ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		index /= 2
	}
	return proof, true
}
