package merkleclaim

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// Leaf domain tags. The claim and penalty ledgers verify against the same
// active root, so their leaves must be mutually non-interchangeable: a
// claim leaf replayed through the penalty surface (or the reverse) has to
// fail proof verification.
const (
	claimLeafDomain   = "claim"
	penaltyLeafDomain = "penalty"
)

// ClaimLeafHash derives the claim-ledger leaf for a (user, cumulative
// total) pair.
func ClaimLeafHash(addr [20]byte, cumulativeTotal *big.Int) [32]byte {
	return leafHash(claimLeafDomain, addr, cumulativeTotal)
}

// PenaltyLeafHash derives the penalty-ledger leaf for a (user, cumulative
// total) pair.
func PenaltyLeafHash(addr [20]byte, cumulativeTotal *big.Int) [32]byte {
	return leafHash(penaltyLeafDomain, addr, cumulativeTotal)
}

// leafHash encodes domain ‖ addr ‖ uint256(total) and hashes it twice, so
// a crafted 64-byte leaf preimage can never collide with an internal node
// of the proof tree. Callers must bound total to 256 bits first.
func leafHash(domain string, addr [20]byte, cumulativeTotal *big.Int) [32]byte {
	total := cumulativeTotal
	if total == nil {
		total = new(big.Int)
	}
	encoded := make([]byte, 0, len(domain)+52)
	encoded = append(encoded, domain...)
	encoded = append(encoded, addr[:]...)
	encoded = append(encoded, total.FillBytes(make([]byte, 32))...)
	inner := crypto.Keccak256(encoded)
	var leaf [32]byte
	copy(leaf[:], crypto.Keccak256(inner))
	return leaf
}

// VerifyProof folds the sibling path into the leaf, combining each pair in
// sorted order, and compares against the expected root.
func VerifyProof(leaf [32]byte, proof [][32]byte, root [32]byte) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	var out [32]byte
	copy(out[:], crypto.Keccak256(a[:], b[:]))
	return out
}
