package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// MerkleProofStep is one step of an inclusion proof.
// Side "L" means the sibling is on the left: H = sha256(sibling || current).
// Side "R" means the sibling is on the right: H = sha256(current || sibling).
type MerkleProofStep struct {
	Hash string `json:"hash"`
	Side string `json:"side"`
}

// AuditEntry ties one transaction of a wallet's history to its leaf and proof.
type AuditEntry struct {
	TxHash string            `json:"txHash"`
	Leaf   string            `json:"leaf"`
	Index  int               `json:"index"`
	Proof  []MerkleProofStep `json:"proof"`
}

// AuditTrail commits to a wallet's transaction history in insertion order.
// Leaves are sha256(txHash || "|" || status) so a confirmation changes the root.
type AuditTrail struct {
	Address string       `json:"address"`
	Root    string       `json:"root"`
	Entries []AuditEntry `json:"entries"`
}

// BuildAuditTrail returns an empty trail (Root == "") for a wallet with no transactions.
func BuildAuditTrail(address string, txs []Transaction) (AuditTrail, error) {
	trail := AuditTrail{Address: address, Entries: []AuditEntry{}}
	if len(txs) == 0 {
		return trail, nil
	}

	leaves := make([][]byte, len(txs))
	for i, tx := range txs {
		leaves[i] = AuditLeaf(tx)
	}
	levels, err := buildMerkleLevels(leaves)
	if err != nil {
		return AuditTrail{}, err
	}
	trail.Root = hex.EncodeToString(merkleRootFromLevels(levels))
	for i, tx := range txs {
		proof, err := merkleProof(levels, i)
		if err != nil {
			return AuditTrail{}, err
		}
		trail.Entries = append(trail.Entries, AuditEntry{
			TxHash: tx.Hash,
			Leaf:   hex.EncodeToString(leaves[i]),
			Index:  i,
			Proof:  proof,
		})
	}
	return trail, nil
}

func AuditLeaf(tx Transaction) []byte {
	sum := sha256.Sum256([]byte(tx.Hash + "|" + string(tx.Status)))
	return sum[:]
}

// buildMerkleLevels builds all levels (level 0 = leaves). An odd level duplicates its last node.
func buildMerkleLevels(leaves [][]byte) ([][][]byte, error) {
	if len(leaves) == 0 {
		return nil, errors.New("no leaves")
	}

	lvl0 := make([][]byte, len(leaves))
	for i := range leaves {
		if len(leaves[i]) == 0 {
			return nil, errors.New("empty leaf")
		}
		lvl0[i] = bytes.Clone(leaves[i])
	}

	levels := [][][]byte{lvl0}
	for curr := lvl0; len(curr) > 1; curr = levels[len(levels)-1] {
		next := make([][]byte, 0, (len(curr)+1)/2)
		for i := 0; i < len(curr); i += 2 {
			right := curr[i]
			if i+1 < len(curr) {
				right = curr[i+1]
			}
			next = append(next, hashPair(curr[i], right))
		}
		levels = append(levels, next)
	}
	return levels, nil
}

func hashPair(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

func merkleRootFromLevels(levels [][][]byte) []byte {
	return levels[len(levels)-1][0]
}

func merkleProof(levels [][][]byte, index int) ([]MerkleProofStep, error) {
	if len(levels) == 0 {
		return nil, errors.New("no levels")
	}
	if index < 0 || index >= len(levels[0]) {
		return nil, errors.New("leaf index out of range")
	}

	proof := make([]MerkleProofStep, 0, len(levels)-1)
	idx := index
	for lvl := 0; lvl < len(levels)-1; lvl++ {
		nodes := levels[lvl]
		sibIdx, side := idx+1, "R"
		if idx%2 == 1 {
			sibIdx, side = idx-1, "L"
		}
		if sibIdx >= len(nodes) {
			sibIdx = idx
		}
		proof = append(proof, MerkleProofStep{Hash: hex.EncodeToString(nodes[sibIdx]), Side: side})
		idx /= 2
	}
	return proof, nil
}

func computeRootFromProof(leaf []byte, proof []MerkleProofStep) ([]byte, error) {
	if len(leaf) == 0 {
		return nil, errors.New("empty leaf")
	}
	curr := bytes.Clone(leaf)
	for _, step := range proof {
		sib, err := hex.DecodeString(step.Hash)
		if err != nil {
			return nil, errors.New("invalid proof hash encoding")
		}
		switch step.Side {
		case "L":
			curr = hashPair(sib, curr)
		case "R":
			curr = hashPair(curr, sib)
		default:
			return nil, errors.New("invalid proof side")
		}
	}
	return curr, nil
}

// VerifyMerkleProof reports whether leafHex with proof hashes up to rootHex.
func VerifyMerkleProof(leafHex string, proof []MerkleProofStep, rootHex string) (bool, error) {
	leaf, err := hex.DecodeString(leafHex)
	if err != nil {
		return false, errors.New("invalid leaf hash encoding")
	}
	root, err := hex.DecodeString(rootHex)
	if err != nil {
		return false, errors.New("invalid root hash encoding")
	}
	computed, err := computeRootFromProof(leaf, proof)
	if err != nil {
		return false, err
	}
	return bytes.Equal(computed, root), nil
}
