package core

import (
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txs(n int) []Transaction {
	out := make([]Transaction, n)
	for i := range out {
		out[i] = Transaction{Hash: fmt.Sprintf("hash-%d", i), Status: TxPending}
	}
	return out
}

func TestBuildAuditTrailProofsVerify(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			trail, err := BuildAuditTrail("addr", txs(n))
			require.NoError(t, err)
			require.Len(t, trail.Entries, n)
			for i, e := range trail.Entries {
				assert.Equal(t, i, e.Index)
				ok, err := VerifyMerkleProof(e.Leaf, e.Proof, trail.Root)
				require.NoError(t, err)
				assert.True(t, ok, "entry %d", i)
			}
		})
	}
}

func TestSingleLeafRootIsLeaf(t *testing.T) {
	in := txs(1)
	trail, err := BuildAuditTrail("addr", in)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(AuditLeaf(in[0])), trail.Root)
	assert.Empty(t, trail.Entries[0].Proof)
}

func TestVerifyRejectsWrongRoot(t *testing.T) {
	a, err := BuildAuditTrail("addr", txs(4))
	require.NoError(t, err)
	changed := txs(4)
	changed[2].Status = TxConfirmed
	b, err := BuildAuditTrail("addr", changed)
	require.NoError(t, err)

	require.NotEqual(t, a.Root, b.Root)
	ok, err := VerifyMerkleProof(a.Entries[0].Leaf, a.Entries[0].Proof, b.Root)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyMalformedInput(t *testing.T) {
	_, err := VerifyMerkleProof("zz", nil, "00")
	require.Error(t, err)
	_, err = VerifyMerkleProof("00", []MerkleProofStep{{Hash: "00", Side: "X"}}, "00")
	require.Error(t, err)
}

func TestBuildAuditTrailEmpty(t *testing.T) {
	trail, err := BuildAuditTrail("addr", nil)
	require.NoError(t, err)
	assert.Empty(t, trail.Root)
	assert.NotNil(t, trail.Entries)
}

func TestRoleKnown(t *testing.T) {
	assert.True(t, RoleLogistics.Known())
	assert.False(t, Role("pharmacy").Known())
}
