package treaccp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccInsertRejectsStaleProof(t *testing.T) {
	h := SHA256Hasher{}
	root := buildRoot(t, h, "a", "b", "c")
	stale := buildRoot(t, h, "x", "y")

	acc := Acc{hasher: h, digest: root.merkleRoot}
	_, _, err := acc.Insert("d", stale)
	assert.ErrorIs(t, err, ErrMerkleRootMismatch)
}

func TestAccInsertThenRemoveRoundTrips(t *testing.T) {
	h := SHA256Hasher{}
	tree, err := Build([]string{"a", "b", "c"}, WithHasher(h))
	require.NoError(t, err)

	toAdd := []string{"d", "e"}
	acc, err := tree.ToAcc()
	require.NoError(t, err)

	proof, err := tree.InsertProof(toAdd[0])
	require.NoError(t, err)
	newTree, newProof, err := tree.Insert(toAdd[0], true)
	require.NoError(t, err)
	assert.Equal(t, proof, newProof)

	newAcc, accProof, err := acc.Insert(toAdd[0], proof)
	require.NoError(t, err)
	assert.Equal(t, newTree.MerkleRoot(), newAcc.MerkleRoot())

	removed, removeProofTree, err := newTree.Remove(toAdd[0], true)
	require.NoError(t, err)
	finalAcc, _, err := newAcc.Remove(toAdd[0], accProof)
	require.NoError(t, err)
	_ = removeProofTree
	assert.Equal(t, removed.MerkleRoot(), finalAcc.MerkleRoot())
}

func TestAccWarpRejectsOverlappingAddedRemoved(t *testing.T) {
	h := SHA256Hasher{}
	root := buildRoot(t, h, "a", "b", "c")
	acc := Acc{hasher: h, digest: root.merkleRoot}

	_, _, err := acc.Warp(root, []string{"x"}, []string{"x"}, root)
	assert.ErrorIs(t, err, ErrInvalidProof)
}

func TestAccWarpRejectsStaleOldProof(t *testing.T) {
	h := SHA256Hasher{}
	root := buildRoot(t, h, "a", "b", "c")
	other := buildRoot(t, h, "x", "y")
	acc := Acc{hasher: h, digest: root.merkleRoot}

	_, _, err := acc.Warp(other, []string{"z"}, nil, other)
	assert.ErrorIs(t, err, ErrMerkleRootMismatch)
}

// TestAccWarpMatchesSequentialInsertRemove exercises Warp with fully
// uncompressed trees as both oldProof and newProof. An uncompressed tree is
// trivially the most revealing possible proof of its own contents, which
// keeps this test's proof construction independent of compress_tree_for's
// path logic while still exercising every one of Warp's checks.
func TestAccWarpMatchesSequentialInsertRemove(t *testing.T) {
	h := SHA256Hasher{}
	tree, err := Build([]string{"a", "b", "c"}, WithHasher(h))
	require.NoError(t, err)

	added := []string{"d", "e"}
	removed := []string{"a"}

	oldProof := tree.root

	newTree := tree
	for _, el := range added {
		newTree, _, err = newTree.Insert(el, false)
		require.NoError(t, err)
	}
	for _, el := range removed {
		newTree, _, err = newTree.Remove(el, false)
		require.NoError(t, err)
	}
	newProof := newTree.root

	acc := Acc{hasher: h, digest: tree.MerkleRoot()}
	newAcc, _, err := acc.Warp(oldProof, added, removed, newProof)
	require.NoError(t, err)
	assert.Equal(t, newTree.MerkleRoot(), newAcc.MerkleRoot())
}

// TestAccWarpRejectsMismatchedKeySet ensures Warp rejects a newProof whose
// key set does not match the expected post-image: newProof is oldProof
// itself, so it gains no Regular key for the added element and its key set
// lacks that element.
func TestAccWarpRejectsMismatchedKeySet(t *testing.T) {
	h := SHA256Hasher{}
	tree, err := Build([]string{"a", "b", "c"}, WithHasher(h))
	require.NoError(t, err)

	oldProof := tree.root
	// newProof omits the added element "d" from its key set, which should
	// never be accepted as the result of adding "d".
	acc := Acc{hasher: h, digest: tree.MerkleRoot()}
	_, _, err = acc.Warp(oldProof, []string{"d"}, nil, oldProof)
	assert.ErrorIs(t, err, ErrInvalidProof)
}
