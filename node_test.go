package treaccp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysFor(h Hasher, elements ...string) []Key {
	keys := make([]Key, len(elements))
	for i, el := range elements {
		keys[i] = toKey(h, el)
	}
	return keys
}

func TestBuildTreapIsTreap(t *testing.T) {
	h := SHA256Hasher{}
	root, err := buildTreap(h, keysFor(h, "a", "b", "c", "d", "e", "f", "g"))
	require.NoError(t, err)
	assert.NoError(t, isTreap(root))
}

func TestBuildTreapOrderIndependent(t *testing.T) {
	h := SHA256Hasher{}
	elements := []string{"a", "b", "c", "d", "e"}
	reversed := []string{"e", "d", "c", "b", "a"}

	r1, err := buildTreap(h, keysFor(h, elements...))
	require.NoError(t, err)
	r2, err := buildTreap(h, keysFor(h, reversed...))
	require.NoError(t, err)

	assert.Equal(t, recomputeMerkleRoot(h, r1), recomputeMerkleRoot(h, r2))
}

func TestInsertNodeRejectsDuplicate(t *testing.T) {
	h := SHA256Hasher{}
	k := toKey(h, "dup")
	root, err := insertNode(h, nil, k)
	require.NoError(t, err)

	_, err = insertNode(h, root, k)
	assert.ErrorIs(t, err, ErrKeyInTree)
}

func TestRemoveNodeRejectsMissingKey(t *testing.T) {
	h := SHA256Hasher{}
	root, err := insertNode(h, nil, toKey(h, "present"))
	require.NoError(t, err)

	_, err = removeNode(h, root, toKey(h, "absent"))
	assert.ErrorIs(t, err, ErrKeyNotInTree)
}

func TestInsertThenRemoveRestoresEmptyRoot(t *testing.T) {
	h := SHA256Hasher{}
	k := toKey(h, "solo")
	root, err := insertNode(h, nil, k)
	require.NoError(t, err)
	require.NotNil(t, root)

	root, err = removeNode(h, root, k)
	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestInsertManyThenRemoveAllLeavesEmptyRoot(t *testing.T) {
	h := SHA256Hasher{}
	elements := []string{"a", "b", "c", "d", "e", "f"}
	var root *Node
	var err error
	for _, el := range elements {
		root, err = insertNode(h, root, toKey(h, el))
		require.NoError(t, err)
	}
	for _, el := range elements {
		root, err = removeNode(h, root, toKey(h, el))
		require.NoError(t, err)
	}
	assert.Nil(t, root)
}

func TestCompressPreservesMerkleRootAndKey(t *testing.T) {
	h := SHA256Hasher{}
	root, err := buildTreap(h, keysFor(h, "a", "b", "c"))
	require.NoError(t, err)
	require.NotNil(t, root)

	compressed := root.compress()
	assert.True(t, compressed.compressed)
	assert.Equal(t, root.key, compressed.key)
	assert.Equal(t, root.merkleRoot, compressed.merkleRoot)
	assert.Nil(t, compressed.left)
	assert.Nil(t, compressed.right)
}

func TestFindTouchingCompressedNodeErrors(t *testing.T) {
	h := SHA256Hasher{}
	root, err := buildTreap(h, keysFor(h, "a", "b", "c"))
	require.NoError(t, err)

	compressed := root.compress()
	_, err = find(compressed, root.key)
	assert.ErrorIs(t, err, ErrTouchedCompressedNode)
}

func TestSplitMergeRoundTrip(t *testing.T) {
	h := SHA256Hasher{}
	root, err := buildTreap(h, keysFor(h, "a", "b", "c", "d", "e"))
	require.NoError(t, err)

	mid := toKey(h, "c")
	L, R, err := split(h, root, mid, true)
	require.NoError(t, err)

	merged, err := merge(h, L, R)
	require.NoError(t, err)
	assert.Equal(t, root.merkleRoot, recomputeMerkleRoot(h, merged))
}
