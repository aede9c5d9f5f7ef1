package treaccp

import (
	"github.com/pkg/errors"
)

// compressTreeFor recursively walks from root toward k: nodes on the path
// stay Regular, every off-path child is replaced by its compress(), and the
// node holding k becomes Regular with both of its children compressed (or
// absent). Its result has the same merkle root as the input by
// construction, since compress() preserves a node's merkle root.
func compressTreeFor(h Hasher, t *Node, k Key) (*Node, error) {
	if t == nil {
		return nil, errors.Wrapf(ErrKeyNotInTree, "key %s", k.Dec())
	}
	if t.compressed {
		return nil, errors.Wrapf(ErrTouchedCompressedNode, "compress tree for key %s", k.Dec())
	}

	if t.key.Cmp(k) == 0 {
		return &Node{
			key:         t.key,
			priority:    t.priority,
			compressed:  false,
			left:        t.left.compress(),
			right:       t.right.compress(),
			leftDigest:  t.leftDigest,
			rightDigest: t.rightDigest,
			merkleRoot:  t.merkleRoot,
		}, nil
	}

	if k.Cmp(t.key) > 0 {
		if t.right == nil {
			return nil, errors.Wrapf(ErrKeyNotInTree, "key %s", k.Dec())
		}
		right, err := compressTreeFor(h, t.right, k)
		if err != nil {
			return nil, err
		}
		return &Node{
			key:         t.key,
			priority:    t.priority,
			compressed:  false,
			left:        t.left.compress(),
			right:       right,
			leftDigest:  t.leftDigest,
			rightDigest: t.rightDigest,
			merkleRoot:  t.merkleRoot,
		}, nil
	}

	if t.left == nil {
		return nil, errors.Wrapf(ErrKeyNotInTree, "key %s", k.Dec())
	}
	left, err := compressTreeFor(h, t.left, k)
	if err != nil {
		return nil, err
	}
	return &Node{
		key:         t.key,
		priority:    t.priority,
		compressed:  false,
		left:        left,
		right:       t.right.compress(),
		leftDigest:  t.leftDigest,
		rightDigest: t.rightDigest,
		merkleRoot:  t.merkleRoot,
	}, nil
}

// proveInclusion returns a compressed subtree proving k is present.
func proveInclusion(h Hasher, t *Node, k Key) (Proof, error) {
	return compressTreeFor(h, t, k)
}

// proveExclusion proves k is absent by showing an inclusion proof for the
// last present node visited while searching for k. That node stays Regular
// in the returned proof (its children are compressed, or nil where absent),
// so exclusion verification can descend to it and observe the absent slot
// the search for k falls into.
//
// An empty tree (t == nil) trivially excludes every key, and nil is itself
// a complete proof of that: find(nil, k) always returns absent without
// ever touching a compressed node, for any k.
func proveExclusion(h Hasher, t *Node, k Key) (Proof, error) {
	if t == nil {
		return nil, nil
	}

	path, found, err := pathTo(t, k)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, errors.Wrapf(ErrKeyInTree, "key %s", k.Dec())
	}
	last := path[len(path)-1]
	return proveInclusion(h, t, last.key)
}

// keyRecord is the "extended key" warp validation needs: a key annotated
// with the node variant that holds it, and — for Compressed nodes — the
// node's merkle root (needed to detect an attacker swapping in a different
// hidden subtree under the same key).
type keyRecord struct {
	compressed bool
	merkleRoot Digest
}

// collectKeys returns every key appearing in proof, both Regular and
// Compressed, annotated with its variant and (for Compressed nodes) merkle
// root.
func collectKeys(t *Node) map[Key]keyRecord {
	out := make(map[Key]keyRecord)
	collectKeysInto(t, out)
	return out
}

func collectKeysInto(t *Node, out map[Key]keyRecord) {
	if t == nil {
		return
	}
	out[t.key] = keyRecord{compressed: t.compressed, merkleRoot: t.merkleRoot}
	if t.compressed {
		return
	}
	collectKeysInto(t.left, out)
	collectKeysInto(t.right, out)
}

// verifyInclusions recomputes proof's merkle root against expectedRoot and
// checks every key in keys appears somewhere in the proof.
func verifyInclusions(h Hasher, expectedRoot Digest, keys []Key, proof Proof) error {
	root := recomputeMerkleRoot(h, proof)
	if root != expectedRoot {
		return errors.Wrapf(ErrMerkleRootMismatch, "expected %s, got %s", expectedRoot, root)
	}

	observed := collectKeys(proof)
	for _, k := range keys {
		if _, ok := observed[k]; !ok {
			return errors.Wrapf(ErrInvalidProof, "key %s not present in proof", k.Dec())
		}
	}
	return nil
}

// verifyExclusions recomputes proof's merkle root against expectedRoot and,
// for each key, performs find(proof, key): a TouchedCompressedNode means the
// proof did not reveal enough structure to refute membership
// (ErrInvalidProof); a present node means the key is not excluded
// (ErrKeyInTree); absent refutes membership.
func verifyExclusions(h Hasher, expectedRoot Digest, keys []Key, proof Proof) error {
	root := recomputeMerkleRoot(h, proof)
	if root != expectedRoot {
		return errors.Wrapf(ErrMerkleRootMismatch, "expected %s, got %s", expectedRoot, root)
	}

	for _, k := range keys {
		n, err := find(proof, k)
		if err != nil {
			return errors.Wrapf(ErrInvalidProof, "key %s: %s", k.Dec(), err)
		}
		if n != nil {
			return errors.Wrapf(ErrKeyInTree, "key %s", k.Dec())
		}
	}
	return nil
}

// recomputeMerkleRoot recomputes a (sub)tree's merkle root from scratch,
// rather than trusting the stored value, so verification can't be fooled by
// a tampered merkleRoot field.
func recomputeMerkleRoot(h Hasher, t *Node) Digest {
	if t == nil {
		return hashNone(h)
	}
	left := t.leftDigest
	right := t.rightDigest
	if !t.compressed {
		left = recomputeMerkleRoot(h, t.left)
		right = recomputeMerkleRoot(h, t.right)
	}
	return h.Hash(t.key.Dec(), t.priority.Dec(), string(left), string(right))
}

// variantRank orders node variants by how much they reveal: Regular reveals
// the most, then Compressed, then Absent (nil) reveals nothing. join keeps
// whichever side of a pair ranks lowest.
func variantRank(t *Node) int {
	switch {
	case t == nil:
		return 3
	case t.compressed:
		return 2
	default:
		return 1
	}
}

// joinTwo overlays two proofs with identical merkle roots into the
// most-revealing combination: recurse into children only when both sides
// are Regular, otherwise keep whichever side ranks lowest in variantRank.
func joinTwo(a, b *Node) (*Node, error) {
	ra, rb := variantRank(a), variantRank(b)
	if ra == 1 && rb != 1 {
		return a, nil
	}
	if rb == 1 && ra != 1 {
		return b, nil
	}
	if ra != 1 && rb != 1 {
		if ra <= rb {
			return a, nil
		}
		return b, nil
	}

	// Both Regular: recurse into children and rebuild, preserving the
	// shared merkle root rather than recomputing it (both sides already
	// commit to the same root by precondition).
	left, err := joinTwo(a.left, b.left)
	if err != nil {
		return nil, err
	}
	right, err := joinTwo(a.right, b.right)
	if err != nil {
		return nil, err
	}
	return &Node{
		key:         a.key,
		priority:    a.priority,
		compressed:  false,
		left:        left,
		right:       right,
		leftDigest:  a.leftDigest,
		rightDigest: a.rightDigest,
		merkleRoot:  a.merkleRoot,
	}, nil
}

// joinProofs folds a slice of proofs with identical merkle roots into a
// single, most-revealing proof. It fails with ErrInvalidProof if the
// proofs do not all share the same merkle root.
func joinProofs(h Hasher, proofs ...Proof) (Proof, error) {
	if len(proofs) == 0 {
		return nil, errors.Wrap(ErrInvalidProof, "join: no proofs given")
	}

	root := recomputeMerkleRoot(h, proofs[0])
	for _, p := range proofs[1:] {
		if recomputeMerkleRoot(h, p) != root {
			return nil, errors.Wrap(ErrInvalidProof, "join: proofs have different merkle roots")
		}
	}

	joined := proofs[0]
	for _, p := range proofs[1:] {
		var err error
		joined, err = joinTwo(joined, p)
		if err != nil {
			return nil, err
		}
	}
	if recomputeMerkleRoot(h, joined) != root {
		return nil, errors.Wrap(ErrInvalidProof, "join: result root mismatch")
	}
	return joined, nil
}

// insertProof returns the minimal proof for Insert: a single exclusion
// proof for k+1. A richer, two-sided join (also proving exclusion of k-1)
// would work too, but reveals strictly more of the tree than insertion
// needs to verify, so this ships the minimal form.
func insertProof(h Hasher, t *Node, k Key) (Proof, error) {
	_, found, err := pathTo(t, k)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, errors.Wrapf(ErrKeyInTree, "key %s", k.Dec())
	}

	proof, err := proveExclusion(h, t, k.Add1())
	if err != nil {
		return nil, err
	}
	if recomputeMerkleRoot(h, t) != recomputeMerkleRoot(h, proof) {
		return nil, errors.Wrap(ErrInvalidProof, "insertProof: root mismatch")
	}
	return proof, nil
}

// removeProof returns a joined proof of exclusion for both k+1 and k-1.
// Removal needs both neighbors' exclusion to let a verifier re-derive the
// merged subtree that replaces the removed node, unlike insertion's
// single-sided insertProof.
func removeProof(h Hasher, t *Node, k Key) (Proof, error) {
	_, found, err := pathTo(t, k)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(ErrKeyNotInTree, "key %s", k.Dec())
	}

	pHi, err := proveExclusion(h, t, k.Add1())
	if err != nil {
		return nil, err
	}
	pLo, err := proveExclusion(h, t, k.Sub1())
	if err != nil {
		return nil, err
	}
	proof, err := joinProofs(h, pHi, pLo)
	if err != nil {
		return nil, err
	}
	if recomputeMerkleRoot(h, t) != recomputeMerkleRoot(h, proof) {
		return nil, errors.Wrap(ErrInvalidProof, "removeProof: root mismatch")
	}
	return proof, nil
}
