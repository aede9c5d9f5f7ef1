package treaccp

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Tree is the full tree holder: it owns the whole treap plus the element
// set (see DESIGN.md's "element-set shadow" note) and exposes the
// user-level API, translating elements to keys at the boundary and
// delegating to the node layer.
//
// Every mutating method returns a new Tree; the receiver is left
// unchanged.
type Tree struct {
	hasher Hasher
	logger *zap.Logger

	root     *Node
	elements map[string]struct{}
}

// Build constructs a Tree over the given elements. The resulting merkle
// root is independent of the order elements appear in.
func Build(elements []string, opts ...Option) (*Tree, error) {
	cfg := applyOptions(opts)

	keys := make([]Key, len(elements))
	elemSet := make(map[string]struct{}, len(elements))
	for i, el := range elements {
		keys[i] = toKey(cfg.hasher, el)
		elemSet[el] = struct{}{}
	}

	root, err := buildTreap(cfg.hasher, keys)
	if err != nil {
		return nil, err
	}

	cfg.logger.Debug("built tree", zap.Int("elements", len(elements)))
	return &Tree{hasher: cfg.hasher, logger: cfg.logger, root: root, elements: elemSet}, nil
}

func (t *Tree) clone(root *Node, elements map[string]struct{}) *Tree {
	return &Tree{hasher: t.hasher, logger: t.logger, root: root, elements: elements}
}

// MerkleRoot returns the tree's current digest, or "" if the tree is empty.
func (t *Tree) MerkleRoot() Digest {
	if t.root == nil {
		return ""
	}
	return t.root.merkleRoot
}

// ToAcc converts the tree into a light Acc holding only its merkle root.
// It fails with ErrNoRoot if the tree is empty.
func (t *Tree) ToAcc() (Acc, error) {
	if t.root == nil {
		return Acc{}, errors.Wrap(ErrNoRoot, "tree has no elements")
	}
	return Acc{hasher: t.hasher, digest: t.root.merkleRoot}, nil
}

// IsMember reports whether element was included when the tree was built or
// by a subsequent Insert, without needing to hash it to search the treap.
func (t *Tree) IsMember(element string) bool {
	_, ok := t.elements[element]
	return ok
}

// Insert inserts element, returning the new tree and (unless prove is
// false) a proof usable to replay the same insertion against an
// accumulator holding t.MerkleRoot().
func (t *Tree) Insert(element string, prove bool) (*Tree, Proof, error) {
	return t.InsertMany([]string{element}, prove)
}

// InsertMany inserts multiple elements, producing (if prove) a single
// joined proof covering all of them.
func (t *Tree) InsertMany(elements []string, prove bool) (*Tree, Proof, error) {
	var proof Proof
	if prove {
		proofs := make([]Proof, 0, len(elements))
		for _, el := range elements {
			k := toKey(t.hasher, el)
			p, err := insertProof(t.hasher, t.root, k)
			if err != nil {
				return nil, nil, err
			}
			proofs = append(proofs, p)
		}
		joined, err := joinProofs(t.hasher, proofs...)
		if err != nil {
			return nil, nil, err
		}
		proof = joined
	}

	root := t.root
	newElements := cloneElementSet(t.elements)
	for _, el := range elements {
		k := toKey(t.hasher, el)
		var err error
		root, err = insertNode(t.hasher, root, k)
		if err != nil {
			return nil, nil, err
		}
		newElements[el] = struct{}{}
	}

	t.logger.Debug("inserted elements", zap.Int("count", len(elements)))
	return t.clone(root, newElements), proof, nil
}

// Remove removes element, returning the new tree and (unless prove is
// false) a proof usable to replay the same removal against an accumulator.
func (t *Tree) Remove(element string, prove bool) (*Tree, Proof, error) {
	return t.RemoveMany([]string{element}, prove)
}

// RemoveMany removes multiple elements, producing (if prove) a single
// joined proof covering all of them.
func (t *Tree) RemoveMany(elements []string, prove bool) (*Tree, Proof, error) {
	var proof Proof
	if prove {
		proofs := make([]Proof, 0, len(elements))
		for _, el := range elements {
			k := toKey(t.hasher, el)
			p, err := removeProof(t.hasher, t.root, k)
			if err != nil {
				return nil, nil, err
			}
			proofs = append(proofs, p)
		}
		joined, err := joinProofs(t.hasher, proofs...)
		if err != nil {
			return nil, nil, err
		}
		proof = joined
	}

	root := t.root
	newElements := cloneElementSet(t.elements)
	for _, el := range elements {
		k := toKey(t.hasher, el)
		var err error
		root, err = removeNode(t.hasher, root, k)
		if err != nil {
			return nil, nil, err
		}
		delete(newElements, el)
	}

	t.logger.Debug("removed elements", zap.Int("count", len(elements)))
	return t.clone(root, newElements), proof, nil
}

// InsertProof returns the proof Insert would produce for element, without
// mutating the tree.
func (t *Tree) InsertProof(element string) (Proof, error) {
	k := toKey(t.hasher, element)
	return insertProof(t.hasher, t.root, k)
}

// RemoveProof returns the proof Remove would produce for element, without
// mutating the tree.
func (t *Tree) RemoveProof(element string) (Proof, error) {
	k := toKey(t.hasher, element)
	return removeProof(t.hasher, t.root, k)
}

// ProveInclusion returns a compressed-subtree proof that element is in the
// set.
func (t *Tree) ProveInclusion(element string) (Proof, error) {
	k := toKey(t.hasher, element)
	return proveInclusion(t.hasher, t.root, k)
}

// ProveExclusion returns a compressed-subtree proof that element is not in
// the set.
func (t *Tree) ProveExclusion(element string) (Proof, error) {
	k := toKey(t.hasher, element)
	return proveExclusion(t.hasher, t.root, k)
}

// VerifyInclusion verifies proof against this tree's current merkle root.
func (t *Tree) VerifyInclusion(element string, proof Proof) error {
	return t.VerifyInclusions([]string{element}, proof)
}

// VerifyInclusions verifies a batch of elements against proof in one pass.
func (t *Tree) VerifyInclusions(elements []string, proof Proof) error {
	keys := make([]Key, len(elements))
	for i, el := range elements {
		keys[i] = toKey(t.hasher, el)
	}
	return verifyInclusions(t.hasher, t.MerkleRoot(), keys, proof)
}

// VerifyExclusion verifies proof against this tree's current merkle root.
func (t *Tree) VerifyExclusion(element string, proof Proof) error {
	return t.VerifyExclusions([]string{element}, proof)
}

// VerifyExclusions verifies a batch of elements against proof in one pass.
func (t *Tree) VerifyExclusions(elements []string, proof Proof) error {
	keys := make([]Key, len(elements))
	for i, el := range elements {
		keys[i] = toKey(t.hasher, el)
	}
	return verifyExclusions(t.hasher, t.MerkleRoot(), keys, proof)
}

// JoinProofs folds proofs that all share the same merkle root into the
// single most-revealing proof, usable directly
// against an Acc or Tree rooted at that digest.
func JoinProofs(hasher Hasher, proofs ...Proof) (Proof, error) {
	if hasher == nil {
		hasher = SHA256Hasher{}
	}
	return joinProofs(hasher, proofs...)
}

func cloneElementSet(elements map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(elements))
	for k := range elements {
		out[k] = struct{}{}
	}
	return out
}
