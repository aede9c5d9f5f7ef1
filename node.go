package treaccp

import (
	"github.com/pkg/errors"
)

// Node is a treap node. It is a tagged sum of two variants, dispatched on
// compressed rather than modeled as a class hierarchy:
//
//   - Regular (compressed == false): left/right point at child nodes (nil
//     for an absent child), and leftDigest/rightDigest mirror the
//     children's merkle roots (hashNone when absent).
//   - Compressed (compressed == true): left/right are always nil; only
//     leftDigest/rightDigest are carried, hiding the subtree while still
//     committing to it.
//
// Both variants carry key, priority and merkleRoot, and both are handled
// by the same split/merge/find/compress code paths, since proofs (compressed
// sub-trees) share the Regular/Compressed node model with full trees.
type Node struct {
	key        Key
	priority   Priority
	compressed bool

	left  *Node
	right *Node

	leftDigest  Digest
	rightDigest Digest

	merkleRoot Digest
}

// Proof is a compressed sub-tree: a node that reveals exactly the structure
// needed to evaluate an inclusion, exclusion, or mutation claim.
type Proof = *Node

func childDigest(h Hasher, n *Node) Digest {
	if n == nil {
		return hashNone(h)
	}
	return n.merkleRoot
}

// newRegular builds a Regular node and computes its merkle root from its
// (possibly nil) children. It never mutates left or right.
func newRegular(h Hasher, key Key, priority Priority, left, right *Node) *Node {
	n := &Node{
		key:         key,
		priority:    priority,
		compressed:  false,
		left:        left,
		right:       right,
		leftDigest:  childDigest(h, left),
		rightDigest: childDigest(h, right),
	}
	n.merkleRoot = n.computeMerkleRoot(h)
	return n
}

// computeMerkleRoot implements the merkle-root definition:
//
//	merkle_root = H(str(key) || str(priority) || left_digest || right_digest)
func (n *Node) computeMerkleRoot(h Hasher) Digest {
	return h.Hash(n.key.Dec(), n.priority.Dec(), string(n.leftDigest), string(n.rightDigest))
}

// compress returns the Compressed representation of a Regular node: same
// key, priority and merkle root, but with children replaced by their
// digests ("compress(n)"). Compressing an already-compressed
// node is a no-op copy.
func (n *Node) compress() *Node {
	if n == nil {
		return nil
	}
	if n.compressed {
		c := *n
		return &c
	}
	return &Node{
		key:         n.key,
		priority:    n.priority,
		compressed:  true,
		leftDigest:  n.leftDigest,
		rightDigest: n.rightDigest,
		merkleRoot:  n.merkleRoot,
	}
}

// split partitions t so that L contains every key < k (and == k if
// equalLeft), and R contains the rest. Fails with ErrTouchedCompressedNode
// if traversal would descend into a compressed node.
func split(h Hasher, t *Node, k Key, equalLeft bool) (L, R *Node, err error) {
	if t == nil {
		return nil, nil, nil
	}
	if t.compressed {
		return nil, nil, errors.Wrapf(ErrTouchedCompressedNode, "split at key %s", k.Dec())
	}

	if t.key.Cmp(k) < 0 || (equalLeft && t.key.Cmp(k) == 0) {
		l, r, err := split(h, t.right, k, equalLeft)
		if err != nil {
			return nil, nil, err
		}
		newT := newRegular(h, t.key, t.priority, t.left, l)
		return newT, r, nil
	}

	l, r, err := split(h, t.left, k, equalLeft)
	if err != nil {
		return nil, nil, err
	}
	newT := newRegular(h, t.key, t.priority, r, t.right)
	return l, newT, nil
}

// merge requires keys(t1) < keys(t2) and produces a treap rooted at the
// higher-priority of the two roots. Fails with ErrTouchedCompressedNode if
// either root is compressed.
func merge(h Hasher, t1, t2 *Node) (*Node, error) {
	if t1 != nil && t1.compressed {
		return nil, errors.Wrap(ErrTouchedCompressedNode, "merge: left root compressed")
	}
	if t2 != nil && t2.compressed {
		return nil, errors.Wrap(ErrTouchedCompressedNode, "merge: right root compressed")
	}
	if t1 == nil {
		return t2, nil
	}
	if t2 == nil {
		return t1, nil
	}

	if t1.priority.Cmp(t2.priority) > 0 {
		r, err := merge(h, t1.right, t2)
		if err != nil {
			return nil, err
		}
		return newRegular(h, t1.key, t1.priority, t1.left, r), nil
	}

	l, err := merge(h, t1, t2.left)
	if err != nil {
		return nil, err
	}
	return newRegular(h, t2.key, t2.priority, l, t2.right), nil
}

// find descends toward k. Fails with ErrTouchedCompressedNode if a
// compressed node is encountered; terminating at an absent child returns
// (nil, nil).
func find(t *Node, k Key) (*Node, error) {
	if t == nil {
		return nil, nil
	}
	if t.compressed {
		return nil, errors.Wrapf(ErrTouchedCompressedNode, "find key %s", k.Dec())
	}
	if t.key.Cmp(k) == 0 {
		return t, nil
	}
	if k.Cmp(t.key) >= 0 {
		return find(t.right, k)
	}
	return find(t.left, k)
}

// pathTo returns the sequence of Regular nodes visited by a BST search for
// k, without ever touching a compressed node. found is true when the last
// entry in path holds key k; otherwise path ends at the last present node
// before the search fell off the tree ("path(t, k)" terminating at
// absent).
func pathTo(t *Node, k Key) (path []*Node, found bool, err error) {
	cur := t
	for cur != nil {
		if cur.compressed {
			return nil, false, errors.Wrapf(ErrTouchedCompressedNode, "path to key %s", k.Dec())
		}
		path = append(path, cur)
		if cur.key.Cmp(k) == 0 {
			return path, true, nil
		}
		if k.Cmp(cur.key) >= 0 {
			cur = cur.right
		} else {
			cur = cur.left
		}
	}
	return path, false, nil
}

// insertNode implements insert(t, k): split, check for a duplicate, and
// merge the new singleton node back in.
func insertNode(h Hasher, t *Node, k Key) (*Node, error) {
	L, R, err := split(h, t, k, false)
	if err != nil {
		return nil, err
	}
	existing, err := find(R, k)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Wrapf(ErrKeyInTree, "key %s", k.Dec())
	}

	leaf := newRegular(h, k, toPriority(h, k), nil, nil)
	mid, err := merge(h, leaf, R)
	if err != nil {
		return nil, err
	}
	return merge(h, L, mid)
}

// removeNode implements remove(t, k): split out the node with key k (if
// present) and merge its neighbors back together.
func removeNode(h Hasher, t *Node, k Key) (*Node, error) {
	L, R, err := split(h, t, k, false)
	if err != nil {
		return nil, err
	}
	if R == nil {
		return nil, errors.Wrapf(ErrKeyNotInTree, "key %s", k.Dec())
	}
	L2, R2, err := split(h, R, k, true)
	if err != nil {
		return nil, err
	}
	if L2 == nil {
		return nil, errors.Wrapf(ErrKeyNotInTree, "key %s", k.Dec())
	}
	// L2 is discarded: it is exactly the node holding key k.
	return merge(h, L, R2)
}

// isTreap walks the tree and asserts BST order on key and max-heap order on
// priority, treating compressed nodes as leaves whose priority still
// participates in the heap check.
func isTreap(root *Node) error {
	if root == nil {
		return nil
	}
	if _, err := verifyHeap(root); err != nil {
		return err
	}
	return verifyBST(root)
}

func verifyHeap(t *Node) (Priority, error) {
	if t.compressed {
		return t.priority, nil
	}

	var maxChild *Priority
	if t.left != nil {
		p, err := verifyHeap(t.left)
		if err != nil {
			return Priority{}, err
		}
		maxChild = &p
	}
	if t.right != nil {
		p, err := verifyHeap(t.right)
		if err != nil {
			return Priority{}, err
		}
		if maxChild == nil || p.Cmp(*maxChild) > 0 {
			maxChild = &p
		}
	}
	if maxChild != nil && t.priority.Cmp(*maxChild) <= 0 {
		return Priority{}, errors.New("not a heap")
	}
	return t.priority, nil
}

func verifyBST(t *Node) error {
	if t.compressed {
		return nil
	}
	if t.left != nil {
		if t.key.Cmp(t.left.key) <= 0 {
			return errors.New("not a binary tree")
		}
		if err := verifyBST(t.left); err != nil {
			return err
		}
	}
	if t.right != nil {
		if t.key.Cmp(t.right.key) >= 0 {
			return errors.New("not a binary tree")
		}
		if err := verifyBST(t.right); err != nil {
			return err
		}
	}
	return nil
}

// buildTreap implements build_treap: repeated insertion, which the
// order-independence of treap shape under pseudorandom priorities
// guarantees converges on the same tree regardless of element order.
func buildTreap(h Hasher, keys []Key) (*Node, error) {
	var root *Node
	var err error
	for _, k := range keys {
		root, err = insertNode(h, root, k)
		if err != nil {
			return nil, err
		}
	}
	return root, nil
}
