package treaccp

import (
	"github.com/pkg/errors"
)

// Acc is the light accumulator holder: it keeps only a Merkle root and
// performs digest-verified state transitions by replaying mutations
// against a supplied proof tree.
type Acc struct {
	hasher Hasher
	digest Digest
}

// MerkleRoot returns the accumulator's current digest.
func (a Acc) MerkleRoot() Digest {
	return a.digest
}

// Insert recomputes proof's merkle root and, if it matches a.MerkleRoot(),
// inserts element's key into the proof tree. It fails with
// ErrMerkleRootMismatch if the proof is stale, and with
// ErrTouchedCompressedNode if the proof did not reveal enough structure to
// complete the insertion. It returns a new accumulator and the updated
// proof tree, itself usable as a proof for the next mutation.
func (a Acc) Insert(element string, proof Proof) (Acc, Proof, error) {
	return a.InsertMany([]string{element}, proof)
}

// InsertMany inserts multiple elements with a single merkle-root
// verification up front.
func (a Acc) InsertMany(elements []string, proof Proof) (Acc, Proof, error) {
	if err := a.checkProofRoot(proof); err != nil {
		return Acc{}, nil, err
	}

	t := proof
	for _, el := range elements {
		k := toKey(a.hasher, el)
		var err error
		t, err = insertNode(a.hasher, t, k)
		if err != nil {
			return Acc{}, nil, err
		}
	}
	return Acc{hasher: a.hasher, digest: recomputeMerkleRoot(a.hasher, t)}, t, nil
}

// Remove recomputes proof's merkle root and, if it matches, removes
// element's key from the proof tree.
func (a Acc) Remove(element string, proof Proof) (Acc, Proof, error) {
	return a.RemoveMany([]string{element}, proof)
}

// RemoveMany removes multiple elements with a single merkle-root
// verification up front.
func (a Acc) RemoveMany(elements []string, proof Proof) (Acc, Proof, error) {
	if err := a.checkProofRoot(proof); err != nil {
		return Acc{}, nil, err
	}

	t := proof
	for _, el := range elements {
		k := toKey(a.hasher, el)
		var err error
		t, err = removeNode(a.hasher, t, k)
		if err != nil {
			return Acc{}, nil, err
		}
	}
	return Acc{hasher: a.hasher, digest: recomputeMerkleRoot(a.hasher, t)}, t, nil
}

// VerifyInclusion delegates to the node layer's inclusion verification with
// a.MerkleRoot() as the expected root.
func (a Acc) VerifyInclusion(element string, proof Proof) error {
	return a.VerifyInclusions([]string{element}, proof)
}

// VerifyInclusions verifies multiple elements in a single pass.
func (a Acc) VerifyInclusions(elements []string, proof Proof) error {
	keys := make([]Key, len(elements))
	for i, el := range elements {
		keys[i] = toKey(a.hasher, el)
	}
	return verifyInclusions(a.hasher, a.digest, keys, proof)
}

// VerifyExclusion delegates to the node layer's exclusion verification with
// a.MerkleRoot() as the expected root.
func (a Acc) VerifyExclusion(element string, proof Proof) error {
	return a.VerifyExclusions([]string{element}, proof)
}

// VerifyExclusions verifies multiple elements in a single pass.
func (a Acc) VerifyExclusions(elements []string, proof Proof) error {
	keys := make([]Key, len(elements))
	for i, el := range elements {
		keys[i] = toKey(a.hasher, el)
	}
	return verifyExclusions(a.hasher, a.digest, keys, proof)
}

// Warp is a single-shot state transition that installs newProof's merkle
// root as the new digest without replaying each insert/remove
// individually. It validates:
//
//  1. added and removed are disjoint.
//  2. oldProof's merkle root matches a.MerkleRoot().
//  3. every removed element's key is a Regular key in oldProof.
//  4. no added element's key already appears (of either variant) in oldProof.
//  5. newProof's Regular keys minus oldProof's Regular keys is exactly the
//     added keys.
//  6. (oldProof keys ∪ added) \ removed equals newProof's key set.
//  7. newProof is a valid treap.
//  8. oldProof's and newProof's Compressed key sets are identical,
//     including each compressed node's merkle root.
//
// Any failing check returns ErrInvalidProof (after the merkle-root
// precondition, which returns ErrMerkleRootMismatch). On success it returns
// a new accumulator holding newProof's recomputed merkle root.
func (a Acc) Warp(oldProof Proof, added, removed []string, newProof Proof) (Acc, Proof, error) {
	addedSet := make(map[Key]bool, len(added))
	for _, el := range added {
		addedSet[toKey(a.hasher, el)] = true
	}
	removedSet := make(map[Key]bool, len(removed))
	for _, el := range removed {
		removedSet[toKey(a.hasher, el)] = true
	}
	for k := range addedSet {
		if removedSet[k] {
			return Acc{}, nil, errors.Wrap(ErrInvalidProof, "warp: added and removed overlap")
		}
	}

	oldRoot := recomputeMerkleRoot(a.hasher, oldProof)
	if oldRoot != a.digest {
		return Acc{}, nil, errors.Wrapf(ErrMerkleRootMismatch, "expected %s, got %s", a.digest, oldRoot)
	}

	oldKeys := collectKeys(oldProof)
	newKeys := collectKeys(newProof)

	oldRegular := regularKeySet(oldKeys)
	newRegular := regularKeySet(newKeys)
	oldCompressed := compressedKeyRecords(oldKeys)
	newCompressed := compressedKeyRecords(newKeys)

	for k := range removedSet {
		rec, ok := oldKeys[k]
		if !ok || rec.compressed {
			return Acc{}, nil, errors.Wrapf(ErrInvalidProof, "warp: removed key %s not a regular key in old proof", k.Dec())
		}
	}
	for k := range addedSet {
		if _, ok := oldKeys[k]; ok {
			return Acc{}, nil, errors.Wrapf(ErrInvalidProof, "warp: added key %s already present in old proof", k.Dec())
		}
	}

	gainedRegular := setDiff(newRegular, oldRegular)
	if !setEqual(gainedRegular, addedSet) {
		return Acc{}, nil, errors.Wrap(ErrInvalidProof, "warp: new regular keys do not match added set")
	}

	expectedKeys := setDiff(setUnion(keySet(oldKeys), addedSet), removedSet)
	if !setEqual(expectedKeys, keySet(newKeys)) {
		return Acc{}, nil, errors.Wrap(ErrInvalidProof, "warp: new key set does not match expected post-image")
	}

	if err := isTreap(newProof); err != nil {
		return Acc{}, nil, errors.Wrap(ErrInvalidProof, "warp: new proof is not a valid treap")
	}

	if !compressedRecordsEqual(oldCompressed, newCompressed) {
		return Acc{}, nil, errors.Wrap(ErrInvalidProof, "warp: compressed perimeter changed")
	}

	newRoot := recomputeMerkleRoot(a.hasher, newProof)
	return Acc{hasher: a.hasher, digest: newRoot}, newProof, nil
}

func (a Acc) checkProofRoot(proof Proof) error {
	root := recomputeMerkleRoot(a.hasher, proof)
	if root != a.digest {
		return errors.Wrapf(ErrMerkleRootMismatch, "expected %s, got %s", a.digest, root)
	}
	return nil
}

func keySet(m map[Key]keyRecord) map[Key]bool {
	out := make(map[Key]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func regularKeySet(m map[Key]keyRecord) map[Key]bool {
	out := make(map[Key]bool)
	for k, rec := range m {
		if !rec.compressed {
			out[k] = true
		}
	}
	return out
}

func compressedKeyRecords(m map[Key]keyRecord) map[Key]Digest {
	out := make(map[Key]Digest)
	for k, rec := range m {
		if rec.compressed {
			out[k] = rec.merkleRoot
		}
	}
	return out
}

func setDiff(a, b map[Key]bool) map[Key]bool {
	out := make(map[Key]bool)
	for k := range a {
		if !b[k] {
			out[k] = true
		}
	}
	return out
}

func setUnion(a, b map[Key]bool) map[Key]bool {
	out := make(map[Key]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func setEqual(a, b map[Key]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func compressedRecordsEqual(a, b map[Key]Digest) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
