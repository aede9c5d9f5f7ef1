package treaccp

import "errors"

// The six error kinds from the accumulator's error handling design. Callers
// should compare against these with errors.Is; call sites that attach extra
// context wrap them with github.com/pkg/errors.Wrapf, which preserves Is.
var (
	// ErrKeyNotInTree is raised when an operation expected a key to be
	// present but it is absent (Remove, RemoveProof, ProveInclusion).
	ErrKeyNotInTree = errors.New("treaccp: key not in tree")

	// ErrKeyInTree is raised when an operation expected a key to be absent
	// but it is present (Insert, InsertProof, ProveExclusion, exclusion
	// verification).
	ErrKeyInTree = errors.New("treaccp: key already in tree")

	// ErrMerkleRootMismatch is raised when a supplied proof's recomputed
	// root does not match the verifier's digest.
	ErrMerkleRootMismatch = errors.New("treaccp: merkle root mismatch")

	// ErrInvalidProof is raised when a proof's shape does not support the
	// claim being made against it, including a TouchedCompressedNode
	// encountered during verification.
	ErrInvalidProof = errors.New("treaccp: invalid proof")

	// ErrTouchedCompressedNode is raised when a mutating operation needed
	// structure that a compressed node hid.
	ErrTouchedCompressedNode = errors.New("treaccp: touched compressed node")

	// ErrNoRoot is raised by Tree.ToAcc when the tree has no root.
	ErrNoRoot = errors.New("treaccp: tree has no root")
)
