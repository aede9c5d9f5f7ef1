// Package treaccp implements a cryptographic set accumulator backed by a
// Merkle-committed treap: a persistent binary search tree on element keys
// that is simultaneously a max-heap on a pseudorandom priority derived from
// each key. Because priorities are pseudorandom, the shape of the treap is
// uniquely determined by its key set, independent of insertion order — this
// is the property that makes compressed sub-trees valid, succinct proofs of
// inclusion, exclusion, and state transitions.
//
// Tree holds the whole structure plus the element set; Acc holds only the
// 256-bit Merkle root and verifies claims against proofs (compressed
// sub-trees) produced by a Tree holder.
package treaccp
