package treaccp

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/holiman/uint256"
)

// Digest is a 256-bit value, the output of a Hasher, always represented as
// a 64-character lowercase hex string. This textual form is what feeds the
// node Merkle-root computation — see Node.computeMerkleRoot.
type Digest string

// Key is a 256-bit integer: the integer interpretation of H(element). It is
// a fixed-width [4]uint64 value (via uint256.Int) so it is directly
// comparable and usable as a Go map key, unlike math/big.Int.
type Key uint256.Int

// Priority is a 256-bit integer derived from a Key by hashing its decimal
// form. Like Key, it is comparable and map-key-safe.
type Priority uint256.Int

// Hasher is the injection point for the hash function this accumulator
// commits with. This module ships only SHA256Hasher, since swapping hash
// functions silently breaks proof interop with anything committed under a
// different one, but keeps the dependency explicit rather than hardwired,
// mirroring the injectable `hash func(data ...[]byte) []byte` field of
// rgdd/lwm's MerkleTree and the hashers.MapHasher seam in
// pphaneuf/trillian's sparse Merkle tree.
type Hasher interface {
	// Hash concatenates data and returns its digest as 64 lowercase hex
	// characters.
	Hash(data ...string) Digest
}

// SHA256Hasher is the reference Hasher: SHA-256, hex-encoded. It is the
// default hasher used by Build when no WithHasher option is supplied, and
// by JoinProofs when given a nil Hasher.
type SHA256Hasher struct{}

// Hash implements Hasher.
func (SHA256Hasher) Hash(data ...string) Digest {
	h := sha256.New()
	for _, d := range data {
		h.Write([]byte(d))
	}
	return Digest(hex.EncodeToString(h.Sum(nil)))
}

// hashNone is the sentinel digest standing in for an absent child:
// HASH_NONE = H("None").
func hashNone(h Hasher) Digest {
	return h.Hash("None")
}

// toKey derives the treap key for an arbitrary stringified element:
// key(element) = H(stringify(element)), interpreted as a 256-bit integer.
func toKey(h Hasher, element string) Key {
	d := h.Hash(element)
	return Key(*digestToInt(d))
}

// toPriority derives the pseudorandom priority of a key:
// priority(key) = H(decimal(key)), interpreted as a 256-bit integer.
func toPriority(h Hasher, key Key) Priority {
	k := uint256.Int(key)
	d := h.Hash(k.Dec())
	return Priority(*digestToInt(d))
}

// digestToInt parses a 64-char hex digest as a 256-bit unsigned integer.
func digestToInt(d Digest) *uint256.Int {
	b, err := hex.DecodeString(string(d))
	if err != nil || len(b) != 32 {
		// d always comes from Hasher.Hash, which only ever emits valid
		// 64-char lowercase hex; a parse failure here means the Hasher
		// implementation is broken.
		panic("treaccp: hasher produced a malformed digest: " + string(d))
	}
	return new(uint256.Int).SetBytes(b)
}

// Dec returns the decimal textual form of a Key, the encoding the node
// Merkle-root hash requires as input.
func (k Key) Dec() string {
	v := uint256.Int(k)
	return v.Dec()
}

// Cmp compares two keys as unsigned 256-bit integers.
func (k Key) Cmp(other Key) int {
	a, b := uint256.Int(k), uint256.Int(other)
	return a.Cmp(&b)
}

// Dec returns the decimal textual form of a Priority.
func (p Priority) Dec() string {
	v := uint256.Int(p)
	return v.Dec()
}

// Cmp compares two priorities as unsigned 256-bit integers.
func (p Priority) Cmp(other Priority) int {
	a, b := uint256.Int(p), uint256.Int(other)
	return a.Cmp(&b)
}

// Add1 and Sub1 compute k+1 and k-1 over the 256-bit key space. They are
// used by insertProof/removeProof, which prove exclusion of the keys
// immediately adjacent to k.
func (k Key) Add1() Key {
	v := uint256.Int(k)
	one := uint256.NewInt(1)
	var out uint256.Int
	out.Add(&v, one)
	return Key(out)
}

func (k Key) Sub1() Key {
	v := uint256.Int(k)
	one := uint256.NewInt(1)
	var out uint256.Int
	out.Sub(&v, one)
	return Key(out)
}
