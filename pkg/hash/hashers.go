package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/spaolacci/murmur3"
)

// Hasher produces a raw 64-bit hash for a key. The table masks this down to
// whatever global depth is currently in effect; a Hasher need not worry
// about directory size.
type Hasher[K any] func(key K) uint64

// Strategy selects which off-the-shelf hash function Int64Hasher wraps.
type Strategy int

const (
	// XxHash hashes keys with github.com/cespare/xxhash.
	XxHash Strategy = iota
	// MurmurHash hashes keys with github.com/spaolacci/murmur3.
	MurmurHash
)

// Int64Hasher returns a Hasher[int64] backed by the requested Strategy,
// encoding the key as a varint before hashing its bytes.
func Int64Hasher(strategy Strategy) Hasher[int64] {
	raw := xxhash.Sum64
	if strategy == MurmurHash {
		raw = murmur3.Sum64
	}
	return func(key int64) uint64 {
		buf := make([]byte, binary.MaxVarintLen64)
		n := binary.PutVarint(buf, key)
		return raw(buf[:n])
	}
}

// StringHasher returns a Hasher[string] backed by the requested Strategy.
func StringHasher(strategy Strategy) Hasher[string] {
	raw := xxhash.Sum64
	if strategy == MurmurHash {
		raw = murmur3.Sum64
	}
	return func(key string) uint64 {
		return raw([]byte(key))
	}
}
