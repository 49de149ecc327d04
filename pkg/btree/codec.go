package btree

import "encoding/binary"

// KeyCodec converts between a typed key and its fixed-width on-page
// encoding, so InternalPage can store arbitrary comparable key types in a
// raw byte buffer.
type KeyCodec[K any] interface {
	// Size is the number of bytes every encoded key occupies, including
	// any padding.
	Size() int
	// Encode writes key into dst, which is exactly Size() bytes long.
	Encode(key K, dst []byte)
	// Decode reads a key back out of src, which is exactly Size() bytes
	// long.
	Decode(src []byte) K
}

// Comparator imposes a total order over keys: negative if a < b, zero if
// equal, positive if a > b.
type Comparator[K any] func(a, b K) int

// varintCodec stores an int64 key as a varint written at the start of a
// fixed-size slot, the same slot layout used by pager-era Go B+-trees in this
// corpus.
type varintCodec struct {
	size int
}

// Int64Codec returns a KeyCodec for int64 keys, using binary.MaxVarintLen64
// bytes per slot.
func Int64Codec() KeyCodec[int64] {
	return varintCodec{size: binary.MaxVarintLen64}
}

func (c varintCodec) Size() int { return c.size }

func (c varintCodec) Encode(key int64, dst []byte) {
	binary.PutVarint(dst, key)
}

func (c varintCodec) Decode(src []byte) int64 {
	v, _ := binary.Varint(src)
	return v
}

// Int64Comparator orders int64 keys numerically.
func Int64Comparator(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
