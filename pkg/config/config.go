// Package config holds the build-time constants shared by the storage core.
package config

import "github.com/ncw/directio"

// PageSize is the fixed size, in bytes, of every page and every in-memory
// frame that caches one. It is pinned to the platform's direct-I/O block
// size so that frames can be handed straight to aligned reads/writes.
const PageSize int64 = directio.BlockSize

// DefaultBucketSize is the default capacity of a single extendible-hash
// bucket when none is supplied explicitly.
const DefaultBucketSize = 64

// DefaultPoolSize is the default number of frames a buffer pool is built
// with when none is supplied explicitly.
const DefaultPoolSize = 128
