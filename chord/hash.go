package chord

import "github.com/zeebo/xxh3"

// DefaultHash is the production HashFunc: a non-cryptographic, well
// distributed 64-bit hash suited to hashing short address strings at a
// high rate during ring membership changes.
func DefaultHash(b []byte) uint64 {
	return xxh3.Hash(b)
}
