// Package pseudonym derives pseudonyms from platform identities.
package pseudonym

import (
	"crypto/md5" // nolint:gosec
	"encoding/hex"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tgchan/tgchan/internal/entities"
)

const defaultCacheSize = 100_000

// MaxSeed bounds seed magnitude so value+offset+seed never overflows int64
// for platform identities and salts, which stay far below 2^62.
const MaxSeed int64 = 1 << 62

// ValidSeed returns true if seed is within [-MaxSeed, MaxSeed].
func ValidSeed(seed int64) bool {
	return seed >= -MaxSeed && seed <= MaxSeed
}

// Hasher is a salted one-way mapping from numeric identity to pseudonym.
// Changing seed invalidates every pseudonym and delete token issued before.
type Hasher struct {
	seed  int64
	cache *lru.Cache[int64, entities.Pseudonym]
}

// New creates Hasher. cacheSize <= 0 means default size.
func New(seed int64, cacheSize int) *Hasher {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	c, _ := lru.New[int64, entities.Pseudonym](cacheSize) // err is returned only for non-positive size

	return &Hasher{
		seed:  seed,
		cache: c,
	}
}

// Seed returns the secret seed.
func (h *Hasher) Seed() int64 {
	return h.seed
}

// Hash returns hex md5 of decimal value+offset+seed.
func (h *Hasher) Hash(value, offset int64) entities.Pseudonym {
	n := value + offset + h.seed

	if v, ok := h.cache.Get(n); ok {
		return v
	}

	sum := md5.Sum([]byte(strconv.FormatInt(n, 10))) // nolint:gosec
	v := entities.Pseudonym(hex.EncodeToString(sum[:]))

	h.cache.Add(n, v)

	return v
}

// Identity returns pseudonym of identity without offset.
func (h *Hasher) Identity(identity int64) entities.Pseudonym {
	return h.Hash(identity, 0)
}
