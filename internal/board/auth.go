package board

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/tgchan/tgchan/internal/entities"
)

// SaltBound limits random per-post salt to [-SaltBound, SaltBound].
const SaltBound = 999_999

// Hasher ...
type Hasher interface {
	Hash(value, offset int64) entities.Pseudonym
	Seed() int64
}

// Authorizer issues delete tokens and checks them.
//
// A post secret is hash(identity + salt) and author's token is salt + seed,
// so hash(identity + token - seed) equals the secret only for the author.
type Authorizer struct {
	Hasher Hasher
	Owner  int64
	Salt   func() (int64, error)
}

// RandomSalt returns uniformly distributed salt in [-SaltBound, SaltBound].
func RandomSalt() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(2*SaltBound+1))
	if err != nil {
		return 0, fmt.Errorf("failed to read random: %w", err)
	}

	return n.Int64() - SaltBound, nil
}

// Issue returns new post secret and author's delete token.
func (a Authorizer) Issue(identity int64) (entities.Pseudonym, int64, error) {
	salt := a.Salt
	if salt == nil {
		salt = RandomSalt
	}

	s, err := salt()
	if err != nil {
		return "", 0, err
	}

	return a.Hasher.Hash(identity, s), s + a.Hasher.Seed(), nil
}

// Authorize returns true if identity with token is allowed to delete the post.
// Zero Owner means there is no owner.
func (a Authorizer) Authorize(p *entities.Post, identity int64, token int64) bool {
	if a.Owner != 0 && identity == a.Owner {
		return true
	}

	return a.Hasher.Hash(identity, token-a.Hasher.Seed()) == p.Secret
}
