package emoji

import (
	"crypto/rand"
	"math/big"
)

// Assignment is the set of secrets drawn for a new account at signup.
type Assignment struct {
	Round1Key string
	Round2Key string
	// Trust is stored with the account but never consulted during
	// verification. Reserved for future recovery flows.
	Trust string
}

// Assign draws three distinct symbols, without replacement, uniformly from
// the union of both round pools.
func (p *Pools) Assign() (Assignment, error) {
	combined := p.Combined()
	if len(combined) < 3 {
		return Assignment{}, ErrInsufficientPool
	}

	picks := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(combined))))
		if err != nil {
			return Assignment{}, err
		}
		idx := int(n.Int64())
		picks = append(picks, combined[idx])
		combined = append(combined[:idx], combined[idx+1:]...)
	}

	return Assignment{Round1Key: picks[0], Round2Key: picks[1], Trust: picks[2]}, nil
}
