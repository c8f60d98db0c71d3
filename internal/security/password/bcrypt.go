package password

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost coincide con genSalt(10) del provider.
const DefaultBcryptCost = 10

// bcryptSaltLen: "$2a$10$" + 22 chars de salt.
const bcryptSaltLen = 29

// Bcrypt genera hashes "$2a$<cost>$<salt22><hash31>"; el salt es el prefijo de 29 chars.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(plain string) (Credential, error) {
	if plain == "" {
		return Credential{}, fmt.Errorf("empty password")
	}
	if err := CheckLength(plain); err != nil {
		return Credential{}, fmt.Errorf("bcrypt: %w", err)
	}
	cost := b.Cost
	if cost < bcrypt.MinCost {
		cost = DefaultBcryptCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return Credential{}, fmt.Errorf("bcrypt: %w", err)
	}
	s := string(h)
	return Credential{Hash: s, Salt: s[:bcryptSaltLen]}, nil
}

func verifyBcrypt(plain, hash, salt string) bool {
	if len(salt) != bcryptSaltLen || !strings.HasPrefix(hash, salt) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
