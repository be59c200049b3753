package security

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// DefaultCost matches the work factor existing digests were created with.
const DefaultCost = 10

// maxPasswordBytes is bcrypt's input limit; longer input would be truncated.
const maxPasswordBytes = 72

// BcryptHasher hashes passwords with bcrypt. Every Hash call draws a fresh
// salt, so hashing the same password twice yields different digests.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost to the range bcrypt accepts.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", domain.NewValidationError("password must be at most 72 bytes")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether password matches digest. Malformed digests never match.
func (h *BcryptHasher) Verify(password, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	return err == nil
}

