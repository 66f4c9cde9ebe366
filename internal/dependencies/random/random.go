package random

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/google/uuid"
)

// Random provides random number and identifier generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) (int, error)

	// ID returns a fresh identifier with at least 122 bits of entropy
	ID() string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct {
	reader io.Reader
}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{reader: rand.Reader}
}

// Intn returns a cryptographically random int in [0, n).
// A failing entropy source is reported rather than retried.
func (r *CryptoRandom) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	result, err := rand.Int(r.reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read randomness: %w", err)
	}
	return int(result.Int64()), nil
}

// ID returns a random (version 4) UUID string
func (r *CryptoRandom) ID() string {
	return uuid.NewString()
}
