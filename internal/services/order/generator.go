// Package order produces player orderings for a room.
package order

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/votingroom/internal/dependencies/random"
	"github.com/mcoot/votingroom/internal/model"
)

// Mode selects how permutations are drawn
type Mode string

const (
	// ModeRandom draws every permutation from the injected random source
	ModeRandom Mode = "random"
	// ModeSeeded derives every permutation from (secret, room id, round),
	// so anyone holding the secret can re-derive a published order.
	ModeSeeded Mode = "seeded"
)

// ParseMode validates a mode string
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRandom, ModeSeeded:
		return Mode(s), nil
	case "":
		return ModeRandom, nil
	default:
		return "", fmt.Errorf("invalid order mode %q: must be 'random' or 'seeded'", s)
	}
}

// Generator produces permutations of player indices. It holds no per-room state.
type Generator struct {
	mode   Mode
	random random.Random
	secret []byte
}

// New creates a Generator. secret is only used in ModeSeeded and may be empty.
func New(mode Mode, rnd random.Random, secret []byte) *Generator {
	if mode == "" {
		mode = ModeRandom
	}
	return &Generator{
		mode:   mode,
		random: rnd,
		secret: secret,
	}
}

// Mode returns the generator's mode
func (g *Generator) Mode() Mode {
	return g.mode
}

// Generate returns a permutation of [0, n) for the given room and order round
func (g *Generator) Generate(roomID model.RoomID, round int, n int) ([]int, error) {
	if g.mode == ModeSeeded {
		src, err := g.seededSource(roomID, round)
		if err != nil {
			return nil, err
		}
		rng := rand.New(src)
		return Shuffle(n, func(k int) (int, error) { return rng.IntN(k), nil })
	}
	perm, err := Shuffle(n, g.random.Intn)
	if err != nil {
		return nil, fmt.Errorf("%w: player order: %v", model.ErrInternal, err)
	}
	return perm, nil
}

// seededSource keys a ChaCha8 stream with BLAKE2b(secret; room id || round)
func (g *Generator) seededSource(roomID model.RoomID, round int) (rand.Source, error) {
	h, err := blake2b.New256(g.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: order seed: %v", model.ErrInternal, err)
	}
	_, _ = h.Write([]byte(roomID))
	var roundBytes [8]byte
	binary.BigEndian.PutUint64(roundBytes[:], uint64(round))
	_, _ = h.Write(roundBytes[:])

	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return rand.NewChaCha8(seed), nil
}

// Shuffle returns a uniformly random permutation of [0, n) using Fisher-Yates.
// intn must return a uniform value in [0, k) for k > 0. An intn error aborts
// the shuffle and no partial permutation is returned.
func Shuffle(n int, intn func(int) (int, error)) ([]int, error) {
	if n <= 0 {
		return []int{}, nil
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := intn(i + 1)
		if err != nil {
			return nil, err
		}
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm, nil
}
