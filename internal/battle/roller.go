package battle

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Roller draws damage values. Implementations used in play return a uniform
// integer in [min, max]; tests may inject anything deterministic.
type Roller interface {
	Roll(min, max int) int
}

// RollerFunc adapts a function to Roller.
type RollerFunc func(min, max int) int

func (f RollerFunc) Roll(min, max int) int { return f(min, max) }

// RandRoller rolls with a caller-controlled math/rand source.
//
// Given the same seed, a RandRoller produces the same sequence of rolls.
// It is not safe for concurrent use.
type RandRoller struct {
	rng *rand.Rand
}

// NewRandRoller wraps rng.
func NewRandRoller(rng *rand.Rand) *RandRoller {
	return &RandRoller{rng: rng}
}

// NewSeededRoller returns a roller whose sequence is fixed by seed.
func NewSeededRoller(seed int64) *RandRoller {
	return NewRandRoller(rand.New(rand.NewSource(seed)))
}

// NewRoller returns a roller seeded from crypto/rand.
func NewRoller() (*RandRoller, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSeededRoller(seed), nil
}

// Roll returns a uniform integer in [min, max]. A reversed range yields min.
func (r *RandRoller) Roll(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.rng.Intn(max-min+1)
}

// NewSeed generates a PRNG seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
