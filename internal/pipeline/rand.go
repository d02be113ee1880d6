package pipeline

import "math/rand/v2"

// NewRand returns the random source shared by the stages. A zero seed draws
// a fresh one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
