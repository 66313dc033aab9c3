package experiment

// DeriveSeed maps (base seed, step index, trial index) to the seed of one
// trial. Distinct index pairs give distinct seeds for a fixed base, and the
// same inputs always give the same seed, so any trial can be replayed alone.
func DeriveSeed(base int64, stepIndex, trialIndex int) int64 {
	x := uint64(base) ^ uint64(stepIndex+1)<<32 ^ uint64(uint32(trialIndex+1))
	// splitmix64 finalizer, a bijection on uint64
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}
