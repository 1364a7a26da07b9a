package miner

import "time"

// workSizer adapts a GPU dispatch's global work size to keep cycle time
// near a target duration. Cycles faster than half the target double the
// size, cycles slower than twice the target halve it; the size stays on a
// power-of-two grid between the configured bounds.
type workSizer struct {
	size uint32
	min  uint32
	max  uint32
	lo   time.Duration
	hi   time.Duration
}

func newWorkSizer(initial, minSize, maxSize uint32, targetRate time.Duration) *workSizer {
	s := &workSizer{
		size: initial,
		min:  minSize,
		max:  maxSize,
		lo:   targetRate / 2,
		hi:   targetRate * 2,
	}
	s.size = clampPow2(s.size, s.min, s.max)
	return s
}

// update records a cycle duration and returns the size for the next cycle.
func (s *workSizer) update(elapsed time.Duration) uint32 {
	switch {
	case elapsed < s.lo && s.size <= s.max/2:
		s.size *= 2
	case elapsed > s.hi && s.size/2 >= s.min:
		s.size /= 2
	}
	return s.size
}

// clampPow2 rounds n down to a power of two within [min, max].
func clampPow2(n, min, max uint32) uint32 {
	p := uint32(1)
	for p <= n/2 {
		p *= 2
	}
	if p < min {
		p = min
	}
	if p > max {
		p = max
	}
	return p
}
