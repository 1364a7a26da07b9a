package miner

import (
	"testing"
	"time"
)

func TestWorkSizerGrowsWhenFast(t *testing.T) {
	s := newWorkSizer(64, 64, 1<<30, 100*time.Millisecond)

	// Cycles well under the window double the size each time.
	for i := 0; i < 5; i++ {
		s.update(10 * time.Millisecond)
	}
	if s.size != 64<<5 {
		t.Errorf("size after 5 fast cycles = %d, want %d", s.size, 64<<5)
	}
}

func TestWorkSizerShrinksWhenSlow(t *testing.T) {
	s := newWorkSizer(1024, 64, 1<<30, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		s.update(time.Second)
	}
	if s.size != 128 {
		t.Errorf("size after 3 slow cycles = %d, want 128", s.size)
	}

	// Never below the minimum.
	for i := 0; i < 10; i++ {
		s.update(time.Second)
	}
	if s.size != 64 {
		t.Errorf("size = %d, want floor 64", s.size)
	}
}

func TestWorkSizerStableInWindow(t *testing.T) {
	s := newWorkSizer(512, 64, 1<<30, 100*time.Millisecond)

	// Anything within [rate/2, rate*2] leaves the size alone.
	for _, d := range []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond} {
		if got := s.update(d); got != 512 {
			t.Errorf("update(%v) = %d, want 512", d, got)
		}
	}
}

func TestWorkSizerRespectsMax(t *testing.T) {
	s := newWorkSizer(1<<29, 64, 1<<30, 100*time.Millisecond)

	for i := 0; i < 10; i++ {
		s.update(time.Millisecond)
	}
	if s.size != 1<<30 {
		t.Errorf("size = %d, want cap %d", s.size, 1<<30)
	}
}

func TestClampPow2(t *testing.T) {
	tests := []struct {
		n, min, max, want uint32
	}{
		{100, 64, 1 << 30, 64},
		{64, 64, 1 << 30, 64},
		{1000, 64, 1 << 30, 512},
		{1, 64, 1 << 30, 64},
		{1 << 31, 64, 1 << 30, 1 << 30},
	}

	for _, tt := range tests {
		if got := clampPow2(tt.n, tt.min, tt.max); got != tt.want {
			t.Errorf("clampPow2(%d, %d, %d) = %d, want %d", tt.n, tt.min, tt.max, got, tt.want)
		}
	}
}
