package util

import (
	"testing"
	"time"
)

func TestHashRateFormat(t *testing.T) {
	tests := []struct {
		hashes uint64
		want   string
	}{
		{0, "0.00 h/s"},
		{1, "1.00 h/s"},
		{999, "999.00 h/s"},
		{1_000, "1.00 kh/s"},
		{1_000_000, "1.00 Mh/s"},
		{1_000_000_000, "1.00 Gh/s"},
		{1_000_000_000_000, "1.00 Th/s"},
		// Beyond the largest prefix, stay in Th/s.
		{5_000_000_000_000_000, "5000.00 Th/s"},
	}

	for _, tt := range tests {
		r := HashRate{Hashes: tt.hashes, Elapsed: time.Second}
		if got := r.String(); got != tt.want {
			t.Errorf("HashRate{%d}.String() = %q, want %q", tt.hashes, got, tt.want)
		}
	}
}

func TestHashRateFormatPrecision(t *testing.T) {
	r := HashRate{Hashes: 500_000_000_000, Elapsed: time.Second}
	if got := r.Format(1); got != "500.0 Gh/s" {
		t.Errorf("Format(1) = %q, want %q", got, "500.0 Gh/s")
	}
}

func TestHashRateZeroElapsed(t *testing.T) {
	r := HashRate{Hashes: 1000, Elapsed: 0}
	if got := r.PerSecond(); got != 0 {
		t.Errorf("PerSecond() with zero elapsed = %v, want 0", got)
	}
}

func TestHashRateHalfSecond(t *testing.T) {
	r := HashRate{Hashes: 500, Elapsed: 500 * time.Millisecond}
	if got := r.String(); got != "1.00 kh/s" {
		t.Errorf("String() = %q, want %q", got, "1.00 kh/s")
	}
}
