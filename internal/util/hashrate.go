package util

import (
	"fmt"
	"time"
)

var siPrefixes = []string{"", "k", "M", "G", "T"}

// HashRate is a count of hashes over a wall-clock interval, printable in a
// human-readable SI form.
type HashRate struct {
	Hashes  uint64
	Elapsed time.Duration
}

// PerSecond returns the raw rate in hashes per second.
func (r HashRate) PerSecond() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Hashes) / secs
}

// Format renders the rate with the largest SI prefix keeping the value >= 1,
// with the given number of decimal places.
func (r HashRate) Format(precision int) string {
	value := r.PerSecond()

	mag := 0
	for value >= 1000 && mag < len(siPrefixes)-1 {
		value /= 1000
		mag++
	}

	return fmt.Sprintf("%.*f %sh/s", precision, value, siPrefixes[mag])
}

// String formats the rate with the default precision of 2.
func (r HashRate) String() string {
	return r.Format(2)
}
