package kernel

import "fmt"

// Kernel scores mining inputs. All implementations agree bit-for-bit: for
// the same input, Score returns the leading 48 bits of the message's
// SHA-256 digest packed big-endian into the low bits of a uint64.
type Kernel interface {
	// Name identifies the backend ("portable", "sha").
	Name() string

	// Score returns the score of the input's current message.
	Score(in *Input) uint64
}

// score48 packs the first six digest bytes big-endian into a uint64.
func score48(digest []byte) uint64 {
	var s uint64
	for i := 0; i < 6; i++ {
		s |= uint64(digest[i]) << (40 - 8*i)
	}
	return s
}

// Select returns the kernel for the given name. "auto" picks the hardware
// SHA backend when the CPU supports it, falling back to portable.
func Select(name string) (Kernel, error) {
	switch name {
	case "", "auto":
		if HasSHA() {
			return SHA{}, nil
		}
		return Portable{}, nil
	case "portable":
		return Portable{}, nil
	case "sha":
		if !HasSHA() {
			return nil, fmt.Errorf("sha kernel requested but CPU lacks SHA extensions")
		}
		return SHA{}, nil
	default:
		return nil, fmt.Errorf("unknown kernel %q", name)
	}
}
