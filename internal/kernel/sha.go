package kernel

import (
	"github.com/klauspost/cpuid/v2"
	simd "github.com/minio/sha256-simd"
)

// SHA scores through minio/sha256-simd, which dispatches to the x86 SHA
// extensions (sha256rnds2 and friends) on capable CPUs.
type SHA struct{}

// HasSHA reports whether the CPU carries the SHA and SSE4.1 instruction
// sets the accelerated path requires.
func HasSHA() bool {
	return cpuid.CPU.Supports(cpuid.SHA, cpuid.SSE4)
}

// Name implements Kernel.
func (SHA) Name() string { return "sha" }

// Score implements Kernel.
func (SHA) Score(in *Input) uint64 {
	digest := simd.Sum256(in.Message())
	return score48(digest[:])
}
