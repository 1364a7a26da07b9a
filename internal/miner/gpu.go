package miner

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/krist-network/krist-miner/internal/krist"
)

// GPUDevice describes an enumerated compute device.
type GPUDevice struct {
	Index int
	Name  string
}

// errGPUUnavailable is returned when the binary was built without OpenCL
// support.
var errGPUUnavailable = errors.New("opencl support not compiled in (build with -tags opencl)")

// Initial and minimum global work sizes for GPU dispatches.
const (
	gpuInitialWorkSize = 64
	gpuMinWorkSize     = 64
)

type gpuWorkerConfig struct {
	device      GPUDevice
	address     krist.Address
	offset      uint64
	mailbox     *Mailbox
	solutions   chan<- krist.Solution
	quit        <-chan struct{}
	hashes      *atomic.Uint64
	targetRate  time.Duration
	maxWorkSize uint32
}
