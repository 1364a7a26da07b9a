package miner

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/krist-network/krist-miner/internal/kernel"
	"github.com/krist-network/krist-miner/internal/krist"
	"github.com/krist-network/krist-miner/internal/util"
)

// Config is the engine's worker-set configuration.
type Config struct {
	Address krist.Address

	CPUEnabled bool
	CPUThreads int    // 0 = auto
	CPUKernel  string // "auto", "portable" or "sha"

	GPUEnabled     bool
	GPUDevices     []int // empty = all
	GPUTargetRate  time.Duration
	GPUMaxWorkSize uint32
}

// Stats is a point-in-time snapshot of the engine for reporting.
type Stats struct {
	Address     string  `json:"address"`
	UptimeSecs  float64 `json:"uptime_seconds"`
	Hashrate    float64 `json:"hashrate"`
	HashrateStr string  `json:"hashrate_pretty"`
	CPUWorkers  int     `json:"cpu_workers"`
	GPUWorkers  int     `json:"gpu_workers"`
	Kernel      string  `json:"kernel"`
	Submitted   uint64  `json:"solutions_submitted"`
	BlocksMined uint64  `json:"blocks_mined"`
	MinedValue  uint64  `json:"mined_value"`
}

// Engine owns the full worker set and the coordinator.
type Engine struct {
	cfg   Config
	node  NodeClient
	coord *Coordinator

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	done     chan error

	hashes atomic.Uint64

	cpuWorkers int
	gpuWorkers int
	kernelName string
	started    time.Time
}

// New creates an engine mining for cfg.Address against the given node.
func New(cfg Config, node NodeClient) *Engine {
	e := &Engine{
		cfg:  cfg,
		node: node,
		quit: make(chan struct{}),
		done: make(chan error, 1),
	}
	e.coord = newCoordinator(node, e.quit, &e.hashes)
	return e
}

// OnBlockMined registers a callback for blocks attributed to our address.
// Must be called before Start.
func (e *Engine) OnBlockMined(fn func(krist.Target)) {
	e.coord.onBlockMined = fn
}

// Start plans the worker set, spawns the workers and the coordinator, and
// returns once mining is underway. Configuration problems (unknown kernel,
// unknown device selector, no usable backend) surface here.
func (e *Engine) Start() error {
	var kern kernel.Kernel
	cpuCount := 0
	if e.cfg.CPUEnabled {
		k, err := kernel.Select(e.cfg.CPUKernel)
		if err != nil {
			return err
		}
		kern = k
		e.kernelName = k.Name()

		cpuCount = e.cfg.CPUThreads
		if cpuCount <= 0 {
			cpuCount = defaultCPUThreads()
		}
	}

	devices, err := e.planGPUDevices()
	if err != nil {
		return err
	}

	total := cpuCount + len(devices)
	if total == 0 {
		return errors.New("no miners available")
	}

	// Random base plus even division keeps the workers' nonce tracks apart
	// even across restarts.
	base := randomUint64()
	step := uint64(math.MaxUint64) / uint64(total)
	next := 0
	offset := func() uint64 {
		o := base + uint64(next)*step
		next++
		return o
	}

	for i := 0; i < cpuCount; i++ {
		w := &cpuWorker{
			id:        i,
			address:   e.cfg.Address,
			kern:      kern,
			offset:    offset(),
			mailbox:   e.coord.addMailbox(),
			solutions: e.coord.solutions,
			quit:      e.quit,
			hashes:    &e.hashes,
		}
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			w.run()
		}()
		e.cpuWorkers++
	}

	for _, dev := range devices {
		run, err := newGPUWorker(gpuWorkerConfig{
			device:      dev,
			address:     e.cfg.Address,
			offset:      offset(),
			mailbox:     e.coord.addMailbox(),
			solutions:   e.coord.solutions,
			quit:        e.quit,
			hashes:      &e.hashes,
			targetRate:  e.cfg.GPUTargetRate,
			maxWorkSize: e.cfg.GPUMaxWorkSize,
		})
		if err != nil {
			util.Errorf("GPU device %d (%s) init failed: %v", dev.Index, dev.Name, err)
			continue
		}
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			run()
		}()
		e.gpuWorkers++
	}

	if e.cpuWorkers+e.gpuWorkers == 0 {
		return errors.New("no miners available")
	}

	e.started = time.Now()

	util.Infof("Mining for %s with %d CPU worker(s) and %d GPU worker(s)",
		e.cfg.Address, e.cpuWorkers, e.gpuWorkers)

	go func() {
		e.done <- e.coord.run()
	}()

	return nil
}

// planGPUDevices resolves the configured device selectors against the
// enumerated adapters. Backend-level unavailability is non-fatal; an
// unknown selector is a configuration error.
func (e *Engine) planGPUDevices() ([]GPUDevice, error) {
	if !e.cfg.GPUEnabled {
		return nil, nil
	}

	devices, err := listGPUDevices()
	if err != nil {
		util.Warnf("GPU backend unavailable: %v", err)
		return nil, nil
	}

	if len(e.cfg.GPUDevices) == 0 {
		return devices, nil
	}

	byIndex := make(map[int]GPUDevice, len(devices))
	for _, d := range devices {
		byIndex[d.Index] = d
	}

	var selected []GPUDevice
	for _, idx := range e.cfg.GPUDevices {
		d, ok := byIndex[idx]
		if !ok {
			return nil, fmt.Errorf("unknown GPU device selector %d", idx)
		}
		selected = append(selected, d)
	}
	return selected, nil
}

// Done reports the coordinator's exit. A nil error means a clean stop or a
// closed node stream; anything else is a coordinator failure.
func (e *Engine) Done() <-chan error {
	return e.done
}

// Stop closes every target mailbox and joins all workers.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.quit)
	})
	e.wg.Wait()
}

// Snapshot assembles current engine statistics.
func (e *Engine) Snapshot() Stats {
	rate := e.coord.Rate()
	return Stats{
		Address:     e.cfg.Address.String(),
		UptimeSecs:  time.Since(e.started).Seconds(),
		Hashrate:    rate.PerSecond(),
		HashrateStr: rate.String(),
		CPUWorkers:  e.cpuWorkers,
		GPUWorkers:  e.gpuWorkers,
		Kernel:      e.kernelName,
		Submitted:   e.coord.submitted.Load(),
		BlocksMined: e.coord.blocksMined.Load(),
		MinedValue:  e.coord.minedValue.Load(),
	}
}

// defaultCPUThreads picks the CPU worker count: all logical threads, except
// on SMT parts where full saturation starves the rest of the system, where
// it is max(threads-2, physical cores).
func defaultCPUThreads() int {
	logical := runtime.NumCPU()

	physical, err := cpu.Counts(false)
	if err != nil || physical <= 0 {
		return logical
	}

	if logical > physical {
		n := logical - 2
		if n < physical {
			n = physical
		}
		return n
	}
	return logical
}

func randomUint64() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// Fall back to a fixed-point offset; worker spacing still applies.
		return 0x9e3779b97f4a7c15
	}
	return binary.LittleEndian.Uint64(b[:])
}
