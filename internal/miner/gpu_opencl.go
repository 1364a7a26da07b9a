//go:build opencl && cgo

package miner

import (
	_ "embed"
	"fmt"
	"time"
	"unsafe"

	"github.com/Gustav-Simonsson/go-opencl/cl"

	"github.com/krist-network/krist-miner/internal/kernel"
	"github.com/krist-network/krist-miner/internal/krist"
	"github.com/krist-network/krist-miner/internal/util"
)

//go:embed sha256.cl
var kernelSource string

const gpuKernelName = "kristMiner"

// enumerateDevices collects the GPU devices of every OpenCL platform.
func enumerateDevices() ([]*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, fmt.Errorf("listing OpenCL platforms: %w", err)
	}

	var devices []*cl.Device
	for _, p := range platforms {
		ds, err := cl.GetDevices(p, cl.DeviceTypeGPU)
		if err != nil {
			continue
		}
		devices = append(devices, ds...)
	}
	return devices, nil
}

func listGPUDevices() ([]GPUDevice, error) {
	devices, err := enumerateDevices()
	if err != nil {
		return nil, err
	}

	out := make([]GPUDevice, len(devices))
	for i, d := range devices {
		out[i] = GPUDevice{Index: i, Name: d.Name()}
	}
	return out, nil
}

// gpuWorker owns one device's queue and buffers for the whole mining run.
type gpuWorker struct {
	cfg gpuWorkerConfig

	context     *cl.Context
	queue       *cl.CommandQueue
	kern        *cl.Kernel
	headerBuf   *cl.MemObject
	solutionBuf *cl.MemObject
}

// newGPUWorker compiles the scoring program for the device and binds its
// buffers. The returned closure runs the dispatch loop.
func newGPUWorker(cfg gpuWorkerConfig) (func(), error) {
	devices, err := enumerateDevices()
	if err != nil {
		return nil, err
	}
	if cfg.device.Index >= len(devices) {
		return nil, fmt.Errorf("device index %d out of range", cfg.device.Index)
	}
	device := devices[cfg.device.Index]

	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("creating context: %w", err)
	}

	queue, err := context.CreateCommandQueue(device, 0)
	if err != nil {
		return nil, fmt.Errorf("creating command queue: %w", err)
	}

	program, err := context.CreateProgramWithSource([]string{kernelSource})
	if err != nil {
		return nil, fmt.Errorf("creating program: %w", err)
	}
	if err := program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		return nil, fmt.Errorf("building program: %w", err)
	}

	kern, err := program.CreateKernel(gpuKernelName)
	if err != nil {
		return nil, fmt.Errorf("creating kernel: %w", err)
	}

	headerBuf, err := context.CreateEmptyBuffer(cl.MemReadOnly, kernel.MessageLength-krist.NonceLength)
	if err != nil {
		return nil, fmt.Errorf("creating header buffer: %w", err)
	}

	solutionBuf, err := context.CreateEmptyBuffer(cl.MemReadWrite, krist.NonceLength)
	if err != nil {
		return nil, fmt.Errorf("creating solution buffer: %w", err)
	}

	w := &gpuWorker{
		cfg:         cfg,
		context:     context,
		queue:       queue,
		kern:        kern,
		headerBuf:   headerBuf,
		solutionBuf: solutionBuf,
	}
	return w.run, nil
}

// run executes dispatch cycles until the mailbox closes or the device
// errors out. A device failure stops only this worker.
func (w *gpuWorker) run() {
	if err := w.mine(); err != nil {
		util.Errorf("GPU worker on %s exited: %v", w.cfg.device.Name, err)
	}
}

func (w *gpuWorker) mine() error {
	target, status := w.cfg.mailbox.Read()
	if status == TargetClosed {
		return nil
	}
	if err := w.setTarget(target); err != nil {
		return err
	}
	if err := w.clearSolution(); err != nil {
		return err
	}
	work := target.Work

	var header [kernel.MessageLength - krist.NonceLength]byte
	copy(header[:krist.AddressLength], w.cfg.address[:])
	hexBlock := target.Block.HexBytes()
	copy(header[krist.AddressLength:], hexBlock[:])

	sizer := newWorkSizer(gpuInitialWorkSize, gpuMinWorkSize, w.cfg.maxWorkSize, w.cfg.targetRate)
	base := w.cfg.offset

	util.Debugf("GPU worker on %s mining from offset %#x", w.cfg.device.Name, base)

	for {
		size := sizer.size
		cycleStart := time.Now()

		if err := w.dispatch(base, work, size); err != nil {
			return err
		}

		nonce, found, err := w.readSolution()
		if err != nil {
			return err
		}
		if found {
			if !w.report(header, nonce, work) {
				return nil
			}
			if err := w.clearSolution(); err != nil {
				return err
			}
		}

		w.cfg.hashes.Add(uint64(size))
		base += uint64(size)
		sizer.update(time.Since(cycleStart))

		switch t, status := w.cfg.mailbox.TryRead(); status {
		case TargetNew:
			if err := w.setTarget(t); err != nil {
				return err
			}
			work = t.Work
			hexBlock = t.Block.HexBytes()
			copy(header[krist.AddressLength:], hexBlock[:])
		case TargetClosed:
			return nil
		}
	}
}

// setTarget uploads the 22-byte header for a new target.
func (w *gpuWorker) setTarget(t krist.Target) error {
	var header [kernel.MessageLength - krist.NonceLength]byte
	copy(header[:krist.AddressLength], w.cfg.address[:])
	hexBlock := t.Block.HexBytes()
	copy(header[krist.AddressLength:], hexBlock[:])

	_, err := w.queue.EnqueueWriteBuffer(w.headerBuf, true, 0, len(header), unsafe.Pointer(&header[0]), nil)
	if err != nil {
		return fmt.Errorf("writing header buffer: %w", err)
	}
	return nil
}

// dispatch enqueues one kernel execution over size work items.
func (w *gpuWorker) dispatch(base, work uint64, size uint32) error {
	if err := w.kern.SetArg(0, w.headerBuf); err != nil {
		return fmt.Errorf("setting header arg: %w", err)
	}
	if err := w.kern.SetArg(1, base); err != nil {
		return fmt.Errorf("setting base arg: %w", err)
	}
	if err := w.kern.SetArg(2, work); err != nil {
		return fmt.Errorf("setting work arg: %w", err)
	}
	if err := w.kern.SetArg(3, w.solutionBuf); err != nil {
		return fmt.Errorf("setting solution arg: %w", err)
	}

	if _, err := w.queue.EnqueueNDRangeKernel(w.kern, nil, []int{int(size)}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}
	return nil
}

// readSolution blocks on the dispatch and reads back the solution buffer.
// An all-zero buffer means no work item found a solution.
func (w *gpuWorker) readSolution() ([krist.NonceLength]byte, bool, error) {
	var nonce [krist.NonceLength]byte
	_, err := w.queue.EnqueueReadBuffer(w.solutionBuf, true, 0, len(nonce), unsafe.Pointer(&nonce[0]), nil)
	if err != nil {
		return nonce, false, fmt.Errorf("reading solution buffer: %w", err)
	}
	if err := w.queue.Finish(); err != nil {
		return nonce, false, fmt.Errorf("awaiting queue: %w", err)
	}

	for _, b := range nonce {
		if b != 0 {
			return nonce, true, nil
		}
	}
	return nonce, false, nil
}

func (w *gpuWorker) clearSolution() error {
	var zero [krist.NonceLength]byte
	_, err := w.queue.EnqueueWriteBuffer(w.solutionBuf, true, 0, len(zero), unsafe.Pointer(&zero[0]), nil)
	if err != nil {
		return fmt.Errorf("clearing solution buffer: %w", err)
	}
	return nil
}

// report validates a device-found nonce against the reference kernel and
// emits it. It reports false when the solution receiver is gone.
func (w *gpuWorker) report(header [kernel.MessageLength - krist.NonceLength]byte, nonce [krist.NonceLength]byte, work uint64) bool {
	var message [kernel.MessageLength]byte
	copy(message[:], header[:])
	copy(message[len(header):], nonce[:])

	if score := kernel.ScoreMessage(message[:]); score > work {
		util.Errorf("GPU device %s reported invalid nonce %q (score %#x > work %#x), dropping",
			w.cfg.device.Name, nonce, score, work)
		return true
	}

	select {
	case w.cfg.solutions <- krist.Solution{Address: w.cfg.address, Nonce: nonce}:
		return true
	case <-w.cfg.quit:
		return false
	}
}
