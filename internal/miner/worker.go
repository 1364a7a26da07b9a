package miner

import (
	"sync/atomic"

	"github.com/krist-network/krist-miner/internal/kernel"
	"github.com/krist-network/krist-miner/internal/krist"
	"github.com/krist-network/krist-miner/internal/util"
)

// cpuBatchSize is the number of iterations a CPU worker runs between
// target re-reads and hash-count updates.
const cpuBatchSize = 10_000

// cpuWorker drives one scalar kernel on one OS thread.
type cpuWorker struct {
	id        int
	address   krist.Address
	kern      kernel.Kernel
	offset    uint64
	mailbox   *Mailbox
	solutions chan<- krist.Solution
	quit      <-chan struct{}
	hashes    *atomic.Uint64
}

// run mines until the mailbox closes or the solution receiver goes away.
func (w *cpuWorker) run() {
	in := kernel.NewInput(w.address, w.offset)

	target, status := w.mailbox.Read()
	if status == TargetClosed {
		return
	}
	in.SetBlock(target.Block.HexBytes())
	work := target.Work

	util.Debugf("cpu worker %d mining with %s kernel from offset %#x", w.id, w.kern.Name(), w.offset)

	for {
		for i := 0; i < cpuBatchSize; i++ {
			if w.kern.Score(in) <= work {
				if !w.emit(krist.Solution{Address: w.address, Nonce: in.Nonce()}) {
					return
				}
			}
			in.Advance()
		}
		w.hashes.Add(cpuBatchSize)

		switch t, status := w.mailbox.TryRead(); status {
		case TargetNew:
			in.SetBlock(t.Block.HexBytes())
			work = t.Work
		case TargetClosed:
			return
		}
	}
}

// emit delivers a solution, blocking if the channel is momentarily full.
// It reports false when the receiver is gone.
func (w *cpuWorker) emit(sol krist.Solution) bool {
	select {
	case w.solutions <- sol:
		return true
	case <-w.quit:
		return false
	}
}
