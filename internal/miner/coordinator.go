package miner

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krist-network/krist-miner/internal/krist"
	"github.com/krist-network/krist-miner/internal/util"
)

// NodeClient is the coordinator's view of the node connection. The adapter
// owns transport, serialization and reconnection; the coordinator only sees
// a target stream and a submission call.
type NodeClient interface {
	// Targets emits mining targets. The channel closes when the adapter
	// gives up or is stopped.
	Targets() <-chan krist.Target

	// Submit sends a solution to the node.
	Submit(sol krist.Solution) error
}

// rateTick is how often the coordinator swaps the hash counter and
// publishes a rate.
const rateTick = time.Second

// Coordinator fans targets out to worker mailboxes and solutions in from
// the shared solution channel.
type Coordinator struct {
	node      NodeClient
	mailboxes []*Mailbox
	solutions chan krist.Solution
	quit      chan struct{}
	hashes    *atomic.Uint64

	wideWorkSeen bool

	submitted   atomic.Uint64
	blocksMined atomic.Uint64
	minedValue  atomic.Uint64

	rateMu sync.RWMutex
	rate   util.HashRate

	// onBlockMined, when set, fires for each target whose preceding block
	// was attributed to the mining address.
	onBlockMined func(krist.Target)
}

func newCoordinator(node NodeClient, quit chan struct{}, hashes *atomic.Uint64) *Coordinator {
	return &Coordinator{
		node:      node,
		solutions: make(chan krist.Solution, 16),
		quit:      quit,
		hashes:    hashes,
	}
}

// addMailbox registers a worker's target mailbox and returns it.
func (c *Coordinator) addMailbox() *Mailbox {
	mb := NewMailbox()
	c.mailboxes = append(c.mailboxes, mb)
	return mb
}

// run is the coordinator main loop. It returns when the node target stream
// closes, a submission fails, or the quit channel closes; mailboxes are
// closed on every exit path so workers drain within one batch.
func (c *Coordinator) run() error {
	defer c.closeMailboxes()

	ticker := time.NewTicker(rateTick)
	defer ticker.Stop()

	last := time.Now()

	for {
		select {
		case sol := <-c.solutions:
			util.Infof("Submitting solution with nonce %q", sol.NonceString())
			if err := c.node.Submit(sol); err != nil {
				return fmt.Errorf("forwarding solution: %w", err)
			}
			c.submitted.Add(1)

		case t, ok := <-c.node.Targets():
			if !ok {
				util.Info("Node target stream closed")
				return nil
			}
			c.broadcast(t)

		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			rate := util.HashRate{Hashes: c.hashes.Swap(0), Elapsed: elapsed}
			c.rateMu.Lock()
			c.rate = rate
			c.rateMu.Unlock()
			util.Debugf("Mining at %s", rate)

		case <-c.quit:
			return nil
		}
	}
}

// broadcast posts a target to every worker mailbox and accounts for blocks
// mined by our own address.
func (c *Coordinator) broadcast(t krist.Target) {
	if t.IsSelf {
		c.blocksMined.Add(1)
		c.minedValue.Add(t.Value)
		util.Infof("Block %s attributed to us (value %d)", t.Block, t.Value)
		if c.onBlockMined != nil {
			c.onBlockMined(t)
		}
	}

	// Krist work stays far below 32 bits in practice; a wider value means
	// a protocol change that narrow-compare vector backends would miss.
	if t.Work > math.MaxUint32 && !c.wideWorkSeen {
		c.wideWorkSeen = true
		util.Warnf("Received work %d exceeds 32 bits, outside expected protocol bounds", t.Work)
	}

	util.Debugf("New target: block %s work %d", t.Block, t.Work)
	for _, mb := range c.mailboxes {
		mb.Post(t)
	}
}

func (c *Coordinator) closeMailboxes() {
	for _, mb := range c.mailboxes {
		mb.Close()
	}
}

// Rate returns the most recently published hash rate.
func (c *Coordinator) Rate() util.HashRate {
	c.rateMu.RLock()
	defer c.rateMu.RUnlock()
	return c.rate
}
