package node

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/krist-network/krist-miner/internal/krist"
	"github.com/krist-network/krist-miner/internal/util"
)

const (
	writeTimeout = 10 * time.Second

	// Reconnect backoff doubles from base to max; after reconnectMaxTries
	// consecutive failures the adapter gives up and closes the target
	// stream.
	reconnectBase     = time.Second
	reconnectMax      = time.Minute
	reconnectMaxTries = 8

	// submitWait bounds how long Submit waits out a reconnect window
	// before reporting failure.
	submitWait = 5 * time.Second
)

// Client is the WebSocket connection to a Krist node. It owns transport,
// wire serialization and reconnection; the engine consumes Targets and
// calls Submit.
type Client struct {
	url     string
	address krist.Address

	targets chan krist.Target
	msgID   atomic.Uint64

	connMu sync.RWMutex
	conn   *websocket.Conn

	writeMu   sync.Mutex
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewClient creates a client for the given gateway URL, mining for address.
func NewClient(url string, address krist.Address) *Client {
	return &Client{
		url:     url,
		address: address,
		targets: make(chan krist.Target, 8),
		quit:    make(chan struct{}),
	}
}

// Start dials the node and begins the read loop. The initial connection
// failure is synchronous; later drops are retried with backoff.
func (c *Client) Start() error {
	if err := c.connect(); err != nil {
		return fmt.Errorf("connecting to %s: %w", c.url, err)
	}

	c.wg.Add(1)
	go c.readLoop()

	return nil
}

// Targets returns the mining target stream. The channel closes when the
// adapter is stopped or gives up reconnecting.
func (c *Client) Targets() <-chan krist.Target {
	return c.targets
}

// Submit sends a solution to the node. It briefly waits out a reconnect
// window before failing.
func (c *Client) Submit(sol krist.Solution) error {
	msg := submitMessage{
		Type:    "submit_block",
		ID:      c.msgID.Add(1),
		Address: sol.Address.String(),
		Nonce:   sol.NonceString(),
	}

	deadline := time.Now().Add(submitWait)
	for {
		if conn := c.currentConn(); conn != nil {
			if err := c.writeJSON(conn, msg); err == nil {
				return nil
			} else if time.Now().After(deadline) {
				return fmt.Errorf("submitting nonce: %w", err)
			}
		} else if time.Now().After(deadline) {
			return fmt.Errorf("submitting nonce: not connected")
		}

		select {
		case <-c.quit:
			return fmt.Errorf("submitting nonce: adapter stopped")
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Stop closes the connection and the target stream.
func (c *Client) Stop() {
	c.closeOnce.Do(func() {
		close(c.quit)
	})
	if conn := c.currentConn(); conn != nil {
		conn.Close()
	}
	c.wg.Wait()
}

func (c *Client) currentConn() *websocket.Conn {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

// connect dials the gateway and subscribes to block events.
func (c *Client) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return err
	}

	sub := subscribeMessage{Type: "subscribe", ID: c.msgID.Add(1), Event: "blocks"}
	if err := c.writeJSON(conn, sub); err != nil {
		conn.Close()
		return fmt.Errorf("subscribing to blocks: %w", err)
	}

	c.setConn(conn)
	util.Infof("Connected to node %s", c.url)
	return nil
}

func (c *Client) writeJSON(conn *websocket.Conn, v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

// readLoop consumes server messages, reconnecting on drops. It closes the
// target stream when stopped or after exhausting reconnect attempts.
func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.targets)

	for {
		conn := c.currentConn()
		if conn == nil {
			return
		}

		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.quit:
				return
			default:
			}

			util.Warnf("Node connection lost: %v", err)
			c.setConn(nil)
			if !c.reconnect() {
				return
			}
			continue
		}

		c.handle(&msg)
	}
}

// reconnect retries the gateway with doubling backoff. It reports false
// when the adapter should give up.
func (c *Client) reconnect() bool {
	delay := reconnectBase
	for attempt := 1; attempt <= reconnectMaxTries; attempt++ {
		select {
		case <-c.quit:
			return false
		case <-time.After(delay):
		}

		if err := c.connect(); err != nil {
			util.Warnf("Reconnect attempt %d/%d failed: %v", attempt, reconnectMaxTries, err)
			delay *= 2
			if delay > reconnectMax {
				delay = reconnectMax
			}
			continue
		}
		return true
	}

	util.Error("Giving up on node connection")
	return false
}

func (c *Client) handle(msg *serverMessage) {
	switch msg.Type {
	case "hello":
		// Initial state: current work and the latest block.
		c.emitTarget(msg.Work, msg.LastBlock)

	case "event":
		if msg.Event != "block" {
			util.Debugf("Ignoring event %q", msg.Event)
			return
		}
		work := msg.NewWork
		if work == 0 {
			work = msg.Work
		}
		c.emitTarget(work, msg.Block)

	case "keepalive":

	case "response":
		if msg.OK != nil && !*msg.OK {
			util.Warnf("Node rejected message %d: %s", msg.ID, msg.Error)
		}

	default:
		util.Debugf("Ignoring message type %q", msg.Type)
	}
}

// emitTarget converts a wire block into a target and pushes it to the
// engine.
func (c *Client) emitTarget(work uint64, block *blockMessage) {
	if block == nil || work == 0 {
		return
	}

	short, err := krist.ParseShortHash(block.ShortHash)
	if err != nil {
		util.Warnf("Dropping target with bad short hash %q: %v", block.ShortHash, err)
		return
	}

	target := krist.Target{
		Block:  short,
		Work:   work,
		IsSelf: block.Address == c.address.String(),
		Value:  block.Value,
	}

	select {
	case c.targets <- target:
	case <-c.quit:
	}
}
