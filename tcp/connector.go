/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package tcp

import (
	"sync/atomic"
	"time"

	"github.com/nabbar/netloop/channel"
	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/loop"
	"github.com/nabbar/netloop/socket"
)

// ConnectorState is the Connector's place in its retry state machine.
type ConnectorState int32

const (
	ConnectorDisconnected ConnectorState = iota
	ConnectorConnecting
	ConnectorConnected
)

const (
	initialRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 30 * time.Second
)

// Connector drives an asynchronous non-blocking connect with exponential
// backoff, per spec.md §4.7.
type Connector struct {
	l    *loop.EventLoop
	log  logger.Logger
	addr socket.Address

	state   int32
	started int32 // 0/1, guards against double start()

	retryDelay time.Duration

	ch   *channel.Channel
	sock *socket.Socket

	newConnCb NewConnCallback
}

// NewConnector prepares (but does not start) a connector targeting addr.
func NewConnector(l *loop.EventLoop, log logger.Logger, addr socket.Address) *Connector {
	if log == nil {
		log = logger.Default()
	}
	return &Connector{l: l, log: log, addr: addr, retryDelay: initialRetryDelay}
}

// SetNewConnCallback installs the hook fired once the connect succeeds.
func (c *Connector) SetNewConnCallback(cb NewConnCallback) { c.newConnCb = cb }

// State returns the connector's current state. Safe from any thread.
func (c *Connector) State() ConnectorState {
	return ConnectorState(atomic.LoadInt32(&c.state))
}

// Start posts the initial connect attempt to the loop. May be called from
// any thread.
func (c *Connector) Start() {
	if !atomic.CompareAndSwapInt32(&c.started, 0, 1) {
		return
	}
	c.retryDelay = initialRetryDelay
	c.l.RunInLoop(c.connect)
}

// Stop halts retries; an attempt already in flight is closed once its
// write-readiness callback next runs.
func (c *Connector) Stop() {
	atomic.StoreInt32(&c.started, 0)
}

// Restart re-arms the connector after its connection has been torn down,
// per spec.md §4.10: "if auto-retry is enabled and the client has not been
// stopped, restarts the connector". Unlike Start, it does not go through
// the double-start guard — started is already 1 from the original Start,
// and a CAS there would silently no-op, exactly like leanet's
// Connector::restart, which resets state and re-arms unconditionally
// rather than routing back through the single-shot start path.
func (c *Connector) Restart() {
	atomic.StoreInt32(&c.started, 1)
	atomic.StoreInt32(&c.state, int32(ConnectorDisconnected))
	c.retryDelay = initialRetryDelay
	c.l.RunInLoop(c.connect)
}

func (c *Connector) connect() {
	if atomic.LoadInt32(&c.started) == 0 {
		return
	}

	sock, err := socket.New(c.addr.Family())
	if err != nil {
		c.log.Error("tcp: connector socket creation failed: %v", err)
		c.retryLater()
		return
	}

	atomic.StoreInt32(&c.state, int32(ConnectorConnecting))

	cerr := sock.Connect(c.addr)
	switch classifyConnectError(cerr) {
	case connectPending:
		c.awaitWritable(sock)
	case connectRetry:
		_ = sock.Close()
		c.retryLater()
	case connectAbandon:
		c.log.Error("tcp: connector abandoning after connect error: %v", cerr)
		_ = sock.Close()
		atomic.StoreInt32(&c.state, int32(ConnectorDisconnected))
	}
}

func (c *Connector) awaitWritable(sock *socket.Socket) {
	c.sock = sock
	c.ch = channel.New(c.l, sock.Fd(), c.log)
	c.ch.SetWriteCallback(c.handleWritable)
	c.ch.SetErrorCallback(c.handleWritable)
	c.ch.EnableWriting()
}

func (c *Connector) handleWritable() {
	ch, sock := c.ch, c.sock
	c.ch, c.sock = nil, nil
	if ch != nil {
		ch.DisableAll()
		ch.Remove()
	}

	if atomic.LoadInt32(&c.started) == 0 {
		if sock != nil {
			_ = sock.Close()
		}
		atomic.StoreInt32(&c.state, int32(ConnectorDisconnected))
		return
	}

	if err := sock.Error(); err != nil {
		_ = sock.Close()
		c.retryLater()
		return
	}

	if isSelfConnect(sock) {
		c.log.Warn("tcp: rejecting self-connect on %s", c.addr)
		_ = sock.Close()
		c.retryLater()
		return
	}

	atomic.StoreInt32(&c.state, int32(ConnectorConnected))
	if c.newConnCb != nil {
		c.newConnCb(sock, c.addr)
	}
}

func (c *Connector) retryLater() {
	atomic.StoreInt32(&c.state, int32(ConnectorDisconnected))
	if atomic.LoadInt32(&c.started) == 0 {
		return
	}
	delay := c.retryDelay
	c.l.RunAfter(delay, func() {
		if atomic.LoadInt32(&c.started) != 0 {
			c.connect()
		}
	})
	c.retryDelay *= 2
	if c.retryDelay > maxRetryDelay {
		c.retryDelay = maxRetryDelay
	}
}

// isSelfConnect detects the simultaneous-open kernel quirk where a
// loopback connect completes into itself: identical local and peer tuple.
func isSelfConnect(sock *socket.Socket) bool {
	local, err := sock.LocalAddr()
	if err != nil {
		return false
	}
	peer, err := sock.PeerAddr()
	if err != nil {
		return false
	}
	return local.ToIPPort() == peer.ToIPPort()
}
