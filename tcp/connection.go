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

// Package tcp builds Acceptor, Connector, Connection, Server and Client on
// top of loop, channel, buffer and socket — the reactor's TCP surface.
package tcp

import (
	"sync/atomic"

	"github.com/nabbar/netloop/buffer"
	"github.com/nabbar/netloop/channel"
	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/loop"
	"github.com/nabbar/netloop/metrics"
	"github.com/nabbar/netloop/socket"
	"github.com/nabbar/netloop/timer"
)

// State is a Connection's place in its lifecycle. Transitions only ever
// happen on the connection's owning loop thread.
type State int32

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnecting
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ConnectionCallback fires on connectEstablished and once when the
// connection goes down: from the close path, or from connectDestroyed when
// the close path has not run.
type ConnectionCallback func(conn *Connection)

// MessageCallback fires on data arrival; the callback may consume any
// prefix of the input buffer's readable bytes.
type MessageCallback func(conn *Connection, in *buffer.Buffer, receiveTime timer.Timestamp)

// WriteCompleteCallback fires each time the output buffer fully drains.
type WriteCompleteCallback func(conn *Connection)

// HighWaterMarkCallback fires once per upward crossing of the configured
// output-buffer size threshold.
type HighWaterMarkCallback func(conn *Connection, size int)

// Connection owns a connected socket, its channel, and its input/output
// buffers. It is constructed by an Acceptor or Connector callback on the
// I/O loop that will own it and must only be mutated from that thread,
// except where noted.
type Connection struct {
	name string
	l    *loop.EventLoop
	log  logger.Logger

	sock *socket.Socket
	ch   *channel.Channel
	in   *buffer.Buffer
	out  *buffer.Buffer

	state State

	highWaterMark int
	metrics       *metrics.Collector

	connCb  ConnectionCallback
	msgCb   MessageCallback
	wcCb    WriteCompleteCallback
	hwmCb   HighWaterMarkCallback
	closeCb ConnectionCallback // internal: bound by the owning Server/Client
}

// NewConnection wraps an already-connected socket on l. State starts at
// Connecting; the owner must call connectEstablished once registration is
// complete.
func NewConnection(name string, l *loop.EventLoop, log logger.Logger, sock *socket.Socket) *Connection {
	if log == nil {
		log = logger.Default()
	}
	c := &Connection{
		name:          name,
		l:             l,
		log:           log,
		sock:          sock,
		in:            buffer.New(),
		out:           buffer.New(),
		state:         StateConnecting,
		highWaterMark: 64 * 1024 * 1024,
	}
	c.ch = channel.New(l, sock.Fd(), log)
	c.ch.SetReadCallback(c.handleRead)
	c.ch.SetWriteCallback(c.handleWrite)
	c.ch.SetCloseCallback(c.handleClose)
	c.ch.SetErrorCallback(c.handleError)
	return c
}

// Name returns the connection's "{serverName}-#{id}"-style identifier.
func (c *Connection) Name() string { return c.name }

// Fd returns the underlying descriptor.
func (c *Connection) Fd() int { return c.sock.Fd() }

// State returns the current lifecycle state. Safe from any thread.
func (c *Connection) State() State {
	return State(atomic.LoadInt32((*int32)(&c.state)))
}

func (c *Connection) setState(s State) {
	atomic.StoreInt32((*int32)(&c.state), int32(s))
}

// SetHighWaterMark overrides the default 64MiB output-buffer threshold.
// Call before connectEstablished.
func (c *Connection) SetHighWaterMark(n int) { c.highWaterMark = n }

// SetMetrics installs an optional Collector. A nil Collector (the default)
// disables metrics recording for this connection with no extra branching
// at call sites.
func (c *Connection) SetMetrics(m *metrics.Collector) { c.metrics = m }

// SetConnectionCallback installs the user hook fired on connect/disconnect.
func (c *Connection) SetConnectionCallback(cb ConnectionCallback) { c.connCb = cb }

// SetMessageCallback installs the user hook fired on data arrival.
func (c *Connection) SetMessageCallback(cb MessageCallback) { c.msgCb = cb }

// SetWriteCompleteCallback installs the user hook fired when the output
// buffer drains.
func (c *Connection) SetWriteCompleteCallback(cb WriteCompleteCallback) { c.wcCb = cb }

// SetHighWaterMarkCallback installs the user hook fired on an upward
// crossing of the high-water mark.
func (c *Connection) SetHighWaterMarkCallback(cb HighWaterMarkCallback) { c.hwmCb = cb }

// setCloseCallback is internal: the owning Server/Client binds its
// removeConnection hook here, never exposed to application code.
func (c *Connection) setCloseCallback(cb ConnectionCallback) { c.closeCb = cb }

// connectEstablished transitions Connecting -> Connected, enables reading,
// and fires the user connection callback. Loop-thread only.
func (c *Connection) connectEstablished() {
	c.l.AssertInLoopThread()
	if c.State() != StateConnecting {
		c.log.Fatal("tcp: connectEstablished on connection %s in state %s", c.name, c.State())
		return
	}
	c.setState(StateConnected)
	c.ch.EnableReading()
	if c.connCb != nil {
		c.connCb(c)
	}
}

// connectDestroyed transitions to Disconnected, removes the channel from the
// poller, and closes the socket. If the connection was still Connected it
// also disables all interest and fires the user connection callback. This is
// the last operation permitted to touch the channel.
func (c *Connection) connectDestroyed() {
	c.l.AssertInLoopThread()
	if c.State() == StateConnected {
		c.setState(StateDisconnected)
		c.ch.DisableAll()
		if c.connCb != nil {
			c.connCb(c)
		}
	} else {
		c.setState(StateDisconnected)
	}
	c.ch.Remove()
	_ = c.sock.Close()
}

func (c *Connection) handleRead(receiveTime timer.Timestamp) {
	n, err := c.in.ReadFd(c.sock.Fd())
	switch {
	case n > 0:
		c.metrics.BytesRead(n)
		if c.msgCb != nil {
			c.msgCb(c, c.in, receiveTime)
		}
	case n == 0:
		c.handleClose()
	default:
		c.log.Error("tcp: read error on %s: %v", c.name, err)
		c.handleError()
	}
}

func (c *Connection) handleWrite() {
	if !c.ch.IsWriting() {
		return
	}
	n, err := unixWrite(c.sock.Fd(), c.out.Peek())
	if err != nil {
		c.log.Error("tcp: write error on %s: %v", c.name, err)
		return
	}
	if n > 0 {
		c.out.Retrieve(n)
		c.metrics.BytesWritten(n)
	}
	if c.out.ReadableBytes() == 0 {
		c.ch.DisableWriting()
		if c.wcCb != nil {
			c.l.QueueInLoop(func() { c.wcCb(c) })
		}
		if c.State() == StateDisconnecting {
			c.shutdownInLoop()
		}
	}
}

func (c *Connection) handleClose() {
	c.l.AssertInLoopThread()
	if c.State() == StateDisconnected {
		return
	}
	c.setState(StateDisconnected)
	c.ch.DisableAll()
	if c.connCb != nil {
		c.connCb(c)
	}
	if c.closeCb != nil {
		c.closeCb(c)
	}
}

func (c *Connection) handleError() {
	if err := c.sock.Error(); err != nil {
		c.log.Error("tcp: socket error on %s: %v", c.name, err)
	}
}

// Send enqueues data for delivery. Dropped silently if the connection is
// not Connected. May be called from any thread.
func (c *Connection) Send(data []byte) {
	if c.State() != StateConnected {
		return
	}
	if c.l.IsInLoopThread() {
		c.sendInLoop(data)
	} else {
		cp := append([]byte(nil), data...)
		c.l.QueueInLoop(func() { c.sendInLoop(cp) })
	}
}

func (c *Connection) sendInLoop(data []byte) {
	if c.State() != StateConnected {
		return
	}

	var (
		wrote    int
		writeErr error
	)

	if !c.ch.IsWriting() && c.out.ReadableBytes() == 0 {
		wrote, writeErr = unixWrite(c.sock.Fd(), data)
		if writeErr != nil {
			wrote = 0
		}
		c.metrics.BytesWritten(wrote)
		if wrote == len(data) {
			if c.wcCb != nil {
				c.l.QueueInLoop(func() { c.wcCb(c) })
			}
			return
		}
	}

	remaining := data[wrote:]
	if len(remaining) == 0 {
		return
	}

	before := c.out.ReadableBytes()
	c.out.Append(remaining)
	after := c.out.ReadableBytes()

	if before < c.highWaterMark && after >= c.highWaterMark {
		c.metrics.HighWaterMarkHit()
		if c.hwmCb != nil {
			c.l.QueueInLoop(func() { c.hwmCb(c, after) })
		}
	}
	if !c.ch.IsWriting() {
		c.ch.EnableWriting()
	}
}

// Shutdown half-closes the write side once the output buffer drains.
// May be called from any thread.
func (c *Connection) Shutdown() {
	if c.State() != StateConnected {
		return
	}
	c.setState(StateDisconnecting)
	c.l.RunInLoop(c.shutdownInLoop)
}

func (c *Connection) shutdownInLoop() {
	if !c.ch.IsWriting() {
		_ = c.sock.ShutdownWrite()
	}
}

// ForceClose tears the connection down immediately regardless of buffered
// output. May be called from any thread.
func (c *Connection) ForceClose() {
	if c.State() == StateDisconnected {
		return
	}
	c.l.RunInLoop(c.handleClose)
}
