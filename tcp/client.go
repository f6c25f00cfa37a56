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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nabbar/netloop/errors"
	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/loop"
	"github.com/nabbar/netloop/metrics"
	"github.com/nabbar/netloop/socket"
	tcpcfg "github.com/nabbar/netloop/tcp/config"
)

// Client owns a Connector and at most one active Connection, guarded by a
// mutex because Connection() may be called from any thread, per
// spec.md §4.10.
type Client struct {
	l   *loop.EventLoop
	log logger.Logger
	cfg tcpcfg.Client

	connector *Connector
	metrics   *metrics.Collector

	mu      sync.Mutex
	conn    *Connection
	stopped int32
	nextID  uint64

	connCb ConnectionCallback
	msgCb  MessageCallback
}

// NewClient constructs a Client bound to l, targeting the address in cfg.
func NewClient(l *loop.EventLoop, log logger.Logger, cfg tcpcfg.Client) (*Client, error) {
	if log == nil {
		log = logger.Default()
	}
	host, port, ok := splitHostPort(cfg.Dial.Address)
	if !ok {
		return nil, errors.New(errors.CodeConfiguration, "tcp: invalid client address "+cfg.Dial.Address)
	}
	addr, err := socket.NewAddress(host, port)
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfiguration, err, "tcp: client dial address invalid")
	}

	c := &Client{l: l, log: log, cfg: cfg}
	c.connector = NewConnector(l, log, addr)
	c.connector.SetNewConnCallback(c.newConnection)
	return c, nil
}

// SetConnectionCallback installs the user hook fired on connect/disconnect.
func (c *Client) SetConnectionCallback(cb ConnectionCallback) { c.connCb = cb }

// SetMessageCallback installs the user hook fired on data arrival.
func (c *Client) SetMessageCallback(cb MessageCallback) { c.msgCb = cb }

// SetMetrics installs an optional Collector propagated to the connection
// this client subsequently dials.
func (c *Client) SetMetrics(m *metrics.Collector) { c.metrics = m }

// Connect starts the connector. May be called from any thread.
func (c *Client) Connect() {
	atomic.StoreInt32(&c.stopped, 0)
	c.connector.Start()
}

// Disconnect force-closes the active connection, if any, without
// preventing a future reconnect. May be called from any thread.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.ForceClose()
	}
}

// Stop disconnects and disables auto-reconnect. May be called from any
// thread.
func (c *Client) Stop() {
	atomic.StoreInt32(&c.stopped, 1)
	c.connector.Stop()
	c.Disconnect()
}

// Connection returns the active connection, or nil if not currently
// connected. Safe from any thread.
func (c *Client) Connection() *Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *Client) newConnection(sock *socket.Socket, _ socket.Address) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.mu.Unlock()

	name := fmt.Sprintf("%s-#%d", c.cfg.Name, id)
	conn := NewConnection(name, c.l, c.log, sock)
	conn.SetHighWaterMark(c.cfg.HighWaterMarkOrDefault())
	conn.SetMetrics(c.metrics)
	conn.SetConnectionCallback(c.connCb)
	conn.SetMessageCallback(c.msgCb)
	conn.setCloseCallback(c.removeConnection)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.metrics.ConnectionAccepted()
	c.l.RunInLoop(conn.connectEstablished)
}

func (c *Client) removeConnection(conn *Connection) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()

	c.metrics.ConnectionClosed()
	c.l.QueueInLoop(conn.connectDestroyed)

	if c.cfg.Dial.Retry && atomic.LoadInt32(&c.stopped) == 0 {
		c.connector.Restart()
	}
}
