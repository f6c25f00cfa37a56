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

	"github.com/nabbar/netloop/errors"
	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/loop"
	"github.com/nabbar/netloop/metrics"
	"github.com/nabbar/netloop/socket"
	tcpcfg "github.com/nabbar/netloop/tcp/config"
)

// Server owns an Acceptor on a base loop and a pool of I/O loops that
// accepted connections are distributed across round-robin, per
// spec.md §4.9.
type Server struct {
	base *loop.EventLoop
	pool *loop.ThreadPool
	log  logger.Logger
	cfg  tcpcfg.Server

	acceptor *Acceptor
	metrics  *metrics.Collector

	mu      sync.Mutex
	conns   map[string]*Connection
	nextID  uint64
	started bool

	connCb ConnectionCallback
	msgCb  MessageCallback
}

// NewServer constructs a Server bound to base. cfg.Listen.NumIOThread
// selects the size of the I/O pool; 0 handles everything on base.
func NewServer(base *loop.EventLoop, log logger.Logger, cfg tcpcfg.Server) *Server {
	if log == nil {
		log = logger.Default()
	}
	s := &Server{
		base:  base,
		log:   log,
		cfg:   cfg,
		conns: make(map[string]*Connection),
	}
	s.pool = loop.NewThreadPool(base, cfg.Name, log)
	s.pool.SetThreadNum(cfg.Listen.NumIOThread)
	return s
}

// SetConnectionCallback installs the user hook fired on connect/disconnect
// for every connection this server owns.
func (s *Server) SetConnectionCallback(cb ConnectionCallback) { s.connCb = cb }

// SetMessageCallback installs the user hook fired on data arrival for
// every connection this server owns.
func (s *Server) SetMessageCallback(cb MessageCallback) { s.msgCb = cb }

// SetMetrics installs an optional Collector propagated to every connection
// this server subsequently accepts.
func (s *Server) SetMetrics(m *metrics.Collector) { s.metrics = m }

// Start resolves the listen address, starts the I/O pool, and begins
// accepting. Must be called on the base loop thread.
func (s *Server) Start() error {
	s.base.AssertInLoopThread()
	if s.started {
		return nil
	}
	s.started = true

	addr, err := socket.NewAddress(hostOf(s.cfg.Listen.Address), portOf(s.cfg.Listen.Address))
	if err != nil {
		return errors.Wrap(errors.CodeConfiguration, err, "tcp: server listen address invalid")
	}

	s.acceptor, err = NewAcceptor(s.base, s.log, addr, s.cfg.Listen.ReusePort)
	if err != nil {
		return err
	}
	s.acceptor.SetNewConnCallback(s.newConnection)

	if err := s.pool.Start(nil); err != nil {
		return err
	}
	return s.acceptor.Listen(s.cfg.Listen.BacklogOrDefault())
}

// Addr returns the bound local address. Valid only after Start succeeds.
func (s *Server) Addr() (socket.Address, error) { return s.acceptor.Addr() }

// ConnectionCount returns the number of connections currently tracked.
// Safe from any thread, though the result is only precise when read from
// the base loop.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) newConnection(sock *socket.Socket, peer socket.Address) {
	s.base.AssertInLoopThread()

	s.mu.Lock()
	s.nextID++
	name := fmt.Sprintf("%s-#%d", s.cfg.Name, s.nextID)
	s.mu.Unlock()

	next := s.pool.GetNextLoop()
	conn := NewConnection(name, next, s.log, sock)
	conn.SetHighWaterMark(s.cfg.HighWaterMarkOrDefault())
	conn.SetMetrics(s.metrics)
	conn.SetConnectionCallback(s.connCb)
	conn.SetMessageCallback(s.msgCb)
	conn.setCloseCallback(s.removeConnection)

	s.mu.Lock()
	s.conns[name] = conn
	s.mu.Unlock()

	s.metrics.ConnectionAccepted()
	next.RunInLoop(conn.connectEstablished)
}

// removeConnection runs on the connection's I/O loop (it is the internal
// closeCallback). It posts back to the base loop to erase the map entry,
// then posts connectDestroyed to the I/O loop — the two-hop dance that
// keeps the connection map single-threaded on base.
func (s *Server) removeConnection(conn *Connection) {
	owner := conn.l
	s.base.RunInLoop(func() {
		s.mu.Lock()
		delete(s.conns, conn.name)
		s.mu.Unlock()
		s.metrics.ConnectionClosed()
		owner.QueueInLoop(conn.connectDestroyed)
	})
}

// Stop closes the acceptor and stops the I/O pool. Must be called on the
// base loop thread.
func (s *Server) Stop() error {
	s.base.AssertInLoopThread()
	if s.acceptor != nil {
		_ = s.acceptor.Close()
	}
	return s.pool.Stop()
}

func hostOf(addr string) string {
	h, _, ok := splitHostPort(addr)
	if !ok {
		return ""
	}
	return h
}

func portOf(addr string) int {
	_, p, _ := splitHostPort(addr)
	return p
}
