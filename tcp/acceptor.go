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
	"golang.org/x/sys/unix"

	"github.com/nabbar/netloop/channel"
	"github.com/nabbar/netloop/errors"
	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/loop"
	"github.com/nabbar/netloop/socket"
	"github.com/nabbar/netloop/timer"
)

// NewConnCallback fires once per accepted connection with the non-blocking
// client socket and its peer address. If unset, the descriptor is closed
// immediately.
type NewConnCallback func(sock *socket.Socket, peer socket.Address)

// Acceptor owns a non-blocking listening socket and reports new connections
// on the loop that constructed it.
type Acceptor struct {
	l    *loop.EventLoop
	log  logger.Logger
	sock *socket.Socket
	ch   *channel.Channel

	listening bool
	idleFd    int

	newConnCb NewConnCallback
}

// NewAcceptor binds and prepares (but does not yet Listen on) a socket for
// addr, with SO_REUSEADDR set per spec.md §4.6.
func NewAcceptor(l *loop.EventLoop, log logger.Logger, addr socket.Address, reusePort bool) (*Acceptor, error) {
	if log == nil {
		log = logger.Default()
	}
	sock, err := socket.New(addr.Family())
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfiguration, err, "tcp: acceptor socket creation failed")
	}
	if err := sock.SetReuseAddr(true); err != nil {
		_ = sock.Close()
		return nil, errors.Wrap(errors.CodeConfiguration, err, "tcp: acceptor SO_REUSEADDR failed")
	}
	if reusePort {
		if err := sock.SetReusePort(true); err != nil {
			_ = sock.Close()
			return nil, errors.Wrap(errors.CodeConfiguration, err, "tcp: acceptor SO_REUSEPORT failed")
		}
	}
	if err := sock.Bind(addr); err != nil {
		_ = sock.Close()
		return nil, errors.Wrap(errors.CodeConfiguration, err, "tcp: acceptor bind failed on "+addr.String())
	}

	idleFd, _ := unix.Open("/dev/null", unix.O_RDONLY|unix.O_CLOEXEC, 0)

	a := &Acceptor{l: l, log: log, sock: sock, idleFd: idleFd}
	a.ch = channel.New(l, sock.Fd(), log)
	a.ch.SetReadCallback(a.handleRead)
	return a, nil
}

// SetNewConnCallback installs the hook fired per accepted connection.
func (a *Acceptor) SetNewConnCallback(cb NewConnCallback) { a.newConnCb = cb }

// Listen starts listening with the given backlog and enables read
// readiness on the loop thread.
func (a *Acceptor) Listen(backlog int) error {
	a.l.AssertInLoopThread()
	if err := a.sock.Listen(backlog); err != nil {
		return errors.Wrap(errors.CodeConfiguration, err, "tcp: acceptor listen failed")
	}
	a.listening = true
	a.ch.EnableReading()
	return nil
}

// Addr returns the bound local address.
func (a *Acceptor) Addr() (socket.Address, error) { return a.sock.LocalAddr() }

func (a *Acceptor) handleRead(timer.Timestamp) {
	client, peer, err := a.sock.Accept()
	if err != nil {
		if err == unix.EMFILE {
			a.drainOneWithIdleFd()
			return
		}
		if isTransientAcceptError(err) {
			a.log.Warn("tcp: transient accept error: %v", err)
			return
		}
		a.log.Fatal("tcp: fatal accept error: %v", err)
		return
	}

	if a.newConnCb != nil {
		a.newConnCb(client, peer)
	} else {
		_ = client.Close()
	}
}

// drainOneWithIdleFd implements spec.md §4.6's optional EMFILE mitigation:
// close a held-open idle descriptor, accept (and immediately drop) the one
// pending connection it frees capacity for, then reopen the idle fd.
func (a *Acceptor) drainOneWithIdleFd() {
	if a.idleFd < 0 {
		a.log.Warn("tcp: accept EMFILE with no idle fd to drain")
		return
	}
	_ = unix.Close(a.idleFd)
	if client, _, err := a.sock.Accept(); err == nil {
		_ = client.Close()
	}
	a.idleFd, _ = unix.Open("/dev/null", unix.O_RDONLY|unix.O_CLOEXEC, 0)
}

// Close stops listening and releases the acceptor's descriptors.
func (a *Acceptor) Close() error {
	a.ch.DisableAll()
	a.ch.Remove()
	if a.idleFd >= 0 {
		_ = unix.Close(a.idleFd)
	}
	return a.sock.Close()
}
