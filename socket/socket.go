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

package socket

import (
	"golang.org/x/sys/unix"
)

// Socket owns a single file descriptor created with SOCK_NONBLOCK and
// SOCK_CLOEXEC (or the fcntl fallback when the platform lacks the one-shot
// flags), matching spec's descriptor interface.
type Socket struct {
	fd int
}

// New creates a TCP socket in the given address family, non-blocking and
// close-on-exec from the moment it is returned.
func New(family int) (*Socket, error) {
	fd, err := newStreamSocket(family)
	if err != nil {
		return nil, err
	}
	return &Socket{fd: fd}, nil
}

// FromFd wraps an already-open descriptor (e.g. one returned by Accept4)
// without creating a new one.
func FromFd(fd int) *Socket { return &Socket{fd: fd} }

// Fd returns the underlying descriptor.
func (s *Socket) Fd() int { return s.fd }

// SetReuseAddr sets SO_REUSEADDR, required on a listening socket before
// Bind so a restarted server can rebind a port still in TIME_WAIT.
func (s *Socket) SetReuseAddr(on bool) error {
	return unix.SetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, boolToInt(on))
}

// SetReusePort sets SO_REUSEPORT, letting several accept loops share one
// listening port via kernel-side load balancing.
func (s *Socket) SetReusePort(on bool) error {
	return unix.SetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, boolToInt(on))
}

// SetTcpNoDelay disables Nagle's algorithm, matching the reactor's
// assumption that application framing, not the kernel, governs when bytes
// go out.
func (s *Socket) SetTcpNoDelay(on bool) error {
	return unix.SetsockoptInt(s.fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, boolToInt(on))
}

// SetKeepAlive enables SO_KEEPALIVE on a connected socket.
func (s *Socket) SetKeepAlive(on bool) error {
	return unix.SetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, boolToInt(on))
}

// Bind binds the socket to addr.
func (s *Socket) Bind(addr Address) error {
	return unix.Bind(s.fd, addr.Sockaddr())
}

// Listen marks the socket as a listening socket with the given backlog.
func (s *Socket) Listen(backlog int) error {
	return unix.Listen(s.fd, backlog)
}

// Accept accepts a pending connection, returning a non-blocking,
// close-on-exec client socket and its peer address. It uses accept4 when
// available and falls back to accept+fcntl otherwise.
func (s *Socket) Accept() (*Socket, Address, error) {
	fd, sa, err := acceptConn(s.fd)
	if err != nil {
		return nil, Address{}, err
	}
	addr, aerr := FromSockaddr(sa)
	if aerr != nil {
		_ = unix.Close(fd)
		return nil, Address{}, aerr
	}
	return &Socket{fd: fd}, addr, nil
}

// Connect begins a non-blocking connect. A nil error means the connect
// completed synchronously (rare, but possible for local addresses);
// unix.EINPROGRESS means the caller must wait for write-readiness and then
// consult Error.
func (s *Socket) Connect(addr Address) error {
	return unix.Connect(s.fd, addr.Sockaddr())
}

// ShutdownWrite half-closes the write side, sending FIN while the read side
// stays open — used for the graceful active-close half of Connection.
func (s *Socket) ShutdownWrite() error {
	return unix.Shutdown(s.fd, unix.SHUT_WR)
}

// Error reads and clears SO_ERROR, the standard way to discover whether a
// non-blocking connect completed successfully once the socket is writable.
func (s *Socket) Error() error {
	errno, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

// LocalAddr returns the address the socket is bound to.
func (s *Socket) LocalAddr() (Address, error) {
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return Address{}, err
	}
	return FromSockaddr(sa)
}

// PeerAddr returns the address of the connected peer.
func (s *Socket) PeerAddr() (Address, error) {
	sa, err := unix.Getpeername(s.fd)
	if err != nil {
		return Address{}, err
	}
	return FromSockaddr(sa)
}

// Close closes the descriptor.
func (s *Socket) Close() error { return unix.Close(s.fd) }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
