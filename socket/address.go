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

// Package socket wraps the raw descriptor operations the reactor needs:
// dual-stack addressing, non-blocking/close-on-exec socket creation, and the
// handful of sockopt calls Acceptor/Connector/Connection rely on.
package socket

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/sys/unix"
)

// Address holds a parsed IPv4 or IPv6 endpoint. Unlike net.TCPAddr it keeps
// the family explicit so it can be round-tripped through a raw sockaddr
// without reparsing text, matching the single-sockaddr-storage model of
// the original reactor's InetAddress.
type Address struct {
	ip   net.IP
	port int
	ipv6 bool
}

// NewAddress parses a numeric IP host and a port into an Address; an empty
// host means INADDR_ANY and host names are not resolved. Numeric IPv6 hosts
// may be bracketed or bare; a host written in IPv6 notation, including
// ::ffff:a.b.c.d, is kept as an IPv6 address.
func NewAddress(host string, port int) (Address, error) {
	if host == "" {
		return Address{ip: net.IPv4zero, port: port}, nil
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	ip := net.ParseIP(host)
	if ip == nil {
		return Address{}, fmt.Errorf("socket: invalid ip %q", host)
	}
	return Address{ip: ip, port: port, ipv6: strings.Contains(host, ":")}, nil
}

// FromSockaddr converts a raw syscall sockaddr (as returned by accept4 or
// getpeername) into an Address.
func FromSockaddr(sa unix.Sockaddr) (Address, error) {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return Address{ip: net.IP(a.Addr[:]).To4(), port: a.Port}, nil
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, a.Addr[:])
		return Address{ip: ip, port: a.Port, ipv6: true}, nil
	default:
		return Address{}, fmt.Errorf("socket: unsupported sockaddr %T", sa)
	}
}

// IsIPv4MappedIPv6 reports whether the address is an IPv6 socket carrying an
// IPv4-mapped address (::ffff:a.b.c.d), the case the acceptor collapses back
// to plain IPv4 before handing the peer address to callbacks.
func (a Address) IsIPv4MappedIPv6() bool {
	return a.ipv6 && a.ip.To4() != nil
}

// ToIP returns the address family's canonical net.IP, collapsing an
// IPv4-mapped IPv6 address down to its 4-byte form.
func (a Address) ToIP() net.IP {
	if a.IsIPv4MappedIPv6() {
		return a.ip.To4()
	}
	return a.ip
}

// Port returns the numeric port.
func (a Address) Port() int { return a.port }

// IsIPv6 reports whether the address is a native (non-mapped) IPv6 address.
func (a Address) IsIPv6() bool { return a.ipv6 && !a.IsIPv4MappedIPv6() }

// ToIPPort formats the address as "ip:port", bracketing IPv6.
func (a Address) ToIPPort() string {
	ip := a.ToIP()
	if ip == nil {
		ip = net.IPv4zero
	}
	if a.IsIPv6() {
		return fmt.Sprintf("[%s]:%d", ip, a.port)
	}
	return fmt.Sprintf("%s:%d", ip, a.port)
}

func (a Address) String() string { return a.ToIPPort() }

// Sockaddr builds the raw syscall sockaddr used by bind/connect.
func (a Address) Sockaddr() unix.Sockaddr {
	if a.IsIPv6() {
		s := &unix.SockaddrInet6{Port: a.port}
		copy(s.Addr[:], a.ip.To16())
		return s
	}
	s := &unix.SockaddrInet4{Port: a.port}
	ip := a.ip.To4()
	if ip == nil {
		ip = net.IPv4zero.To4()
	}
	copy(s.Addr[:], ip)
	return s
}

// Family returns AF_INET or AF_INET6, the family New should create a socket
// with to match this address.
func (a Address) Family() int {
	if a.IsIPv6() {
		return unix.AF_INET6
	}
	return unix.AF_INET
}
