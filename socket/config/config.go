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

// Package config holds the viper-friendly structs an application fills in
// (from file, env or flags) to stand up a Listen or Dial endpoint, mirroring
// the shape of the teacher library's socket/config package scoped down to
// the protocols this reactor speaks.
package config

import (
	"fmt"
	"net"
	"time"
)

// Network identifies which address family a Listen/Dial config binds to.
// Unspecified lets the standard resolver pick based on the address string.
type Network string

const (
	NetworkUnspecified Network = ""
	NetworkTCP         Network = "tcp"
	NetworkTCP4        Network = "tcp4"
	NetworkTCP6        Network = "tcp6"
)

func (n Network) String() string { return string(n) }

// Valid reports whether n is one of the known network kinds.
func (n Network) Valid() bool {
	switch n {
	case NetworkUnspecified, NetworkTCP, NetworkTCP4, NetworkTCP6:
		return true
	default:
		return false
	}
}

// Listen configures a TcpServer's listening socket.
type Listen struct {
	Network     Network `mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	Address     string  `mapstructure:"address" json:"address" yaml:"address" toml:"address"`
	Backlog     int     `mapstructure:"backlog" json:"backlog" yaml:"backlog" toml:"backlog"`
	ReusePort   bool    `mapstructure:"reuse_port" json:"reuse_port" yaml:"reuse_port" toml:"reuse_port"`
	NoDelay     bool    `mapstructure:"no_delay" json:"no_delay" yaml:"no_delay" toml:"no_delay"`
	KeepAlive   bool    `mapstructure:"keep_alive" json:"keep_alive" yaml:"keep_alive" toml:"keep_alive"`
	NumIOThread int     `mapstructure:"num_io_thread" json:"num_io_thread" yaml:"num_io_thread" toml:"num_io_thread"`
}

// Validate checks the Listen config is well-formed, resolving Address as
// the same network validates at Dial time would.
func (l Listen) Validate() error {
	if l.Network != NetworkUnspecified && !l.Network.Valid() {
		return fmt.Errorf("config: unknown network %q", l.Network)
	}
	if l.Address == "" {
		return fmt.Errorf("config: empty listen address")
	}
	network := string(l.Network)
	if network == "" {
		network = "tcp"
	}
	if _, err := net.ResolveTCPAddr(network, l.Address); err != nil {
		return fmt.Errorf("config: invalid listen address %q: %w", l.Address, err)
	}
	if l.Backlog < 0 {
		return fmt.Errorf("config: negative backlog %d", l.Backlog)
	}
	if l.NumIOThread < 0 {
		return fmt.Errorf("config: negative num_io_thread %d", l.NumIOThread)
	}
	return nil
}

// BacklogOrDefault returns Backlog, or a sane default listen(2) backlog when
// unset.
func (l Listen) BacklogOrDefault() int {
	if l.Backlog <= 0 {
		return 1024
	}
	return l.Backlog
}

// Dial configures a TcpClient's reconnect behavior.
type Dial struct {
	Network      Network       `mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	Address      string        `mapstructure:"address" json:"address" yaml:"address" toml:"address"`
	NoDelay      bool          `mapstructure:"no_delay" json:"no_delay" yaml:"no_delay" toml:"no_delay"`
	KeepAlive    bool          `mapstructure:"keep_alive" json:"keep_alive" yaml:"keep_alive" toml:"keep_alive"`
	Retry        bool          `mapstructure:"retry" json:"retry" yaml:"retry" toml:"retry"`
	InitialDelay time.Duration `mapstructure:"initial_delay" json:"initial_delay" yaml:"initial_delay" toml:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay" json:"max_delay" yaml:"max_delay" toml:"max_delay"`
}

// Validate checks the Dial config is well-formed.
func (d Dial) Validate() error {
	if d.Network != NetworkUnspecified && !d.Network.Valid() {
		return fmt.Errorf("config: unknown network %q", d.Network)
	}
	if d.Address == "" {
		return fmt.Errorf("config: empty dial address")
	}
	network := string(d.Network)
	if network == "" {
		network = "tcp"
	}
	if _, err := net.ResolveTCPAddr(network, d.Address); err != nil {
		return fmt.Errorf("config: invalid dial address %q: %w", d.Address, err)
	}
	if d.InitialDelay < 0 || d.MaxDelay < 0 {
		return fmt.Errorf("config: negative retry delay")
	}
	return nil
}

// InitialDelayOrDefault returns InitialDelay, or the reactor's documented
// 500ms starting backoff when unset.
func (d Dial) InitialDelayOrDefault() time.Duration {
	if d.InitialDelay <= 0 {
		return 500 * time.Millisecond
	}
	return d.InitialDelay
}

// MaxDelayOrDefault returns MaxDelay, or the reactor's documented 30s
// backoff cap when unset.
func (d Dial) MaxDelayOrDefault() time.Duration {
	if d.MaxDelay <= 0 {
		return 30 * time.Second
	}
	return d.MaxDelay
}
