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

// Package poller implements the reactor's I/O demultiplexer behind a single
// abstract contract, with two concrete backends: a poll(2)-based backend
// built on POSIX platforms other than Linux, and an epoll backend built and
// selected on Linux.
package poller

import (
	"github.com/nabbar/netloop/channel"
	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/timer"
)

// OwnerLoop is the subset of the owning EventLoop a Poller needs.
type OwnerLoop interface {
	AssertInLoopThread()
}

// Poller is the abstract I/O multiplexer contract: register or deregister a
// Channel's interest mask, and wait for readiness.
type Poller interface {
	// Poll blocks up to timeoutMs (or indefinitely if negative) and appends
	// every channel with pending events onto active, returning the wall
	// clock time of the call's return.
	Poll(timeoutMs int, active *[]*channel.Channel) (timer.Timestamp, error)

	// UpdateChannel registers c's current interest mask, adding, modifying,
	// or removing the kernel registration as needed. Idempotent on a mask
	// that hasn't changed since the last call.
	UpdateChannel(c *channel.Channel)

	// RemoveChannel deregisters c. c.IsNoneEvent() must be true.
	RemoveChannel(c *channel.Channel)

	// Close releases any OS resources held by the backend (e.g. the epoll
	// descriptor).
	Close() error
}

// New returns the default backend for the running platform: epoll on Linux,
// poll(2) elsewhere. Aborts via log.Fatal if backend construction fails, matching the
// teacher's LOG_SYSFATAL-on-construction convention for a resource the
// reactor cannot run without.
func New(loop OwnerLoop, log logger.Logger) Poller {
	return newDefault(loop, log)
}
