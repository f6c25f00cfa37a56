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

// Package channel implements the selectable I/O channel the reactor binds to
// every polled file descriptor: a socket, an eventfd wakeup pipe, or a
// timerfd. A Channel does not own its descriptor; it only tracks the
// interest mask and dispatches the callbacks the poller's return triggers.
package channel

import (
	"golang.org/x/sys/unix"

	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/timer"
)

const (
	noneEvent  = 0
	readEvent  = unix.POLLIN | unix.POLLPRI
	writeEvent = unix.POLLOUT
)

// EventLoop is the subset of the owning loop a Channel needs: thread-affinity
// assertion and re-registration with the poller. Defined here, not imported
// from the loop package, so the two packages can reference each other's
// concrete types without a cyclic import — the loop package implements this
// interface on its EventLoop type.
type EventLoop interface {
	UpdateChannel(c *Channel)
	RemoveChannel(c *Channel)
	AssertInLoopThread()
}

// EventCallback is a callback invoked with no data, used for close and error
// notifications.
type EventCallback func()

// ReadEventCallback is invoked on readable/urgent readiness, carrying the
// poll return time.
type ReadEventCallback func(receiveTime timer.Timestamp)

// Channel binds one descriptor to its read/write/close/error callbacks and
// to the interest mask the owning loop registers with the poller.
type Channel struct {
	loop EventLoop
	fd   int
	log  logger.Logger

	interested int
	received   int
	index      int // poller-private slot, -1 when not yet registered

	readCallback  ReadEventCallback
	writeCallback EventCallback
	closeCallback EventCallback
	errorCallback EventCallback

	handling bool
}

// New returns a Channel for fd on loop. The channel starts with an empty
// interest mask; the caller must call EnableReading/EnableWriting to make it
// eligible for poll events.
func New(loop EventLoop, fd int, log logger.Logger) *Channel {
	if log == nil {
		log = logger.Default()
	}
	return &Channel{
		loop:  loop,
		fd:    fd,
		log:   log,
		index: -1,
	}
}

// Fd returns the underlying descriptor.
func (c *Channel) Fd() int { return c.fd }

// InterestedEvents returns the mask currently registered with the poller.
func (c *Channel) InterestedEvents() int { return c.interested }

// SetReceivedEvents is called by the poller backend after a wait returns,
// recording which bits fired for this descriptor.
func (c *Channel) SetReceivedEvents(revents int) { c.received = revents }

// Index returns the poller-private slot used for O(1) bookkeeping.
func (c *Channel) Index() int { return c.index }

// SetIndex stores the poller-private slot.
func (c *Channel) SetIndex(idx int) { c.index = idx }

// IsNoneEvent reports whether the interest mask is currently empty.
func (c *Channel) IsNoneEvent() bool { return c.interested == noneEvent }

// IsWriting reports whether the write bit is set in the interest mask.
func (c *Channel) IsWriting() bool { return c.interested&writeEvent != 0 }

// SetReadCallback installs the callback fired on POLLIN|POLLPRI.
func (c *Channel) SetReadCallback(cb ReadEventCallback) { c.readCallback = cb }

// SetWriteCallback installs the callback fired on POLLOUT.
func (c *Channel) SetWriteCallback(cb EventCallback) { c.writeCallback = cb }

// SetCloseCallback installs the callback fired on POLLHUP without POLLIN.
func (c *Channel) SetCloseCallback(cb EventCallback) { c.closeCallback = cb }

// SetErrorCallback installs the callback fired on POLLERR|POLLNVAL.
func (c *Channel) SetErrorCallback(cb EventCallback) { c.errorCallback = cb }

// EnableReading adds the read bits to the interest mask and re-registers.
func (c *Channel) EnableReading() {
	c.interested |= readEvent
	c.update()
}

// DisableReading removes the read bits from the interest mask and
// re-registers.
func (c *Channel) DisableReading() {
	c.interested &^= readEvent
	c.update()
}

// EnableWriting adds the write bit to the interest mask and re-registers.
func (c *Channel) EnableWriting() {
	c.interested |= writeEvent
	c.update()
}

// DisableWriting removes the write bit from the interest mask and
// re-registers.
func (c *Channel) DisableWriting() {
	c.interested &^= writeEvent
	c.update()
}

// DisableAll clears the interest mask entirely and re-registers.
func (c *Channel) DisableAll() {
	c.interested = noneEvent
	c.update()
}

// Remove asks the owning loop to drop this channel from the poller. The
// channel must have an empty interest mask first.
func (c *Channel) Remove() {
	c.loop.RemoveChannel(c)
}

func (c *Channel) update() {
	c.loop.AssertInLoopThread()
	c.loop.UpdateChannel(c)
}

// HandleEvent dispatches the callbacks matching the events the poller
// recorded on the previous SetReceivedEvents call, in the fixed decode order
// the reactor relies on: POLLNVAL is logged, POLLHUP without POLLIN invokes
// the close callback, POLLERR|POLLNVAL invokes the error callback,
// POLLIN|POLLPRI invokes the read callback with receiveTime, and POLLOUT
// invokes the write callback. Re-entrant destruction while handling is
// forbidden — callers must not call Remove from within a callback this
// method is currently dispatching.
func (c *Channel) HandleEvent(receiveTime timer.Timestamp) {
	c.handling = true
	defer func() { c.handling = false }()

	if c.received&unix.POLLNVAL != 0 {
		c.log.Warn("channel fd=%d received POLLNVAL", c.fd)
	}

	if c.received&unix.POLLHUP != 0 && c.received&unix.POLLIN == 0 {
		if c.closeCallback != nil {
			c.closeCallback()
		}
	}

	if c.received&(unix.POLLERR|unix.POLLNVAL) != 0 {
		if c.errorCallback != nil {
			c.errorCallback()
		}
	}

	if c.received&(unix.POLLIN|unix.POLLPRI) != 0 {
		if c.readCallback != nil {
			c.readCallback(receiveTime)
		}
	}

	if c.received&unix.POLLOUT != 0 {
		if c.writeCallback != nil {
			c.writeCallback()
		}
	}
}

// Handling reports whether a HandleEvent call is currently dispatching a
// callback for this channel.
func (c *Channel) Handling() bool { return c.handling }
