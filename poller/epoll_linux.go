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

//go:build linux

package poller

import (
	"golang.org/x/sys/unix"

	"github.com/nabbar/netloop/channel"
	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/timer"
)

const initEventListSize = 16

// channel index tags tracking kernel-set membership, mirroring the
// reference C++ implementation's New/Added/Deleted scheme.
const (
	tagNew     = -1
	tagAdded   = 1
	tagDeleted = 2
)

func newDefault(loop OwnerLoop, log logger.Logger) Poller {
	return newEpollPoller(loop, log)
}

// epollPoller is the Linux epoll backend: a descriptor-to-Channel map and an
// event-list buffer sized with an initial 16 slots, doubled whenever a
// Poll call fills it completely.
type epollPoller struct {
	loop     OwnerLoop
	log      logger.Logger
	epollFd  int
	channels map[int]*channel.Channel
	events   []unix.EpollEvent
}

func newEpollPoller(loop OwnerLoop, log logger.Logger) *epollPoller {
	if log == nil {
		log = logger.Default()
	}
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		log.Fatal("poller: epoll_create1 failed: %v", err)
	}
	return &epollPoller{
		loop:     loop,
		log:      log,
		epollFd:  fd,
		channels: make(map[int]*channel.Channel),
		events:   make([]unix.EpollEvent, initEventListSize),
	}
}

func (p *epollPoller) Poll(timeoutMs int, active *[]*channel.Channel) (timer.Timestamp, error) {
	*active = (*active)[:0]

	n, err := unix.EpollWait(p.epollFd, p.events, timeoutMs)
	now := timer.Now()

	if err == unix.EINTR {
		return now, nil
	}
	if err != nil {
		p.log.Error("poller: epoll_wait error: %v", err)
		return now, err
	}
	if n > 0 {
		p.fillActiveChannels(n, active)
		if n == len(p.events) {
			p.events = make([]unix.EpollEvent, len(p.events)*2)
		}
	}
	return now, nil
}

func (p *epollPoller) fillActiveChannels(numEvents int, active *[]*channel.Channel) {
	for i := 0; i < numEvents; i++ {
		ev := &p.events[i]
		c, ok := p.channels[int(ev.Fd)]
		if !ok {
			continue
		}
		c.SetReceivedEvents(int(ev.Events))
		*active = append(*active, c)
	}
}

// add, del, mod against the kernel interest set.
func (p *epollPoller) UpdateChannel(c *channel.Channel) {
	p.loop.AssertInLoopThread()

	tag := c.Index()
	if tag == tagNew || tag == tagDeleted {
		fd := c.Fd()
		p.channels[fd] = c
		c.SetIndex(tagAdded)
		p.ctl(unix.EPOLL_CTL_ADD, c)
	} else if c.IsNoneEvent() {
		p.ctl(unix.EPOLL_CTL_DEL, c)
		c.SetIndex(tagDeleted)
	} else {
		p.ctl(unix.EPOLL_CTL_MOD, c)
	}
}

func (p *epollPoller) RemoveChannel(c *channel.Channel) {
	p.loop.AssertInLoopThread()

	delete(p.channels, c.Fd())

	if c.Index() == tagAdded {
		p.ctl(unix.EPOLL_CTL_DEL, c)
	}
	c.SetIndex(tagNew)
}

func (p *epollPoller) ctl(op int, c *channel.Channel) {
	event := unix.EpollEvent{
		Events: uint32(c.InterestedEvents()),
		Fd:     int32(c.Fd()),
	}

	if err := unix.EpollCtl(p.epollFd, op, c.Fd(), &event); err != nil {
		p.log.Error("poller: epoll_ctl(op=%d, fd=%d) failed: %v", op, c.Fd(), err)
	}
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epollFd)
}
