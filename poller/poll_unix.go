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

//go:build !linux

package poller

import (
	"golang.org/x/sys/unix"

	"github.com/nabbar/netloop/channel"
	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/timer"
)

func newDefault(loop OwnerLoop, log logger.Logger) Poller {
	return newPollPoller(loop, log)
}

// pollPoller is the poll(2)-based backend: a parallel pollfd array and a
// map from descriptor to Channel. Each channel holds its index into the
// array; removal swaps with the last element to keep updates O(1), and a
// channel temporarily carrying an empty interest set is marked ignored by
// negating its descriptor rather than removed, so its index stays stable.
type pollPoller struct {
	loop     OwnerLoop
	log      logger.Logger
	pollfds  []unix.PollFd
	channels map[int]*channel.Channel
}

func newPollPoller(loop OwnerLoop, log logger.Logger) *pollPoller {
	if log == nil {
		log = logger.Default()
	}
	return &pollPoller{
		loop:     loop,
		log:      log,
		channels: make(map[int]*channel.Channel),
	}
}

func (p *pollPoller) Poll(timeoutMs int, active *[]*channel.Channel) (timer.Timestamp, error) {
	*active = (*active)[:0]

	n, err := unix.Poll(p.pollfds, timeoutMs)
	now := timer.Now()

	if err == unix.EINTR {
		return now, nil
	}
	if err != nil {
		p.log.Error("poller: poll error: %v", err)
		return now, err
	}
	if n > 0 {
		p.fillActiveChannels(n, active)
	}
	return now, nil
}

func (p *pollPoller) fillActiveChannels(numEvents int, active *[]*channel.Channel) {
	for _, pfd := range p.pollfds {
		if numEvents <= 0 {
			break
		}
		if pfd.Revents > 0 {
			numEvents--
			if c, ok := p.channels[int(pfd.Fd)]; ok {
				c.SetReceivedEvents(int(pfd.Revents))
				*active = append(*active, c)
			}
		}
	}
}

func (p *pollPoller) UpdateChannel(c *channel.Channel) {
	p.loop.AssertInLoopThread()

	if c.Index() < 0 {
		pfd := unix.PollFd{
			Fd:     int32(c.Fd()),
			Events: int16(c.InterestedEvents()),
		}
		idx := len(p.pollfds)
		p.pollfds = append(p.pollfds, pfd)
		c.SetIndex(idx)
		p.channels[c.Fd()] = c
	} else {
		idx := c.Index()
		pfd := &p.pollfds[idx]
		pfd.Fd = int32(c.Fd())
		pfd.Events = int16(c.InterestedEvents())
		pfd.Revents = 0
		if c.IsNoneEvent() {
			pfd.Fd = -pfd.Fd - 1
		}
	}
}

func (p *pollPoller) RemoveChannel(c *channel.Channel) {
	p.loop.AssertInLoopThread()

	delete(p.channels, c.Fd())

	idx := c.Index()
	last := len(p.pollfds) - 1
	if idx != last {
		p.pollfds[idx] = p.pollfds[last]
		movedFd := p.pollfds[idx].Fd
		if movedFd < 0 {
			movedFd = -movedFd - 1
		}
		if moved, ok := p.channels[int(movedFd)]; ok {
			moved.SetIndex(idx)
		}
	}
	p.pollfds = p.pollfds[:last]
	c.SetIndex(-1)
}

func (p *pollPoller) Close() error { return nil }
