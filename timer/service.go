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

package timer

import (
	"sort"
	"time"

	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/metrics"
)

// Loop is the subset of the owning EventLoop the timer Service needs: post a
// callback to run on the loop thread. The owning loop, not Service, binds the
// timer descriptor to a Channel (same as it does for its own wakeup
// descriptor) — Service stays ignorant of the channel package so the two
// packages don't import each other.
type Loop interface {
	QueueInLoop(fn func())
	AssertInLoopThread()
}

// fd abstracts the kernel monotonic timer descriptor: a real Linux timerfd,
// or a time.Timer-driven pipe on platforms without one.
type fd interface {
	Fd() int
	Arm(when Timestamp)
	Drain()
	Close() error
}

// entry pairs a timer with its expiration for the sorted set. Timers are
// ordered by (expiration, sequence) so that two timers sharing an
// expiration fire in creation order, mirroring the reference set's
// pointer-identity tie-break.
type entry struct {
	expiration Timestamp
	timer      *Timer
}

// Service is the reactor's timer queue: a sorted set of pending timers and a
// parallel cancellation set, backed by a kernel timer descriptor wired to a
// Channel on the owning loop.
type Service struct {
	loop    Loop
	log     logger.Logger
	metrics *metrics.Collector

	timerFd fd

	entries []entry        // sorted by (expiration, sequence)
	active  map[int64]*Timer // sequence -> timer, for cancel lookup

	callingExpired bool
	canceling      map[int64]bool
}

// NewService creates a Service bound to loop. The caller (the owning
// EventLoop) is responsible for binding Fd() to a Channel and calling
// HandleRead on that channel's read callback, the same way it wires its own
// wakeup descriptor.
func NewService(loop Loop, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	s := &Service{
		loop:      loop,
		log:       log,
		timerFd:   newFd(log),
		active:    make(map[int64]*Timer),
		canceling: make(map[int64]bool),
	}
	return s
}

// Schedule creates a new timer and posts its insertion onto the owning loop,
// returning a TimerId the caller may later pass to Cancel.
func (s *Service) Schedule(cb Callback, when Timestamp, interval time.Duration) TimerId {
	t := newTimer(cb, when, interval)
	id := TimerId{timer: t, sequence: t.sequence}
	s.loop.QueueInLoop(func() { s.addTimerInLoop(t) })
	return id
}

// Cancel posts a cancellation request onto the owning loop.
func (s *Service) Cancel(id TimerId) {
	s.loop.QueueInLoop(func() { s.cancelTimerInLoop(id) })
}

// Fd returns the kernel timer descriptor the owning loop binds to a Channel.
func (s *Service) Fd() int { return s.timerFd.Fd() }

// SetMetrics installs an optional Collector counting timer fires.
func (s *Service) SetMetrics(m *metrics.Collector) { s.metrics = m }

// Close releases the timer descriptor. When the owning loop closes on its
// own thread it disables and removes its Channel first.
func (s *Service) Close() error {
	return s.timerFd.Close()
}

func (s *Service) addTimerInLoop(t *Timer) {
	s.loop.AssertInLoopThread()
	if s.insert(t) {
		s.timerFd.Arm(t.expiration)
	}
}

func (s *Service) cancelTimerInLoop(id TimerId) {
	s.loop.AssertInLoopThread()

	if _, ok := s.active[id.sequence]; ok {
		delete(s.active, id.sequence)
		s.removeEntry(id.sequence)
		return
	}
	if s.callingExpired {
		s.canceling[id.sequence] = true
	}
}

// HandleRead runs on the owning loop thread when the timer descriptor
// becomes readable: it drains the descriptor, fires every timer whose
// expiration has passed, re-inserts the repeating ones that survived
// cancellation, and re-arms the descriptor for the new earliest entry. The
// owning loop calls this from the Channel it bound to Fd().
func (s *Service) HandleRead() {
	s.loop.AssertInLoopThread()
	s.timerFd.Drain()

	now := Now()
	expired := s.getExpired(now)

	s.callingExpired = true
	s.canceling = make(map[int64]bool)
	for _, e := range expired {
		e.timer.run()
		s.metrics.TimerFired()
	}
	s.callingExpired = false

	s.reset(expired, now)
}

// getExpired removes and returns every entry whose expiration is not after
// now; entries whose expiration equals now are included.
func (s *Service) getExpired(now Timestamp) []entry {
	idx := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].expiration > now
	})
	expired := make([]entry, idx)
	copy(expired, s.entries[:idx])
	s.entries = s.entries[idx:]
	for _, e := range expired {
		delete(s.active, e.timer.sequence)
	}
	return expired
}

// reset re-inserts repeating timers that were not canceled during their own
// firing, then re-arms the descriptor for the new earliest entry, if any.
func (s *Service) reset(expired []entry, now Timestamp) {
	for _, e := range expired {
		if e.timer.repeat && !s.canceling[e.timer.sequence] {
			e.timer.restart(now)
			s.insert(e.timer)
		}
	}
	if len(s.entries) > 0 {
		s.timerFd.Arm(s.entries[0].expiration)
	}
}

// insert adds t into the sorted set, reporting whether it became the new
// earliest entry.
func (s *Service) insert(t *Timer) bool {
	wasEmpty := len(s.entries) == 0
	earliestChanged := wasEmpty || t.expiration.Before(s.entries[0].expiration)

	e := entry{expiration: t.expiration, timer: t}
	idx := sort.Search(len(s.entries), func(i int) bool {
		if s.entries[i].expiration != e.expiration {
			return s.entries[i].expiration > e.expiration
		}
		return s.entries[i].timer.sequence > e.timer.sequence
	})
	s.entries = append(s.entries, entry{})
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = e
	s.active[t.sequence] = t

	return earliestChanged
}

func (s *Service) removeEntry(sequence int64) {
	for i, e := range s.entries {
		if e.timer.sequence == sequence {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}
