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

// Package loop implements the reactor's dispatcher: one EventLoop per OS
// thread, each driving a Poller and a timer Service, with a pending-work
// queue any other thread can post work through. ThreadPool manages a fixed
// set of I/O loops for round-robin connection distribution.
package loop

import (
	"runtime"
	"sync"
	"time"

	"github.com/nabbar/netloop/channel"
	"github.com/nabbar/netloop/logger"
	"github.com/nabbar/netloop/poller"
	"github.com/nabbar/netloop/timer"
)

// defaultPollTimeout bounds how long a single poll wait blocks when no
// timer is due sooner, so the loop periodically revisits its pending queue
// even under a quiet poller.
const defaultPollTimeout = 10 * time.Second

// wakeup is the cross-thread descriptor a loop listens on to break out of a
// blocking poll wait as soon as work is queued from another thread.
type wakeup interface {
	Fd() int
	Wake()
	Drain()
	Close() error
}

var (
	registryMu sync.Mutex
	registry   = map[uint64]*EventLoop{}
)

// EventLoop is the reactor's single-threaded dispatcher. It must be
// constructed on the goroutine that will run Loop — construction pins that
// goroutine to its OS thread and records the thread's identity so later
// calls from other threads can be rejected or redirected through the
// pending queue.
type EventLoop struct {
	log      logger.Logger
	threadID uint64

	pollr   poller.Poller
	timerS  *timer.Service
	timerCh *channel.Channel
	active  []*channel.Channel
	wake    wakeup
	wakeCh  *channel.Channel

	mu      sync.Mutex
	pending []func()

	looping        bool
	quitting       bool
	callingPending bool

	pollReturnedTime timer.Timestamp
}

// New constructs an EventLoop bound to the calling goroutine's OS thread.
// It is a fatal error to construct a second EventLoop on a thread that
// already owns one.
func New(log logger.Logger) *EventLoop {
	if log == nil {
		log = logger.Default()
	}

	runtime.LockOSThread()
	tid := currentThreadID()

	registryMu.Lock()
	if _, exists := registry[tid]; exists {
		registryMu.Unlock()
		log.Fatal("loop: EventLoop already exists on thread %d", tid)
		return nil
	}

	l := &EventLoop{
		log:      log,
		threadID: tid,
	}
	registry[tid] = l
	registryMu.Unlock()

	l.pollr = poller.New(l, log)
	l.timerS = timer.NewService(l, log)
	l.timerCh = channel.New(l, l.timerS.Fd(), log)
	l.timerCh.SetReadCallback(func(timer.Timestamp) { l.timerS.HandleRead() })
	l.timerCh.EnableReading()
	l.wake = newWakeup(log)
	l.wakeCh = channel.New(l, l.wake.Fd(), log)
	l.wakeCh.SetReadCallback(func(timer.Timestamp) { l.wake.Drain() })
	l.wakeCh.EnableReading()

	return l
}

// PollReturnedTime returns the wall-clock time of the most recent poll
// return, used as the receiveTime stamped on inbound data.
func (l *EventLoop) PollReturnedTime() timer.Timestamp { return l.pollReturnedTime }

// Loop runs until Quit is called. Each iteration: poll for active
// channels, dispatch each one's callbacks, then drain the pending queue.
func (l *EventLoop) Loop() {
	l.AssertInLoopThread()
	if l.looping {
		panic("loop: Loop called while already looping")
	}
	l.looping = true
	l.quitting = false

	for !l.quitting {
		l.active = l.active[:0]
		now, err := l.pollr.Poll(int(defaultPollTimeout.Milliseconds()), &l.active)
		if err == nil {
			l.pollReturnedTime = now
		}

		for _, c := range l.active {
			c.HandleEvent(l.pollReturnedTime)
		}

		l.doPendingFunctors()
	}

	l.looping = false
}

// Quit requests the loop to stop after its current iteration. Safe to call
// from any thread; if called off-loop it wakes the loop so the request is
// not delayed a full poll interval.
func (l *EventLoop) Quit() {
	l.quitting = true
	if !l.IsInLoopThread() {
		l.wake.Wake()
	}
}

// Close releases the loop's wakeup descriptor, timer service, and poller.
// Must be called after Loop has returned, from any goroutine. On the loop's
// own thread the wakeup and timer channels are first disabled and removed
// from the poller; from another goroutine that step is skipped and closing
// the poller drops their registrations.
func (l *EventLoop) Close() error {
	registryMu.Lock()
	delete(registry, l.threadID)
	registryMu.Unlock()

	if l.IsInLoopThread() {
		l.wakeCh.DisableAll()
		l.wakeCh.Remove()
		l.timerCh.DisableAll()
		l.timerCh.Remove()
	}

	err := l.wake.Close()
	if e := l.timerS.Close(); e != nil && err == nil {
		err = e
	}
	if e := l.pollr.Close(); e != nil && err == nil {
		err = e
	}
	runtime.UnlockOSThread()
	return err
}

// RunInLoop invokes action immediately if the caller is already on the loop
// thread, otherwise queues it.
func (l *EventLoop) RunInLoop(action func()) {
	if l.IsInLoopThread() {
		action()
	} else {
		l.QueueInLoop(action)
	}
}

// QueueInLoop appends action to the pending queue. If the caller is off the
// loop thread, or the loop is currently draining its pending queue, the
// wakeup descriptor is signaled so the action does not wait a full poll
// interval — queuing from inside a pending callback is the one case a
// same-thread caller still needs the wakeup.
func (l *EventLoop) QueueInLoop(action func()) {
	l.mu.Lock()
	l.pending = append(l.pending, action)
	callingPending := l.callingPending
	l.mu.Unlock()

	if !l.IsInLoopThread() || callingPending {
		l.wake.Wake()
	}
}

// PendingQueueLen returns the number of queued-but-not-yet-run callbacks.
// Safe from any thread; intended for metrics polling, not control flow.
func (l *EventLoop) PendingQueueLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func (l *EventLoop) doPendingFunctors() {
	l.mu.Lock()
	funcs := l.pending
	l.pending = nil
	l.callingPending = true
	l.mu.Unlock()

	for _, fn := range funcs {
		fn()
	}

	l.mu.Lock()
	l.callingPending = false
	l.mu.Unlock()
}

// RunAt schedules cb to fire once at the absolute instant when.
func (l *EventLoop) RunAt(when timer.Timestamp, cb timer.Callback) timer.TimerId {
	return l.timerS.Schedule(cb, when, 0)
}

// RunAfter schedules cb to fire once after delay.
func (l *EventLoop) RunAfter(delay time.Duration, cb timer.Callback) timer.TimerId {
	return l.timerS.Schedule(cb, timer.Now().Add(delay), 0)
}

// RunEvery schedules cb to fire repeatedly every interval, starting one
// interval from now.
func (l *EventLoop) RunEvery(interval time.Duration, cb timer.Callback) timer.TimerId {
	return l.timerS.Schedule(cb, timer.Now().Add(interval), interval)
}

// CancelTimer cancels a timer previously returned by RunAt/RunAfter/RunEvery.
func (l *EventLoop) CancelTimer(id timer.TimerId) {
	l.timerS.Cancel(id)
}

// UpdateChannel forwards to the poller after asserting thread affinity.
func (l *EventLoop) UpdateChannel(c *channel.Channel) {
	l.AssertInLoopThread()
	l.pollr.UpdateChannel(c)
}

// RemoveChannel forwards to the poller after asserting thread affinity.
func (l *EventLoop) RemoveChannel(c *channel.Channel) {
	l.AssertInLoopThread()
	l.pollr.RemoveChannel(c)
}

// IsInLoopThread reports whether the calling goroutine is pinned to this
// loop's OS thread.
func (l *EventLoop) IsInLoopThread() bool {
	return currentThreadID() == l.threadID
}

// AssertInLoopThread calls the installed abort hook if the caller is not on
// the loop's OS thread — a programmer error per spec's error taxonomy.
func (l *EventLoop) AssertInLoopThread() {
	if !l.IsInLoopThread() {
		l.log.Fatal("loop: called from thread %d, expected %d", currentThreadID(), l.threadID)
	}
}
