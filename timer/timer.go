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
	"sync/atomic"
	"time"
)

var numCreated int64

// Callback is invoked when a Timer fires.
type Callback func()

// Timer is a single scheduled callback: a one-shot or repeating alarm with
// its own monotonically-increasing sequence number, used to break ties
// between timers sharing an expiration and to recognize a timer whose
// identity must survive across a cancel racing its own fire.
type Timer struct {
	callback   Callback
	expiration Timestamp
	interval   time.Duration
	repeat     bool
	sequence   int64
}

func newTimer(cb Callback, when Timestamp, interval time.Duration) *Timer {
	return &Timer{
		callback:   cb,
		expiration: when,
		interval:   interval,
		repeat:     interval > 0,
		sequence:   atomic.AddInt64(&numCreated, 1),
	}
}

// Expiration returns the instant at which the timer is next due.
func (t *Timer) Expiration() Timestamp { return t.expiration }

// Sequence returns the timer's creation-order identity.
func (t *Timer) Sequence() int64 { return t.sequence }

// run invokes the callback.
func (t *Timer) run() { t.callback() }

// restart advances a repeating timer to its next expiration relative to now,
// or invalidates a one-shot timer.
func (t *Timer) restart(now Timestamp) {
	if t.repeat {
		t.expiration = now.Add(t.interval)
	} else {
		t.expiration = Invalid
	}
}

// TimerId is the opaque handle returned by Schedule and consumed by Cancel.
// It pairs the timer pointer with its sequence number so a canceled and
// freed timer whose address gets reused by a later allocation is never
// mistaken for the one the caller meant to cancel.
type TimerId struct {
	timer    *Timer
	sequence int64
}
