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

// Package timer provides the reactor's timer service: a microsecond-precision
// Timestamp, a sorted set of pending timers, and the timerfd/fallback wiring
// an EventLoop uses to wake exactly when the next timer is due.
package timer

import (
	"fmt"
	"time"
)

// Timestamp is a point in time expressed as microseconds since the Unix
// epoch. Timer expiries are compared and ordered on this value rather than
// on time.Time directly so the ordering is exact integer arithmetic, not
// monotonic-clock comparison.
type Timestamp int64

// Invalid is the zero Timestamp; Valid reports false for it.
const Invalid Timestamp = 0

const microSecondsPerSecond int64 = 1000 * 1000

// Now returns the current instant.
func Now() Timestamp {
	return FromTime(time.Now())
}

// FromTime converts a time.Time to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.Unix()*microSecondsPerSecond + int64(t.Nanosecond())/1000)
}

// Time converts back to a time.Time in the local zone.
func (t Timestamp) Time() time.Time {
	sec := int64(t) / microSecondsPerSecond
	usec := int64(t) % microSecondsPerSecond
	return time.Unix(sec, usec*1000)
}

// Valid reports whether t holds a strictly-positive instant.
func (t Timestamp) Valid() bool {
	return t > 0
}

// Add returns t shifted forward by d.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return t + Timestamp(d.Microseconds())
}

// Sub returns the signed duration between t and other.
func (t Timestamp) Sub(other Timestamp) time.Duration {
	return time.Duration(int64(t)-int64(other)) * time.Microsecond
}

// Before reports whether t occurs strictly before other.
func (t Timestamp) Before(other Timestamp) bool {
	return t < other
}

// String renders "<seconds>.<microseconds>", matching the plain numeric form
// used in diagnostic traces.
func (t Timestamp) String() string {
	sec := int64(t) / microSecondsPerSecond
	usec := int64(t) % microSecondsPerSecond
	if usec < 0 {
		usec = -usec
	}
	return fmt.Sprintf("%d.%06d", sec, usec)
}

// Formatted renders the timestamp as "YYYYMMDD HH:MM:SS[.ffffff]" in UTC.
func (t Timestamp) Formatted(showMicros bool) string {
	tm := t.Time().UTC()
	if showMicros {
		return fmt.Sprintf("%04d%02d%02d %02d:%02d:%02d.%06d",
			tm.Year(), tm.Month(), tm.Day(), tm.Hour(), tm.Minute(), tm.Second(), tm.Nanosecond()/1000)
	}
	return fmt.Sprintf("%04d%02d%02d %02d:%02d:%02d",
		tm.Year(), tm.Month(), tm.Day(), tm.Hour(), tm.Minute(), tm.Second())
}
