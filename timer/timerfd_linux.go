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

package timer

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/netloop/logger"
)

// timerfdFd wraps a Linux timerfd (CLOCK_MONOTONIC), available since
// kernel 2.6.25.
type timerfdFd struct {
	fd  int
	log logger.Logger
}

func newFd(log logger.Logger) fd {
	tfd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		log.Fatal("timer: timerfd_create failed: %v", err)
	}
	return &timerfdFd{fd: tfd, log: log}
}

func (t *timerfdFd) Fd() int { return t.fd }

// Arm re-arms the descriptor to fire once at the absolute instant when,
// clamped to a minimum of 100 nanoseconds from now so a due-in-the-past
// timer still fires promptly instead of disarming the descriptor (a zero
// it_value disarms a timerfd).
func (t *timerfdFd) Arm(when Timestamp) {
	d := when.Sub(Now())
	if d < 100*time.Nanosecond {
		d = 100 * time.Nanosecond
	}
	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(d.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(t.fd, 0, &spec, nil); err != nil {
		t.log.Error("timer: timerfd_settime failed: %v", err)
	}
}

func (t *timerfdFd) Drain() {
	var buf [8]byte
	_, _ = unix.Read(t.fd, buf[:])
}

func (t *timerfdFd) Close() error {
	return unix.Close(t.fd)
}
