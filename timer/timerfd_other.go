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

package timer

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/netloop/logger"
)

// pipeFd is the portable substitute for a kernel timer descriptor on
// platforms without timerfd: a self-pipe a goroutine writes a byte to when
// a time.Timer fires, giving the reactor a descriptor it can poll exactly
// like a socket. Matches the reference implementation's own timerfd.cc
// fallback ("timerfd implementation on macOS").
type pipeFd struct {
	mu    sync.Mutex
	r, w  int
	timer *time.Timer
	log   logger.Logger
}

func newFd(log logger.Logger) fd {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		log.Fatal("timer: pipe2 failed: %v", err)
	}
	return &pipeFd{r: fds[0], w: fds[1], log: log}
}

func (p *pipeFd) Fd() int { return p.r }

func (p *pipeFd) Arm(when Timestamp) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	d := when.Sub(Now())
	if d < 0 {
		d = 0
	}
	p.timer = time.AfterFunc(d, func() {
		_, _ = unix.Write(p.w, []byte{1})
	})
}

func (p *pipeFd) Drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.r, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (p *pipeFd) Close() error {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()

	_ = unix.Close(p.w)
	return unix.Close(p.r)
}
