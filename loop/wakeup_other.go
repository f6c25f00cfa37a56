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

package loop

import (
	"golang.org/x/sys/unix"

	"github.com/nabbar/netloop/logger"
)

// pipeWakeup is the portable wakeup descriptor on platforms without
// eventfd: a self-pipe a cross-thread caller writes one byte to.
type pipeWakeup struct {
	r, w int
	log  logger.Logger
}

func newWakeup(log logger.Logger) wakeup {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		log.Fatal("loop: pipe2 failed: %v", err)
	}
	return &pipeWakeup{r: fds[0], w: fds[1], log: log}
}

func (w *pipeWakeup) Fd() int { return w.r }

func (w *pipeWakeup) Wake() {
	if _, err := unix.Write(w.w, []byte{1}); err != nil {
		w.log.Error("loop: wakeup write failed: %v", err)
	}
}

func (w *pipeWakeup) Drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(w.r, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (w *pipeWakeup) Close() error {
	_ = unix.Close(w.w)
	return unix.Close(w.r)
}
