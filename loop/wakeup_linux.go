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

package loop

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/nabbar/netloop/logger"
)

// eventfdWakeup is the Linux wakeup descriptor: a kernel event counter a
// cross-thread caller increments to break the owning loop out of a blocking
// poll wait.
type eventfdWakeup struct {
	fd  int
	log logger.Logger
}

func newWakeup(log logger.Logger) wakeup {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		log.Fatal("loop: eventfd failed: %v", err)
	}
	return &eventfdWakeup{fd: fd, log: log}
}

func (w *eventfdWakeup) Fd() int { return w.fd }

func (w *eventfdWakeup) Wake() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(w.fd, buf[:]); err != nil {
		w.log.Error("loop: wakeup write failed: %v", err)
	}
}

func (w *eventfdWakeup) Drain() {
	var buf [8]byte
	_, _ = unix.Read(w.fd, buf[:])
}

func (w *eventfdWakeup) Close() error {
	return unix.Close(w.fd)
}
