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

package timer_test

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/netloop/timer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// syncLoop runs every posted callback inline, standing in for the real
// EventLoop's pending-work queue in these single-threaded specs.
type syncLoop struct{}

func (syncLoop) AssertInLoopThread()  {}
func (syncLoop) QueueInLoop(fn func()) { fn() }

// pump stands in for the reactor's poller: it waits briefly for the
// service's timer descriptor to become readable and, if so, delivers the
// event to it exactly as the owning EventLoop's Channel would.
func pump(svc *timer.Service) bool {
	pfd := []unix.PollFd{{Fd: int32(svc.Fd()), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, 50)
	if err != nil || n <= 0 {
		return false
	}
	svc.HandleRead()
	return true
}

var _ = Describe("Service", func() {
	var svc *timer.Service

	AfterEach(func() {
		if svc != nil {
			Expect(svc.Close()).To(Succeed())
		}
	})

	Context("Schedule", func() {
		It("fires a one-shot timer once its descriptor is drained", func() {
			svc = timer.NewService(syncLoop{}, nil)

			fired := make(chan struct{}, 1)
			svc.Schedule(func() { fired <- struct{}{} }, timer.Now(), 0)

			deadline := time.Now().Add(time.Second)
			for time.Now().Before(deadline) {
				pump(svc)
			}
			Expect(fired).To(Receive())
		})

		It("fires a repeating timer more than once", func() {
			svc = timer.NewService(syncLoop{}, nil)

			fired := make(chan struct{}, 8)
			svc.Schedule(func() { fired <- struct{}{} }, timer.Now(), 20*time.Millisecond)

			deadline := time.Now().Add(time.Second)
			for time.Now().Before(deadline) && len(fired) < 2 {
				pump(svc)
			}
			Expect(len(fired)).To(BeNumerically(">=", 2))
		})
	})

	Context("Cancel", func() {
		It("prevents a one-shot timer scheduled for the future from firing", func() {
			svc = timer.NewService(syncLoop{}, nil)

			fired := false
			id := svc.Schedule(func() { fired = true }, timer.Now().Add(200*time.Millisecond), 0)
			svc.Cancel(id)

			deadline := time.Now().Add(300 * time.Millisecond)
			for time.Now().Before(deadline) {
				pump(svc)
			}
			Expect(fired).To(BeFalse())
		})
	})
})
