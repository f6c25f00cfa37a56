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

// White-box specs: this file lives in package tcp (not tcp_test) so it can
// drive connectEstablished directly, the way an Acceptor/Connector/Server/
// Client would, without exporting lifecycle internals from the public API.
package tcp

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/netloop/buffer"
	"github.com/nabbar/netloop/loop"
	"github.com/nabbar/netloop/socket"
	"github.com/nabbar/netloop/timer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func connTestLoop() (*loop.EventLoop, func()) {
	started := make(chan *loop.EventLoop, 1)
	done := make(chan struct{})
	go func() {
		l := loop.New(nil)
		started <- l
		l.Loop()
		close(done)
	}()
	l := <-started
	return l, func() {
		l.Quit()
		<-done
		_ = l.Close()
	}
}

func connSocketPair() (a, b int) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	Expect(err).NotTo(HaveOccurred())
	Expect(unix.SetNonblock(fds[0], true)).To(Succeed())
	Expect(unix.SetNonblock(fds[1], true)).To(Succeed())
	return fds[0], fds[1]
}

var _ = Describe("Connection", func() {
	It("delivers received bytes to the message callback", func() {
		lp, down := connTestLoop()
		defer down()

		a, b := connSocketPair()
		defer unix.Close(b)

		received := make(chan string, 1)
		conn := NewConnection("t-#1", lp, nil, socket.FromFd(a))
		conn.SetMessageCallback(func(c *Connection, in *buffer.Buffer, _ timer.Timestamp) {
			received <- in.RetrieveAllAsString()
		})
		lp.RunInLoop(conn.connectEstablished)

		_, err := unix.Write(b, []byte("hello"))
		Expect(err).NotTo(HaveOccurred())

		Eventually(received, time.Second).Should(Receive(Equal("hello")))
	})

	It("invokes the close path on peer EOF", func() {
		lp, down := connTestLoop()
		defer down()

		a, b := connSocketPair()

		closed := make(chan struct{}, 1)
		conn := NewConnection("t-#2", lp, nil, socket.FromFd(a))
		conn.SetConnectionCallback(func(c *Connection) {
			if c.State() == StateDisconnected {
				close(closed)
			}
		})
		lp.RunInLoop(conn.connectEstablished)

		Expect(unix.Close(b)).To(Succeed())

		Eventually(closed, time.Second).Should(BeClosed())
		Eventually(func() State { return conn.State() }).Should(Equal(StateDisconnected))
	})

	It("buffers output and fires the high-water-mark callback on upward crossing", func() {
		lp, down := connTestLoop()
		defer down()

		a, b := connSocketPair()
		defer unix.Close(a)
		defer unix.Close(b)

		conn := NewConnection("t-#3", lp, nil, socket.FromFd(a))
		conn.SetHighWaterMark(1024)
		hwm := make(chan int, 4)
		conn.SetHighWaterMarkCallback(func(c *Connection, size int) { hwm <- size })
		lp.RunInLoop(conn.connectEstablished)

		big := make([]byte, 4*1024*1024)
		conn.Send(big)

		Eventually(hwm, time.Second).Should(Receive(BeNumerically(">=", 1024)))
	})

	It("fires writeCompleteCallback once the output buffer fully drains", func() {
		lp, down := connTestLoop()
		defer down()

		a, b := connSocketPair()
		defer unix.Close(a)
		defer unix.Close(b)

		conn := NewConnection("t-#4", lp, nil, socket.FromFd(a))
		done := make(chan struct{}, 1)
		conn.SetWriteCompleteCallback(func(c *Connection) {
			select {
			case done <- struct{}{}:
			default:
			}
		})
		lp.RunInLoop(conn.connectEstablished)

		conn.Send([]byte("small payload"))

		Eventually(done, time.Second).Should(Receive())
	})
})
