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

package tcp_test

import (
	"net"
	"time"

	"github.com/nabbar/netloop/socket"
	"github.com/nabbar/netloop/tcp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Acceptor", func() {
	It("reports an accepted connection with the peer address", func() {
		lp, down := runningLoop()
		defer down()

		addr, err := socket.NewAddress("127.0.0.1", 0)
		Expect(err).NotTo(HaveOccurred())

		var acc *tcp.Acceptor
		accepted := make(chan socket.Address, 1)

		lp.RunInLoop(func() {
			var e error
			acc, e = tcp.NewAcceptor(lp, nil, addr, false)
			Expect(e).NotTo(HaveOccurred())
			acc.SetNewConnCallback(func(sock *socket.Socket, peer socket.Address) {
				accepted <- peer
				_ = sock.Close()
			})
			Expect(acc.Listen(16)).To(Succeed())
		})

		var boundAddr socket.Address
		Eventually(func() error {
			var e error
			boundAddr, e = acc.Addr()
			return e
		}, time.Second).Should(Succeed())

		conn, err := net.Dial("tcp", boundAddr.ToIPPort())
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		Eventually(accepted, time.Second).Should(Receive())

		lp.RunInLoop(func() { _ = acc.Close() })
	})
})
