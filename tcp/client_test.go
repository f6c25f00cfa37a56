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

	skcfg "github.com/nabbar/netloop/socket/config"
	"github.com/nabbar/netloop/tcp"
	tcpcfg "github.com/nabbar/netloop/tcp/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Client", func() {
	It("connects to a plain net.Listener and exchanges data", func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()

		echoed := make(chan string, 1)
		go func() {
			c, e := ln.Accept()
			if e != nil {
				return
			}
			defer c.Close()
			buf := make([]byte, 64)
			n, _ := c.Read(buf)
			echoed <- string(buf[:n])
		}()

		lp, down := runningLoop()
		defer down()

		var cli *tcp.Client
		var newErr error
		lp.RunInLoop(func() {
			cli, newErr = tcp.NewClient(lp, nil, tcpcfg.Client{
				Dial: skcfg.Dial{Address: ln.Addr().String()},
				Name: "test-client",
			})
		})
		Eventually(func() error { return newErr }, time.Second).Should(Succeed())
		Expect(cli).NotTo(BeNil())

		cli.Connect()

		Eventually(func() *tcp.Connection { return cli.Connection() }, time.Second).ShouldNot(BeNil())

		cli.Connection().Send([]byte("ping"))

		Eventually(echoed, time.Second).Should(Receive(Equal("ping")))

		cli.Stop()
		Eventually(func() *tcp.Connection { return cli.Connection() }, time.Second).Should(BeNil())
	})

	It("reconnects after the peer closes when Dial.Retry is set", func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()

		accepts := make(chan net.Conn, 8)
		go func() {
			for {
				c, e := ln.Accept()
				if e != nil {
					return
				}
				accepts <- c
			}
		}()

		lp, down := runningLoop()
		defer down()

		var cli *tcp.Client
		var newErr error
		lp.RunInLoop(func() {
			cli, newErr = tcp.NewClient(lp, nil, tcpcfg.Client{
				Dial: skcfg.Dial{Address: ln.Addr().String(), Retry: true},
				Name: "retry-client",
			})
		})
		Eventually(func() error { return newErr }, time.Second).Should(Succeed())

		cli.Connect()

		var first net.Conn
		Eventually(accepts, time.Second).Should(Receive(&first))
		Eventually(func() *tcp.Connection { return cli.Connection() }, time.Second).ShouldNot(BeNil())

		// Simulate the peer dropping the connection: the client side should
		// notice the close, then the connector should restart on its own and
		// dial back in, all without another call to Connect.
		first.Close()
		Eventually(func() *tcp.Connection { return cli.Connection() }, time.Second).Should(BeNil())

		var second net.Conn
		Eventually(accepts, 5*time.Second).Should(Receive(&second))
		defer second.Close()
		Eventually(func() *tcp.Connection { return cli.Connection() }, 5*time.Second).ShouldNot(BeNil())

		cli.Stop()
	})
})
