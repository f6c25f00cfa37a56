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

	"github.com/nabbar/netloop/buffer"
	skcfg "github.com/nabbar/netloop/socket/config"
	"github.com/nabbar/netloop/tcp"
	tcpcfg "github.com/nabbar/netloop/tcp/config"
	"github.com/nabbar/netloop/timer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server", func() {
	It("echoes bytes back to a plain net.Conn client, per the echo server scenario", func() {
		base, down := runningLoop()
		defer down()

		var srv *tcp.Server
		startErr := make(chan error, 1)
		base.RunInLoop(func() {
			srv = tcp.NewServer(base, nil, tcpcfg.Server{
				Listen: skcfg.Listen{Address: "127.0.0.1:0", NumIOThread: 2},
				Name:   "echo",
			})
			srv.SetMessageCallback(func(c *tcp.Connection, in *buffer.Buffer, _ timer.Timestamp) {
				c.Send([]byte(in.RetrieveAllAsString()))
			})
			startErr <- srv.Start()
		})
		Expect(<-startErr).NotTo(HaveOccurred())

		var addrStr string
		Eventually(func() error {
			a, e := srv.Addr()
			if e == nil {
				addrStr = a.ToIPPort()
			}
			return e
		}, time.Second).Should(Succeed())

		conn, err := net.Dial("tcp", addrStr)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		_, err = conn.Write([]byte("hello\n"))
		Expect(err).NotTo(HaveOccurred())

		buf := make([]byte, 6)
		Expect(conn.SetReadDeadline(time.Now().Add(time.Second))).To(Succeed())
		_, err = readFull(conn, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf)).To(Equal("hello\n"))

		Eventually(func() int { return srv.ConnectionCount() }).Should(Equal(1))

		conn.Close()
		base.RunInLoop(func() { _ = srv.Stop() })
	})
})

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
