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

package poller_test

import (
	"os"

	"github.com/nabbar/netloop/channel"
	"github.com/nabbar/netloop/poller"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type noopLoop struct{}

func (noopLoop) AssertInLoopThread()            {}
func (noopLoop) UpdateChannel(c *channel.Channel) {}
func (noopLoop) RemoveChannel(c *channel.Channel) {}

var _ = Describe("Poller", func() {
	var p poller.Poller

	BeforeEach(func() {
		p = poller.New(noopLoop{}, nil)
	})

	AfterEach(func() {
		Expect(p.Close()).To(Succeed())
	})

	Context("registering a readable descriptor", func() {
		It("reports the channel active once data is available", func() {
			r, w, err := os.Pipe()
			Expect(err).ToNot(HaveOccurred())
			defer r.Close()
			defer w.Close()

			var loop noopLoop
			c := channel.New(loop, int(r.Fd()), nil)
			c.EnableReading()
			p.UpdateChannel(c)

			_, err = w.Write([]byte("x"))
			Expect(err).ToNot(HaveOccurred())

			var active []*channel.Channel
			_, err = p.Poll(1000, &active)
			Expect(err).ToNot(HaveOccurred())
			Expect(active).To(ConsistOf(c))
		})

		It("reports no channels active before any readiness", func() {
			r, w, err := os.Pipe()
			Expect(err).ToNot(HaveOccurred())
			defer r.Close()
			defer w.Close()

			var loop noopLoop
			c := channel.New(loop, int(r.Fd()), nil)
			c.EnableReading()
			p.UpdateChannel(c)

			var active []*channel.Channel
			_, err = p.Poll(10, &active)
			Expect(err).ToNot(HaveOccurred())
			Expect(active).To(BeEmpty())
		})
	})

	Context("RemoveChannel", func() {
		It("stops reporting the channel as active", func() {
			r, w, err := os.Pipe()
			Expect(err).ToNot(HaveOccurred())
			defer r.Close()
			defer w.Close()

			var loop noopLoop
			c := channel.New(loop, int(r.Fd()), nil)
			c.EnableReading()
			p.UpdateChannel(c)

			c.DisableAll()
			p.UpdateChannel(c)
			p.RemoveChannel(c)

			_, err = w.Write([]byte("y"))
			Expect(err).ToNot(HaveOccurred())

			var active []*channel.Channel
			_, err = p.Poll(10, &active)
			Expect(err).ToNot(HaveOccurred())
			Expect(active).To(BeEmpty())
		})
	})
})
