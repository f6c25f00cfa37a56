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

package buffer_test

import (
	"os"

	"github.com/nabbar/netloop/buffer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Buffer", func() {
	var b *buffer.Buffer

	BeforeEach(func() {
		b = buffer.New()
	})

	Context("initial state", func() {
		It("starts empty with the cheap-prepend headroom", func() {
			Expect(b.ReadableBytes()).To(Equal(0))
			Expect(b.PrependableBytes()).To(Equal(8))
			Expect(b.WritableBytes()).To(Equal(1024))
		})
	})

	Context("Append / Retrieve", func() {
		It("makes appended bytes readable", func() {
			b.Append([]byte("hello"))
			Expect(b.ReadableBytes()).To(Equal(5))
			Expect(string(b.Peek())).To(Equal("hello"))
		})

		It("retrieves a prefix and leaves the remainder readable", func() {
			b.Append([]byte("hello world"))
			b.Retrieve(6)
			Expect(b.RetrieveAllAsString()).To(Equal("world"))
		})

		It("resets to the cheap-prepend headroom on a full drain", func() {
			b.Append([]byte("hello"))
			b.RetrieveAll()
			Expect(b.ReadableBytes()).To(Equal(0))
			Expect(b.PrependableBytes()).To(Equal(8))
		})
	})

	Context("growth", func() {
		It("shifts the readable region forward when there is enough slack", func() {
			b.Append([]byte("0123456789"))
			b.Retrieve(8)
			before := b.PrependableBytes()
			Expect(before).To(Equal(16))

			b.Append(make([]byte, 1020))
			Expect(b.PrependableBytes()).To(Equal(8))
		})

		It("grows capacity when there is not enough slack to shift", func() {
			big := make([]byte, 4096)
			b.Append(big)
			Expect(b.ReadableBytes()).To(Equal(4096))
			Expect(b.WritableBytes()).To(BeNumerically(">=", 0))
		})
	})

	Context("network-order integers", func() {
		It("round-trips Int32 through append/peek/read", func() {
			b.AppendInt32(305419896)
			Expect(b.PeekInt32()).To(Equal(int32(305419896)))
			Expect(b.ReadInt32()).To(Equal(int32(305419896)))
			Expect(b.ReadableBytes()).To(Equal(0))
		})

		It("round-trips Int64", func() {
			b.AppendInt64(-42)
			Expect(b.ReadInt64()).To(Equal(int64(-42)))
		})

		It("round-trips Int16 and Int8", func() {
			b.AppendInt16(4660)
			b.AppendInt8(7)
			Expect(b.ReadInt16()).To(Equal(int16(4660)))
			Expect(b.ReadInt8()).To(Equal(int8(7)))
		})
	})

	Context("Prepend", func() {
		It("writes a length header directly before the readable region", func() {
			b.Append([]byte("payload"))
			b.PrependInt32(7)
			Expect(b.ReadableBytes()).To(Equal(11))
			Expect(b.ReadInt32()).To(Equal(int32(7)))
			Expect(b.RetrieveAllAsString()).To(Equal("payload"))
		})

		It("panics when data exceeds the prependable headroom", func() {
			Expect(func() {
				b.Prepend(make([]byte, 9))
			}).To(Panic())
		})
	})

	Context("FindCRLF / FindEOL", func() {
		It("locates a CRLF terminator within the readable region", func() {
			b.Append([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
			idx := b.FindCRLF()
			Expect(idx).To(BeNumerically(">", 0))
			b.RetrieveUntil(idx)
			Expect(b.ReadableBytes()).To(Equal(len("\r\nHost: x\r\n\r\n")))
		})

		It("returns -1 when no terminator is present", func() {
			b.Append([]byte("no terminator here"))
			Expect(b.FindCRLF()).To(Equal(-1))
			Expect(b.FindEOL()).To(Equal(-1))
		})
	})

	Context("ReadFd", func() {
		It("reads from a pipe into the writable region", func() {
			r, w, err := os.Pipe()
			Expect(err).ToNot(HaveOccurred())
			defer r.Close()
			defer w.Close()

			_, err = w.Write([]byte("from pipe"))
			Expect(err).ToNot(HaveOccurred())

			n, err := b.ReadFd(int(r.Fd()))
			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(len("from pipe")))
			Expect(b.RetrieveAllAsString()).To(Equal("from pipe"))
		})
	})
})
