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

package config_test

import (
	"time"

	"github.com/nabbar/netloop/socket/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Listen", func() {
	It("validates a well-formed config", func() {
		l := config.Listen{Network: config.NetworkTCP, Address: "127.0.0.1:8080"}
		Expect(l.Validate()).To(Succeed())
	})

	It("rejects an unknown network", func() {
		l := config.Listen{Network: "sctp", Address: "127.0.0.1:8080"}
		Expect(l.Validate()).To(HaveOccurred())
	})

	It("rejects an empty address", func() {
		l := config.Listen{Network: config.NetworkTCP}
		Expect(l.Validate()).To(HaveOccurred())
	})

	It("rejects a negative backlog", func() {
		l := config.Listen{Network: config.NetworkTCP, Address: "127.0.0.1:8080", Backlog: -1}
		Expect(l.Validate()).To(HaveOccurred())
	})

	It("defaults an unset backlog to 1024", func() {
		l := config.Listen{}
		Expect(l.BacklogOrDefault()).To(Equal(1024))
	})
})

var _ = Describe("Dial", func() {
	It("validates a well-formed config", func() {
		d := config.Dial{Network: config.NetworkTCP4, Address: "127.0.0.1:9090"}
		Expect(d.Validate()).To(Succeed())
	})

	It("rejects an empty address", func() {
		d := config.Dial{}
		Expect(d.Validate()).To(HaveOccurred())
	})

	It("defaults initial and max delay to spec's 500ms/30s", func() {
		d := config.Dial{}
		Expect(d.InitialDelayOrDefault()).To(Equal(500 * time.Millisecond))
		Expect(d.MaxDelayOrDefault()).To(Equal(30 * time.Second))
	})

	It("rejects a negative retry delay", func() {
		d := config.Dial{Network: config.NetworkTCP, Address: "127.0.0.1:9090", InitialDelay: -1}
		Expect(d.Validate()).To(HaveOccurred())
	})
})
