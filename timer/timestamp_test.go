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

	"github.com/nabbar/netloop/timer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Timestamp", func() {
	Context("Invalid", func() {
		It("is not valid", func() {
			Expect(timer.Invalid.Valid()).To(BeFalse())
		})
	})

	Context("Now", func() {
		It("is valid and round-trips through Time", func() {
			n := timer.Now()
			Expect(n.Valid()).To(BeTrue())
			Expect(n.Time().Unix()).To(BeNumerically("~", time.Now().Unix(), 1))
		})
	})

	Context("Add / Sub / Before", func() {
		It("orders timestamps by microsecond offset", func() {
			base := timer.Now()
			later := base.Add(5 * time.Second)
			Expect(base.Before(later)).To(BeTrue())
			Expect(later.Sub(base)).To(Equal(5 * time.Second))
		})
	})

	Context("String", func() {
		It("renders seconds.microseconds", func() {
			ts := timer.FromTime(time.Unix(100, 250000))
			Expect(ts.String()).To(Equal("100.000250"))
		})
	})

	Context("Formatted", func() {
		It("renders the broken-down UTC calendar form", func() {
			ts := timer.FromTime(time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
			Expect(ts.Formatted(false)).To(Equal("20260730 12:00:00"))
		})
	})
})
