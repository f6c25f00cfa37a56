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

// Package buffer implements the reactor's byte buffer: a contiguous slice
// with a cheap-prepend headroom, used as both the input and output buffer of
// a TcpConnection. It is never safe for concurrent use — a buffer belongs to
// exactly one connection's owning loop thread.
package buffer

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// kCheapPrepend is the headroom kept at the front of the buffer so framing
// code can prefix a length header without a second allocation.
const kCheapPrepend = 8

// kInitialSize is the default payload capacity behind the headroom.
const kInitialSize = 1024

// extraBufSize bounds the stack-resident secondary buffer readFd uses to
// absorb a read burst larger than the current writable region in a single
// system call.
const extraBufSize = 65536

// Buffer is a resizable byte sequence with three logical regions:
// prependable | readable | writable. The invariant
// 0 <= readerIndex <= writerIndex <= len(buf) holds after every operation.
type Buffer struct {
	buf    []byte
	reader int
	writer int
}

// New returns a Buffer with the default initial capacity.
func New() *Buffer {
	return NewSize(kInitialSize)
}

// NewSize returns a Buffer whose writable region holds at least initialSize
// bytes before the first growth.
func NewSize(initialSize int) *Buffer {
	return &Buffer{
		buf:    make([]byte, kCheapPrepend+initialSize),
		reader: kCheapPrepend,
		writer: kCheapPrepend,
	}
}

// ReadableBytes returns the number of bytes available to Peek/Retrieve.
func (b *Buffer) ReadableBytes() int { return b.writer - b.reader }

// WritableBytes returns the number of bytes available at the tail without
// growing the buffer.
func (b *Buffer) WritableBytes() int { return len(b.buf) - b.writer }

// PrependableBytes returns the headroom currently free at the front.
func (b *Buffer) PrependableBytes() int { return b.reader }

// Peek returns the readable region. The slice is only valid until the next
// mutating call on b.
func (b *Buffer) Peek() []byte { return b.buf[b.reader:b.writer] }

// RetrieveAll discards every readable byte and resets both indices so that
// PrependableBytes equals kCheapPrepend again.
func (b *Buffer) RetrieveAll() {
	b.reader = kCheapPrepend
	b.writer = kCheapPrepend
}

// Retrieve discards the first n readable bytes.
func (b *Buffer) Retrieve(n int) {
	if n < b.ReadableBytes() {
		b.reader += n
	} else {
		b.RetrieveAll()
	}
}

// RetrieveUntil discards bytes up to but excluding the absolute index end
// within Peek's returned slice space; end is expressed as an offset from the
// start of the buffer's underlying storage, as returned by FindCRLF/FindEOL.
func (b *Buffer) RetrieveUntil(end int) {
	b.Retrieve(end - b.reader)
}

// RetrieveAsString removes and returns a copy of the first n readable bytes.
func (b *Buffer) RetrieveAsString(n int) string {
	s := string(b.buf[b.reader : b.reader+n])
	b.Retrieve(n)
	return s
}

// RetrieveAllAsString removes and returns a copy of every readable byte.
func (b *Buffer) RetrieveAllAsString() string {
	return b.RetrieveAsString(b.ReadableBytes())
}

// Append copies data onto the writable region, growing the buffer first if
// necessary.
func (b *Buffer) Append(data []byte) {
	b.ensureWritable(len(data))
	n := copy(b.buf[b.writer:], data)
	b.writer += n
}

// AppendInt64 appends x in network byte order.
func (b *Buffer) AppendInt64(x int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(x))
	b.Append(tmp[:])
}

// AppendInt32 appends x in network byte order.
func (b *Buffer) AppendInt32(x int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(x))
	b.Append(tmp[:])
}

// AppendInt16 appends x in network byte order.
func (b *Buffer) AppendInt16(x int16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(x))
	b.Append(tmp[:])
}

// AppendInt8 appends the single byte x.
func (b *Buffer) AppendInt8(x int8) {
	b.Append([]byte{byte(x)})
}

// PeekInt64 returns the leading 8 readable bytes as a network-order integer
// without consuming them.
func (b *Buffer) PeekInt64() int64 {
	return int64(binary.BigEndian.Uint64(b.Peek()[:8]))
}

// PeekInt32 returns the leading 4 readable bytes as a network-order integer
// without consuming them.
func (b *Buffer) PeekInt32() int32 {
	return int32(binary.BigEndian.Uint32(b.Peek()[:4]))
}

// PeekInt16 returns the leading 2 readable bytes as a network-order integer
// without consuming them.
func (b *Buffer) PeekInt16() int16 {
	return int16(binary.BigEndian.Uint16(b.Peek()[:2]))
}

// PeekInt8 returns the leading readable byte without consuming it.
func (b *Buffer) PeekInt8() int8 {
	return int8(b.Peek()[0])
}

// ReadInt64 is PeekInt64 followed by Retrieve(8).
func (b *Buffer) ReadInt64() int64 {
	v := b.PeekInt64()
	b.Retrieve(8)
	return v
}

// ReadInt32 is PeekInt32 followed by Retrieve(4).
func (b *Buffer) ReadInt32() int32 {
	v := b.PeekInt32()
	b.Retrieve(4)
	return v
}

// ReadInt16 is PeekInt16 followed by Retrieve(2).
func (b *Buffer) ReadInt16() int16 {
	v := b.PeekInt16()
	b.Retrieve(2)
	return v
}

// ReadInt8 is PeekInt8 followed by Retrieve(1).
func (b *Buffer) ReadInt8() int8 {
	v := b.PeekInt8()
	b.Retrieve(1)
	return v
}

// Prepend writes data directly before the readable region, consuming
// headroom. Panics if len(data) exceeds PrependableBytes, matching the
// debug-assert the caller is expected never to trip in well-formed framing
// code.
func (b *Buffer) Prepend(data []byte) {
	if len(data) > b.PrependableBytes() {
		panic("buffer: prepend exceeds prependable headroom")
	}
	b.reader -= len(data)
	copy(b.buf[b.reader:], data)
}

// PrependInt64 prepends x in network byte order.
func (b *Buffer) PrependInt64(x int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(x))
	b.Prepend(tmp[:])
}

// PrependInt32 prepends x in network byte order.
func (b *Buffer) PrependInt32(x int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(x))
	b.Prepend(tmp[:])
}

// PrependInt16 prepends x in network byte order.
func (b *Buffer) PrependInt16(x int16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(x))
	b.Prepend(tmp[:])
}

// PrependInt8 prepends the single byte x.
func (b *Buffer) PrependInt8(x int8) {
	b.Prepend([]byte{byte(x)})
}

// FindCRLF returns the absolute index (suitable for RetrieveUntil) of the
// first "\r\n" within the readable region, or -1 if none is present.
func (b *Buffer) FindCRLF() int {
	idx := bytes.Index(b.Peek(), []byte("\r\n"))
	if idx < 0 {
		return -1
	}
	return b.reader + idx
}

// FindEOL returns the absolute index of the first '\n' within the readable
// region, or -1 if none is present.
func (b *Buffer) FindEOL() int {
	idx := bytes.IndexByte(b.Peek(), '\n')
	if idx < 0 {
		return -1
	}
	return b.reader + idx
}

// ReadFd performs a scattered read from fd: the writable region first, a
// 64 KiB secondary buffer second. If the primary region absorbs the whole
// read the writer index simply advances; otherwise the writer index
// saturates at capacity and the overflow is appended, growing the buffer.
// This bounds the common case to one system call while still handling a
// burst larger than the current writable region.
func (b *Buffer) ReadFd(fd int) (int, error) {
	var extra [extraBufSize]byte
	writable := b.WritableBytes()

	iovs := make([][]byte, 0, 2)
	iovs = append(iovs, b.buf[b.writer:])
	if writable < extraBufSize {
		iovs = append(iovs, extra[:])
	}

	n, err := unix.Readv(fd, iovs)
	if n <= 0 {
		return n, err
	}
	if n <= writable {
		b.writer += n
	} else {
		b.writer = len(b.buf)
		b.Append(extra[:n-writable])
	}
	return n, err
}

func (b *Buffer) ensureWritable(n int) {
	if b.WritableBytes() >= n {
		return
	}
	if b.WritableBytes()+b.PrependableBytes() < n+kCheapPrepend {
		grown := make([]byte, b.writer+n)
		copy(grown, b.buf)
		b.buf = grown
		return
	}
	readable := b.ReadableBytes()
	copy(b.buf[kCheapPrepend:], b.buf[b.reader:b.writer])
	b.reader = kCheapPrepend
	b.writer = b.reader + readable
}
