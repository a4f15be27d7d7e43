// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"encoding/binary"
	"errors"
	"net"
	"sync/atomic"
	"time"
)

// ErrOOM is returned by [MakePacket] when the underlying allocator fails.
var ErrOOM = errors.New("click: out of memory")

// ErrHeaderOffsetOutOfRange is returned when a header offset accessor is
// given an offset outside the packet's current data region, see spec.md
// §4.1 ("Setting a header offset asserts the offset lies in
// [data_start, data_end]").
var ErrHeaderOffsetOutOfRange = errors.New("click: header offset out of range")

// noHeaderOffset marks a mac/network/transport header offset as unset.
const noHeaderOffset = -1

// buffer is the shared, ref-counted byte storage backing one or more
// [Packet] clones. shares is manipulated with atomics because packets may
// be cloned and killed from different router threads (spec.md §5).
type buffer struct {
	data   []byte
	shares int32

	// destroy, if non-nil, is invoked exactly once, when the last share
	// is killed. It models the "arbitrary C destructor" pattern spec.md
	// §9 describes for externally-owned buffers (driver mbufs, netmap
	// slots): a borrowed buffer carries a destructor closure instead of
	// being freed by the Go garbage collector.
	destroy func([]byte)
}

func newBuffer(size int, destroy func([]byte)) *buffer {
	return &buffer{data: make([]byte, size), shares: 1, destroy: destroy}
}

// Packet is a ref-counted byte buffer with headroom/tailroom and a
// side-channel annotation area, see spec.md §3 ("Packet").
//
// A Packet's shape is buffer_start <= data_start <= data_end <=
// buffer_end, where buffer_start/buffer_end are 0/len(buf.data).
type Packet struct {
	buf       *buffer
	dataStart int
	dataEnd   int

	annotations []byte

	macOffset       int
	networkOffset   int
	transportOffset int
}

// MakePacket allocates a packet with the given headroom, payload length,
// and tailroom, and an annotation area of annotationSize bytes. It fails
// with [ErrOOM] if allocation panics (e.g., an unreasonably large size).
func MakePacket(headroom, length, tailroom, annotationSize int) (p *Packet, err error) {
	if headroom < 0 || length < 0 || tailroom < 0 || annotationSize < 0 {
		return nil, errors.New("click: negative packet dimension")
	}
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, ErrOOM
		}
	}()
	buf := newBuffer(headroom+length+tailroom, nil)
	return &Packet{
		buf:             buf,
		dataStart:       headroom,
		dataEnd:         headroom + length,
		annotations:     make([]byte, annotationSize),
		macOffset:       noHeaderOffset,
		networkOffset:   noHeaderOffset,
		transportOffset: noHeaderOffset,
	}, nil
}

// WrapBuffer builds a [Packet] around an externally-owned buffer (e.g., a
// driver mbuf or a netmap slot). destroy, if non-nil, runs exactly once
// when the last share is killed; it never runs while shares remain.
func WrapBuffer(data []byte, annotationSize int, destroy func([]byte)) *Packet {
	return &Packet{
		buf:             &buffer{data: data, shares: 1, destroy: destroy},
		dataStart:       0,
		dataEnd:         len(data),
		annotations:     make([]byte, annotationSize),
		macOffset:       noHeaderOffset,
		networkOffset:   noHeaderOffset,
		transportOffset: noHeaderOffset,
	}
}

// Shares returns the current share count of the packet's underlying
// buffer. Exposed for tests verifying the invariants of spec.md §8.
func (p *Packet) Shares() int32 {
	return atomic.LoadInt32(&p.buf.shares)
}

// Data returns the packet's current visible payload, [data_start,
// data_end). Callers must not retain slices across a [Packet.Uniqueify]
// call, since uniqueify may reallocate the backing buffer.
func (p *Packet) Data() []byte {
	return p.buf.data[p.dataStart:p.dataEnd]
}

// Headroom returns data_start - buffer_start.
func (p *Packet) Headroom() int {
	return p.dataStart
}

// Tailroom returns buffer_end - data_end.
func (p *Packet) Tailroom() int {
	return len(p.buf.data) - p.dataEnd
}

// Length returns data_end - data_start.
func (p *Packet) Length() int {
	return p.dataEnd - p.dataStart
}

// Clone produces a second packet sharing the same buffer. Both the
// original and the clone become read-only: writes must be preceded by
// [Packet.Uniqueify]. O(1); never copies the buffer. Annotations are
// copied since they are logically part of the packet, not the buffer
// (spec.md §3 invariants).
func (p *Packet) Clone() *Packet {
	atomic.AddInt32(&p.buf.shares, 1)
	annotations := make([]byte, len(p.annotations))
	copy(annotations, p.annotations)
	return &Packet{
		buf:             p.buf,
		dataStart:       p.dataStart,
		dataEnd:         p.dataEnd,
		annotations:     annotations,
		macOffset:       p.macOffset,
		networkOffset:   p.networkOffset,
		transportOffset: p.transportOffset,
	}
}

// Uniqueify returns a writable packet. If the buffer's share count is 1,
// it returns p unchanged without allocating (spec.md §8 law 4). Otherwise
// it allocates a new buffer, copies [data_start, data_end), preserves the
// headroom/tailroom sizes, copies annotations and header offsets, and
// drops one share of the original buffer.
func (p *Packet) Uniqueify() *Packet {
	if atomic.LoadInt32(&p.buf.shares) == 1 {
		return p
	}
	headroom, tailroom, length := p.Headroom(), p.Tailroom(), p.Length()
	buf := newBuffer(headroom+length+tailroom, nil)
	copy(buf.data[headroom:headroom+length], p.Data())
	annotations := make([]byte, len(p.annotations))
	copy(annotations, p.annotations)
	np := &Packet{
		buf:             buf,
		dataStart:       headroom,
		dataEnd:         headroom + length,
		annotations:     annotations,
		macOffset:       p.macOffset,
		networkOffset:   p.networkOffset,
		transportOffset: p.transportOffset,
	}
	p.Kill()
	return np
}

// Push grows the packet at the front by n bytes, consuming headroom. If
// n exceeds the current headroom, Push reallocates into a larger buffer;
// callers must use the returned packet, which may differ from p.
func (p *Packet) Push(n int) (*Packet, error) {
	if n < 0 {
		return nil, errors.New("click: negative push length")
	}
	if n <= p.Headroom() {
		p.dataStart -= n
		return p, nil
	}
	grown, err := p.reallocate(n, 0)
	if err != nil {
		return nil, err
	}
	grown.dataStart -= n
	return grown, nil
}

// Pull shrinks the packet at the front by n bytes, returning headroom.
func (p *Packet) Pull(n int) (*Packet, error) {
	if n < 0 || n > p.Length() {
		return nil, errors.New("click: pull length exceeds packet length")
	}
	p.dataStart += n
	return p, nil
}

// Put grows the packet at the back by n bytes, consuming tailroom. If n
// exceeds the current tailroom, Put reallocates; callers must use the
// returned packet.
func (p *Packet) Put(n int) (*Packet, error) {
	if n < 0 {
		return nil, errors.New("click: negative put length")
	}
	if n <= p.Tailroom() {
		p.dataEnd += n
		return p, nil
	}
	grown, err := p.reallocate(0, n)
	if err != nil {
		return nil, err
	}
	grown.dataEnd += n
	return grown, nil
}

// Take shrinks the packet at the back by n bytes, returning tailroom.
func (p *Packet) Take(n int) (*Packet, error) {
	if n < 0 || n > p.Length() {
		return nil, errors.New("click: take length exceeds packet length")
	}
	p.dataEnd -= n
	return p, nil
}

// reallocate grows the buffer to provide at least extraHead additional
// headroom and extraTail additional tailroom, copying the current data
// region and preserving annotations and header offsets. The original
// packet's share is killed.
func (p *Packet) reallocate(extraHead, extraTail int) (*Packet, error) {
	headroom := p.Headroom() + extraHead
	tailroom := p.Tailroom() + extraTail
	length := p.Length()
	buf := newBuffer(headroom+length+tailroom, nil)
	copy(buf.data[headroom:headroom+length], p.Data())
	annotations := make([]byte, len(p.annotations))
	copy(annotations, p.annotations)
	np := &Packet{
		buf:             buf,
		dataStart:       headroom,
		dataEnd:         headroom + length,
		annotations:     annotations,
		macOffset:       p.macOffset,
		networkOffset:   p.networkOffset,
		transportOffset: p.transportOffset,
	}
	p.Kill()
	return np, nil
}

// Kill releases one share of the packet's buffer. When the last share is
// dropped, the buffer's destructor (if any) runs exactly once.
func (p *Packet) Kill() {
	if atomic.AddInt32(&p.buf.shares, -1) == 0 && p.buf.destroy != nil {
		p.buf.destroy(p.buf.data)
	}
}

// --- header offsets ---
//
// Offsets are stored relative to data_start so that they remain
// numerically meaningful after [Packet.Uniqueify] (spec.md §8 law 5).

// MACHeaderOffset returns the mac header offset, or -1 if unset.
func (p *Packet) MACHeaderOffset() int { return p.macOffset }

// NetworkHeaderOffset returns the network header offset, or -1 if unset.
func (p *Packet) NetworkHeaderOffset() int { return p.networkOffset }

// TransportHeaderOffset returns the transport header offset, or -1 if unset.
func (p *Packet) TransportHeaderOffset() int { return p.transportOffset }

// SetMACHeaderOffset records the mac header's offset relative to the
// packet's current data_start. offset must lie within [0, Length()].
func (p *Packet) SetMACHeaderOffset(offset int) error {
	if offset < 0 || offset > p.Length() {
		return ErrHeaderOffsetOutOfRange
	}
	p.macOffset = offset
	return nil
}

// SetNetworkHeaderOffset records the network header's offset relative to
// the packet's current data_start. offset must lie within [0, Length()].
func (p *Packet) SetNetworkHeaderOffset(offset int) error {
	if offset < 0 || offset > p.Length() {
		return ErrHeaderOffsetOutOfRange
	}
	p.networkOffset = offset
	return nil
}

// SetTransportHeaderOffset records the transport header's offset relative
// to the packet's current data_start. offset must lie within [0, Length()].
func (p *Packet) SetTransportHeaderOffset(offset int) error {
	if offset < 0 || offset > p.Length() {
		return ErrHeaderOffsetOutOfRange
	}
	p.transportOffset = offset
	return nil
}

// --- annotations ---
//
// The runtime never interprets annotation content; elements agree by
// convention on byte ranges (see [AnnotationInfo] for formally naming
// ranges and detecting overlap at init time).

// Annotations returns the packet's raw scratch annotation bytes.
func (p *Packet) Annotations() []byte {
	return p.annotations
}

// AnnotationUint8 reads a single byte at off.
func (p *Packet) AnnotationUint8(off int) uint8 {
	return p.annotations[off]
}

// SetAnnotationUint8 writes a single byte at off.
func (p *Packet) SetAnnotationUint8(off int, v uint8) {
	p.annotations[off] = v
}

// AnnotationUint16 reads a big-endian uint16 at off.
func (p *Packet) AnnotationUint16(off int) uint16 {
	return binary.BigEndian.Uint16(p.annotations[off:])
}

// SetAnnotationUint16 writes a big-endian uint16 at off.
func (p *Packet) SetAnnotationUint16(off int, v uint16) {
	binary.BigEndian.PutUint16(p.annotations[off:], v)
}

// AnnotationUint32 reads a big-endian uint32 at off.
func (p *Packet) AnnotationUint32(off int) uint32 {
	return binary.BigEndian.Uint32(p.annotations[off:])
}

// SetAnnotationUint32 writes a big-endian uint32 at off.
func (p *Packet) SetAnnotationUint32(off int, v uint32) {
	binary.BigEndian.PutUint32(p.annotations[off:], v)
}

// AnnotationIP reads a 4-byte IPv4 address at off.
func (p *Packet) AnnotationIP(off int) net.IP {
	ip := make(net.IP, net.IPv4len)
	copy(ip, p.annotations[off:off+net.IPv4len])
	return ip
}

// SetAnnotationIP writes a 4-byte IPv4 address at off.
func (p *Packet) SetAnnotationIP(off int, ip net.IP) {
	copy(p.annotations[off:off+net.IPv4len], ip.To4())
}

// AnnotationTimestamp reads a timestamp stored as a big-endian Unix nano
// count at off.
func (p *Packet) AnnotationTimestamp(off int) time.Time {
	nsec := int64(binary.BigEndian.Uint64(p.annotations[off:]))
	return time.Unix(0, nsec)
}

// SetAnnotationTimestamp writes t as a big-endian Unix nano count at off.
func (p *Packet) SetAnnotationTimestamp(off int, t time.Time) {
	binary.BigEndian.PutUint64(p.annotations[off:], uint64(t.UnixNano()))
}
