// Package sink defines the engine's single output abstraction (§4.8): a
// byte-appending interface that both the template renderer and Digit's
// number formatter write through, so neither ever allocates the result
// string on the caller's behalf beyond what the sink itself does.
package sink

import "qentem/internal/reserver"

// Sink is the renderer's only output channel: append N bytes, in order,
// with no other observable side effects.
type Sink interface {
	Append(p []byte)
}

// Buffer is the default concrete Sink: a growable byte buffer, the
// equivalent of the original implementation's StringStream. Multiple
// Render calls against the same Buffer keep appending.
type Buffer struct {
	buf []byte
}

// NewBuffer returns an empty Buffer, optionally pre-sized.
func NewBuffer(capacityHint int) *Buffer {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Buffer{buf: make([]byte, 0, capacityHint)}
}

// Append implements Sink.
func (b *Buffer) Append(p []byte) {
	b.buf = append(b.buf, p...)
}

// AppendString is a convenience for the common string-literal case.
func (b *Buffer) AppendString(s string) {
	b.buf = append(b.buf, s...)
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(c byte) {
	b.buf = append(b.buf, c)
}

// Bytes returns the buffer's current contents.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// String returns the buffer's current contents as a string.
func (b *Buffer) String() string {
	return string(b.buf)
}

// Reset empties the buffer without releasing its backing array.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Len reports how many bytes have been appended so far.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// ReserverBuffer is a Sink whose backing storage is checked out from a
// shared *reserver.Reserver instead of allocated ad hoc. The renderer uses
// it for the scratch buffer of each svar argument's rendered text, so that
// per-tag churn goes through the Renderer's slab/bitmap pool rather than
// each buffer hitting the Go allocator directly.
type ReserverBuffer struct {
	r   *reserver.Reserver
	h   reserver.Handle
	len int
}

// NewReserverBuffer reserves capacityHint bytes from r for a new buffer.
func NewReserverBuffer(r *reserver.Reserver, capacityHint int) *ReserverBuffer {
	if capacityHint <= 0 {
		capacityHint = 16
	}
	return &ReserverBuffer{r: r, h: r.Reserve(capacityHint)}
}

// Append implements Sink, growing the underlying reservation in place via
// TryExpand when there's room, or moving to a fresh, larger one otherwise.
func (b *ReserverBuffer) Append(p []byte) {
	need := b.len + len(p)
	if need > len(b.h.Bytes(b.r)) {
		if grown, ok := b.r.TryExpand(b.h, need); ok {
			b.h = grown
		} else {
			next := b.r.Reserve(need)
			copy(next.Bytes(b.r), b.h.Bytes(b.r)[:b.len])
			b.r.Release(b.h)
			b.h = next
		}
	}
	copy(b.h.Bytes(b.r)[b.len:], p)
	b.len += len(p)
}

// Bytes returns the buffer's current contents.
func (b *ReserverBuffer) Bytes() []byte {
	return b.h.Bytes(b.r)[:b.len]
}

// String returns the buffer's current contents as a string.
func (b *ReserverBuffer) String() string {
	return string(b.Bytes())
}

// Len reports how many bytes have been appended so far.
func (b *ReserverBuffer) Len() int {
	return b.len
}

// Release returns the buffer's reserved cells to r. Callers that create a
// short-lived ReserverBuffer (such as one svar argument) should call this once they've copied out its String()/Bytes().
func (b *ReserverBuffer) Release() {
	b.r.Release(b.h)
}
