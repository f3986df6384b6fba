package wl

import (
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

// byteOrder is the host byte order; the Wayland wire format is
// host-endian.
var byteOrder binary.ByteOrder = binary.LittleEndian

func init() {
	n := uint32(1)
	if (*[4]byte)(unsafe.Pointer(&n))[0] == 0 {
		byteOrder = binary.BigEndian
	}
}

// Every message starts with the sender object id followed by a word
// holding the total size in the upper 16 bits and the opcode in the lower
// 16.
const headerSize = 8

type message struct {
	sender uint32
	opcode uint16
	data   []byte
}

func readMessage(r io.Reader) (*message, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	sizeOp := byteOrder.Uint32(hdr[4:8])
	size := int(sizeOp >> 16)
	if size < headerSize {
		return nil, fmt.Errorf("%w: message size %d below header size", ErrProtocol, size)
	}
	m := &message{
		sender: byteOrder.Uint32(hdr[0:4]),
		opcode: uint16(sizeOp & 0xffff),
		data:   make([]byte, size-headerSize),
	}
	if _, err := io.ReadFull(r, m.data); err != nil {
		return nil, err
	}
	return m, nil
}

// msgWriter accumulates the arguments of a single request.
type msgWriter struct {
	sender uint32
	opcode uint16
	args   []byte
}

func newRequest(sender uint32, opcode uint16) *msgWriter {
	return &msgWriter{sender: sender, opcode: opcode}
}

func (w *msgWriter) putUint(v uint32) *msgWriter {
	var b [4]byte
	byteOrder.PutUint32(b[:], v)
	w.args = append(w.args, b[:]...)
	return w
}

// putString writes a string argument: its length including the NUL
// terminator, the bytes, the terminator, padded to a 32-bit boundary.
func (w *msgWriter) putString(s string) *msgWriter {
	w.putUint(uint32(len(s) + 1))
	w.args = append(w.args, s...)
	w.args = append(w.args, 0)
	for len(w.args)%4 != 0 {
		w.args = append(w.args, 0)
	}
	return w
}

func (w *msgWriter) bytes() []byte {
	size := headerSize + len(w.args)
	buf := make([]byte, headerSize, size)
	byteOrder.PutUint32(buf[0:4], w.sender)
	byteOrder.PutUint32(buf[4:8], uint32(size)<<16|uint32(w.opcode))
	return append(buf, w.args...)
}

// msgReader decodes event arguments. Decoding errors are sticky; callers
// check err once after pulling all arguments.
type msgReader struct {
	data []byte
	off  int
	err  error
}

func (r *msgReader) uint() uint32 {
	if r.err != nil {
		return 0
	}
	if r.off+4 > len(r.data) {
		r.err = fmt.Errorf("%w: truncated uint argument", ErrProtocol)
		return 0
	}
	v := byteOrder.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *msgReader) string() string {
	n := int(r.uint())
	if r.err != nil {
		return ""
	}
	if n == 0 { // null string
		return ""
	}
	padded := (n + 3) &^ 3
	if r.off+padded > len(r.data) {
		r.err = fmt.Errorf("%w: truncated string argument", ErrProtocol)
		return ""
	}
	s := string(r.data[r.off : r.off+n-1]) // strip the NUL terminator
	r.off += padded
	return s
}
