// Package wltest provides an in-process fake compositor speaking enough
// of the Wayland wire protocol to exercise wl_drm authentication flows
// without a display server. The server side encodes and decodes messages
// independently of package wl, so tests cross-check the codec rather than
// mirror it.
package wltest

import (
	"encoding/binary"
	"io"
	"net"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

var byteOrder binary.ByteOrder = binary.LittleEndian

func init() {
	n := uint32(1)
	if (*[4]byte)(unsafe.Pointer(&n))[0] == 0 {
		byteOrder = binary.BigEndian
	}
}

// Pipe returns a connected socket pair backed by kernel buffers, so
// neither side blocks on small writes the way net.Pipe would.
func Pipe() (client, server net.Conn, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, err
	}
	cf := os.NewFile(uintptr(fds[0]), "wltest-client")
	sf := os.NewFile(uintptr(fds[1]), "wltest-server")
	defer cf.Close()
	defer sf.Close()

	client, err = net.FileConn(cf)
	if err != nil {
		return nil, nil, err
	}
	server, err = net.FileConn(sf)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return client, server, nil
}

// Compositor is a scriptable fake. Zero value: advertises no wl_drm
// global and confirms nothing; set the fields before calling Serve.
type Compositor struct {
	// AdvertiseDRM adds a wl_drm global to the registry.
	AdvertiseDRM bool
	// DRMVersion is the advertised wl_drm version; 0 means 2.
	DRMVersion uint32
	// DevicePath is sent as the device event right after wl_drm is bound.
	DevicePath string
	// Formats are advertised after the device path.
	Formats []uint32
	// CapabilityMask, when non-zero, is sent as the capabilities event.
	CapabilityMask uint32
	// ConfirmAuth answers authenticate requests with the authenticated
	// event.
	ConfirmAuth bool
	// SyncError, when non-nil, answers every sync with a fatal
	// wl_display error instead of the callback.
	SyncError *SyncError

	mu     sync.Mutex
	magics []uint32
}

// SyncError describes a wl_display.error event to inject.
type SyncError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

// Magics returns the authentication cookies received so far.
func (c *Compositor) Magics() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint32, len(c.magics))
	copy(out, c.magics)
	return out
}

// Serve handles one client connection until it closes. Run it in a
// goroutine alongside the code under test.
func (c *Compositor) Serve(conn net.Conn) {
	defer conn.Close()

	const displayID = 1
	var registryID, drmID uint32

	for {
		sender, opcode, args, err := readMsg(conn)
		if err != nil {
			return
		}

		switch {
		case sender == displayID && opcode == 1: // get_registry
			registryID = getUint(args, 0)
			c.sendGlobals(conn, registryID)

		case sender == displayID && opcode == 0: // sync
			cb := getUint(args, 0)
			if c.SyncError != nil {
				writeMsg(conn, displayID, 0,
					uintArg(c.SyncError.ObjectID),
					uintArg(c.SyncError.Code),
					stringArg(c.SyncError.Message))
				continue
			}
			writeMsg(conn, cb, 0, uintArg(0))         // wl_callback.done
			writeMsg(conn, displayID, 1, uintArg(cb)) // wl_display.delete_id

		case registryID != 0 && sender == registryID && opcode == 0: // bind
			iface, rest := getString(args, 4)
			id := getUint(args, rest+4)
			if iface == "wl_drm" {
				drmID = id
				c.sendDRMAdvertisements(conn, drmID)
			}

		case drmID != 0 && sender == drmID && opcode == 0: // authenticate
			magic := getUint(args, 0)
			c.mu.Lock()
			c.magics = append(c.magics, magic)
			c.mu.Unlock()
			if c.ConfirmAuth {
				writeMsg(conn, drmID, 2) // authenticated
			}
		}
	}
}

func (c *Compositor) sendGlobals(conn net.Conn, registryID uint32) {
	writeMsg(conn, registryID, 0, uintArg(1), stringArg("wl_compositor"), uintArg(4))
	writeMsg(conn, registryID, 0, uintArg(2), stringArg("wl_shm"), uintArg(1))
	if c.AdvertiseDRM {
		version := c.DRMVersion
		if version == 0 {
			version = 2
		}
		writeMsg(conn, registryID, 0, uintArg(3), stringArg("wl_drm"), uintArg(version))
	}
}

func (c *Compositor) sendDRMAdvertisements(conn net.Conn, drmID uint32) {
	writeMsg(conn, drmID, 0, stringArg(c.DevicePath))
	for _, f := range c.Formats {
		writeMsg(conn, drmID, 1, uintArg(f))
	}
	if c.CapabilityMask != 0 {
		writeMsg(conn, drmID, 3, uintArg(c.CapabilityMask))
	}
}

func readMsg(r io.Reader) (sender uint32, opcode uint16, args []byte, err error) {
	var hdr [8]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return
	}
	sender = byteOrder.Uint32(hdr[0:4])
	sizeOp := byteOrder.Uint32(hdr[4:8])
	opcode = uint16(sizeOp & 0xffff)
	args = make([]byte, int(sizeOp>>16)-8)
	_, err = io.ReadFull(r, args)
	return
}

func writeMsg(w io.Writer, sender uint32, opcode uint16, args ...[]byte) {
	var body []byte
	for _, a := range args {
		body = append(body, a...)
	}
	buf := make([]byte, 8, 8+len(body))
	byteOrder.PutUint32(buf[0:4], sender)
	byteOrder.PutUint32(buf[4:8], uint32(8+len(body))<<16|uint32(opcode))
	w.Write(append(buf, body...))
}

func uintArg(v uint32) []byte {
	b := make([]byte, 4)
	byteOrder.PutUint32(b, v)
	return b
}

func stringArg(s string) []byte {
	b := uintArg(uint32(len(s) + 1))
	b = append(b, s...)
	b = append(b, 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func getUint(b []byte, off int) uint32 {
	if off+4 > len(b) {
		return 0
	}
	return byteOrder.Uint32(b[off:])
}

// getString decodes a string argument at off and returns it along with
// the offset just past its padding.
func getString(b []byte, off int) (string, int) {
	n := int(getUint(b, off))
	off += 4
	if n == 0 || off+n > len(b) {
		return "", off
	}
	padded := (n + 3) &^ 3
	return string(b[off : off+n-1]), off + padded
}
