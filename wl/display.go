// Package wl implements the small subset of the Wayland client protocol
// needed to authenticate a DRM device through a compositor: the display
// and registry objects, synchronous round-trips, and the wl_drm extension.
package wl

import (
	"errors"
	"fmt"
	"net"
)

// ErrProtocol reports a malformed or unexpected message from the
// compositor.
var ErrProtocol = errors.New("wl: protocol error")

// Interface identifies a protocol interface a registry global can be
// bound against.
type Interface struct {
	Name    string
	Version uint32
}

// DRMInterface describes the wl_drm extension advertised by Mesa-based
// compositors.
var DRMInterface = Interface{Name: "wl_drm", Version: 2}

// Global is one entry of the compositor's global registry.
type Global struct {
	Name      uint32 // numeric registry name, not the interface name
	Interface string
	Version   uint32
}

// DisplayError is a fatal wl_display.error event. Once received, the
// connection is unusable.
type DisplayError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (e *DisplayError) Error() string {
	return fmt.Sprintf("wl: display error on object %d (code %d): %s", e.ObjectID, e.Code, e.Message)
}

const (
	displayID = 1

	opDisplaySync        = 0
	opDisplayGetRegistry = 1

	evDisplayError    = 0
	evDisplayDeleteID = 1

	opRegistryBind = 0

	evRegistryGlobal       = 0
	evRegistryGlobalRemove = 1

	evCallbackDone = 0
)

// handler dispatches events addressed to one protocol object.
type handler interface {
	handle(opcode uint16, r *msgReader) error
}

// Display is a connection to a Wayland compositor. It owns the client
// object id space and a cache of advertised globals. A Display is
// single-owner: the protocol here is strictly synchronous and nothing is
// guarded for concurrent use.
type Display struct {
	conn     net.Conn
	objects  map[uint32]handler
	nextID   uint32
	registry uint32
	globals  []Global
	err      error // sticky fatal error
}

// Connect wraps an established compositor connection and requests the
// global registry. Deadline and timeout policy stays with the
// caller-provided conn; a non-responsive compositor blocks round-trips
// indefinitely.
func Connect(conn net.Conn) (*Display, error) {
	d := &Display{
		conn:    conn,
		objects: make(map[uint32]handler),
		nextID:  displayID + 1,
	}
	d.objects[displayID] = displayHandler{d}
	d.registry = d.newID(registryHandler{d})
	if err := d.send(newRequest(displayID, opDisplayGetRegistry).putUint(d.registry)); err != nil {
		return nil, err
	}
	return d, nil
}

// Close releases the underlying connection.
func (d *Display) Close() error {
	return d.conn.Close()
}

func (d *Display) newID(h handler) uint32 {
	id := d.nextID
	d.nextID++
	d.objects[id] = h
	return id
}

func (d *Display) send(w *msgWriter) error {
	if d.err != nil {
		return d.err
	}
	if _, err := d.conn.Write(w.bytes()); err != nil {
		d.err = fmt.Errorf("wl: send: %w", err)
		return d.err
	}
	return nil
}

// Global returns the first cached global advertising the given interface
// at least at the given version. The cache only fills as registry events
// are dispatched, so a fresh connection needs a round-trip first.
func (d *Display) Global(iface string, version uint32) (Global, bool) {
	for _, g := range d.globals {
		if g.Interface == iface && g.Version >= version {
			return g, true
		}
	}
	return Global{}, false
}

// Globals returns a copy of the current registry cache.
func (d *Display) Globals() []Global {
	out := make([]Global, len(d.globals))
	copy(out, d.globals)
	return out
}

// RoundTrip blocks until the compositor has processed all previously sent
// requests, dispatching every event received in the meantime. This is the
// mechanism that turns asynchronous advertisements into program order.
func (d *Display) RoundTrip() error {
	if d.err != nil {
		return d.err
	}
	var done bool
	cb := d.newID(callbackHandler{done: &done})
	if err := d.send(newRequest(displayID, opDisplaySync).putUint(cb)); err != nil {
		return err
	}
	for !done {
		if err := d.dispatchOne(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Display) dispatchOne() error {
	m, err := readMessage(d.conn)
	if err != nil {
		d.err = fmt.Errorf("wl: read: %w", err)
		return d.err
	}
	h, ok := d.objects[m.sender]
	if !ok {
		// Events for ids already released on our side still drain out of
		// the compositor; drop them.
		return nil
	}
	if err := h.handle(m.opcode, &msgReader{data: m.data}); err != nil {
		d.err = err
		return err
	}
	return nil
}

type displayHandler struct{ d *Display }

func (h displayHandler) handle(opcode uint16, r *msgReader) error {
	switch opcode {
	case evDisplayError:
		e := &DisplayError{ObjectID: r.uint(), Code: r.uint(), Message: r.string()}
		if r.err != nil {
			return r.err
		}
		return e
	case evDisplayDeleteID:
		id := r.uint()
		if r.err != nil {
			return r.err
		}
		delete(h.d.objects, id)
	}
	return nil
}

type registryHandler struct{ d *Display }

func (h registryHandler) handle(opcode uint16, r *msgReader) error {
	switch opcode {
	case evRegistryGlobal:
		g := Global{Name: r.uint(), Interface: r.string(), Version: r.uint()}
		if r.err != nil {
			return r.err
		}
		h.d.globals = append(h.d.globals, g)
	case evRegistryGlobalRemove:
		name := r.uint()
		if r.err != nil {
			return r.err
		}
		for i, g := range h.d.globals {
			if g.Name == name {
				h.d.globals = append(h.d.globals[:i], h.d.globals[i+1:]...)
				break
			}
		}
	}
	return nil
}

type callbackHandler struct{ done *bool }

func (h callbackHandler) handle(opcode uint16, r *msgReader) error {
	if opcode == evCallbackDone {
		r.uint() // callback serial, unused
		*h.done = true
	}
	return nil
}
