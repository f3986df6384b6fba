package wldrm

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/wlgfx/wldrm/drm"
	"github.com/wlgfx/wldrm/wl"
)

var (
	// ErrGlobalNotFound means the registry never advertised the wl_drm
	// interface, even after a forced round-trip.
	ErrGlobalNotFound = errors.New("wldrm: wl_drm global not found")
	// ErrDeviceNotOpened means the device advertisement did not yield an
	// open descriptor.
	ErrDeviceNotOpened = errors.New("wldrm: device not opened")
	// ErrNotAuthenticated means the compositor never confirmed the magic
	// cookie.
	ErrNotAuthenticated = errors.New("wldrm: authentication not confirmed")
)

// Init resolves the compositor's wl_drm global, opens the advertised
// device and authenticates it. On any failure it returns an error and
// leaves partially acquired resources for Finalize to reclaim; there is no
// retry beyond a single registry re-query.
func (s *Session) Init(d *wl.Display) error {
	if s.state == nil {
		s.state = &State{fd: -1}
	}

	g, ok := d.Global(s.iface.Name, 1)
	if !ok {
		if err := d.RoundTrip(); err != nil {
			return err
		}
		if g, ok = d.Global(s.iface.Name, 1); !ok {
			return ErrGlobalNotFound
		}
	}

	proxy, err := wl.BindDRM(d, g, s.iface)
	if err != nil {
		return fmt.Errorf("wldrm: bind %s: %w", s.iface.Name, err)
	}
	s.drm = proxy
	proxy.Device = s.handleDevice
	proxy.Authenticated = func() {
		s.authenticated = true
		s.state.authType = AuthCustom
	}
	// Pixel format advertisements are intentionally discarded; nothing
	// downstream consumes them.

	// First round-trip delivers the device advertisement; the handler
	// opens the node and submits the cookie.
	if err := d.RoundTrip(); err != nil {
		return err
	}
	if s.state.fd < 0 {
		if s.devErr != nil {
			return fmt.Errorf("%w: %w", ErrDeviceNotOpened, s.devErr)
		}
		return ErrDeviceNotOpened
	}

	// Second round-trip delivers the compositor's confirmation.
	if err := d.RoundTrip(); err != nil {
		return err
	}
	if !s.authenticated {
		if s.devErr != nil {
			return fmt.Errorf("%w: %w", ErrNotAuthenticated, s.devErr)
		}
		return ErrNotAuthenticated
	}
	return nil
}

func (s *Session) handleDevice(path string) {
	fd, err := drm.OpenDevice(path)
	if err != nil {
		s.logger.Error("drm device rejected", "path", path, "err", err)
		s.devErr = err
		return
	}
	s.state.fd = fd

	magic, err := s.getMagic(fd)
	if err != nil {
		s.logger.Error("drm magic request failed", "path", path, "err", err)
		s.devErr = err
		return
	}
	if err := s.drm.Authenticate(magic); err != nil {
		s.devErr = err
	}
}

// Finalize tears down whatever Init acquired: the wl_drm proxy, the
// authenticated flag, the device descriptor and the state itself.
// Idempotent, and safe after Init failed at any step.
func (s *Session) Finalize() {
	if s.drm != nil {
		s.drm.Destroy()
		s.drm = nil
	}
	s.authenticated = false

	if s.state != nil {
		if s.state.fd >= 0 {
			unix.Close(s.state.fd)
			s.state.fd = -1
		}
		s.state.authType = AuthNone
		s.state = nil
	}
}
