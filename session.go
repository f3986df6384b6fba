package wldrm

import (
	"log/slog"

	"github.com/wlgfx/wldrm/drm"
	"github.com/wlgfx/wldrm/wl"
)

// AuthType records how a DRM descriptor was authenticated.
type AuthType int

const (
	// AuthNone means the descriptor has not been authenticated.
	AuthNone AuthType = iota
	// AuthCustom means the compositor validated the magic cookie on our
	// behalf.
	AuthCustom
)

// State is the DRM half of a display context: the device descriptor and
// how it was authenticated.
//
// Invariant: FD() >= 0 implies the device node was opened successfully;
// AuthType() != AuthNone implies the compositor confirmed the cookie.
type State struct {
	fd       int
	authType AuthType
}

// FD returns the device file descriptor, or -1 when unset or closed.
func (s *State) FD() int { return s.fd }

// AuthType returns how the descriptor was authenticated.
func (s *State) AuthType() AuthType { return s.authType }

// Authenticated reports whether the compositor confirmed the cookie.
func (s *State) Authenticated() bool { return s.authType != AuthNone }

// Config carries the explicit dependencies of a Session.
type Config struct {
	// Interface overrides the bound interface descriptor. The zero value
	// means wl.DRMInterface.
	Interface wl.Interface
	// Logger is used for structured logging. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Session is one authenticate-then-map cycle and the state it acquires.
// A Session is owned by the display context that created it and is not
// safe for concurrent use.
type Session struct {
	logger *slog.Logger
	iface  wl.Interface

	drm           *wl.DRM
	state         *State
	authenticated bool
	devErr        error

	getMagic func(fd int) (uint32, error)
}

// NewSession allocates a session with an unset descriptor. Init acquires
// resources, Finalize releases them.
func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	iface := cfg.Interface
	if iface == (wl.Interface{}) {
		iface = wl.DRMInterface
	}
	return &Session{
		logger:   logger,
		iface:    iface,
		state:    &State{fd: -1},
		getMagic: drm.GetMagic,
	}
}

// State returns the session's DRM state, or nil after Finalize.
func (s *Session) State() *State { return s.state }
