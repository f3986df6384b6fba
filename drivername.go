package wldrm

import (
	"errors"
	"fmt"

	"github.com/wlgfx/wldrm/drm"
)

// ErrUnknownDriver means the kernel driver could not be queried or no
// backend mapping exists for it.
var ErrUnknownDriver = errors.New("wldrm: unknown driver")

// driverNameMapEntry maps a kernel module name prefix to the acceleration
// backend driver that handles it.
type driverNameMapEntry struct {
	prefix string
	name   string
}

// Order is significant: the first matching prefix wins.
var driverNameMap = []driverNameMapEntry{
	{"i915", "i965"},    // Intel OTC GenX driver
	{"pvrsrvkm", "pvr"}, // Intel UMG PVR driver
	{"emgd", "emgd"},    // Intel ECG PVR driver
}

func lookupDriverName(table []driverNameMapEntry, kernelName string) (string, bool) {
	for _, e := range table {
		if len(kernelName) >= len(e.prefix) && kernelName[:len(e.prefix)] == e.prefix {
			return e.name, true
		}
	}
	return "", false
}

// DriverName resolves the acceleration backend name for the authenticated
// device. It must not be called before Init has succeeded.
func (s *Session) DriverName() (string, error) {
	if s.state == nil || s.state.fd < 0 || !s.state.Authenticated() {
		return "", ErrNotAuthenticated
	}

	v, err := drm.GetVersion(s.state.fd)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnknownDriver, err)
	}
	name, ok := lookupDriverName(driverNameMap, v.Name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, v.Name)
	}
	return name, nil
}
