package wl

// wl_drm requests and events, per Mesa's wayland-drm.xml.
const (
	opDRMAuthenticate = 0

	evDRMDevice        = 0
	evDRMFormat        = 1
	evDRMAuthenticated = 2
	evDRMCapabilities  = 3
)

// DRM is a client proxy for a bound wl_drm global. Handler fields, when
// non-nil, are invoked from round-trip dispatch on the owning Display.
type DRM struct {
	// Device receives the advertised DRM device node path.
	Device func(path string)
	// Format receives one pixel format advertisement per supported
	// format.
	Format func(format uint32)
	// Authenticated fires once the compositor has validated a cookie
	// submitted through Authenticate.
	Authenticated func()
	// Capabilities receives the wl_drm capability bitmask (version 2).
	Capabilities func(value uint32)

	d  *Display
	id uint32
}

// BindDRM binds the registry global g as a wl_drm proxy using the given
// interface descriptor. The bound version never exceeds either side's.
func BindDRM(d *Display, g Global, iface Interface) (*DRM, error) {
	drm := &DRM{d: d}
	drm.id = d.newID(drmHandler{drm})

	version := iface.Version
	if g.Version < version {
		version = g.Version
	}
	req := newRequest(d.registry, opRegistryBind).
		putUint(g.Name).
		putString(iface.Name).
		putUint(version).
		putUint(drm.id)
	if err := d.send(req); err != nil {
		delete(d.objects, drm.id)
		return nil, err
	}
	return drm, nil
}

// Authenticate submits a DRM magic cookie for validation. Confirmation
// arrives as an authenticated event on a later round-trip.
func (drm *DRM) Authenticate(magic uint32) error {
	return drm.d.send(newRequest(drm.id, opDRMAuthenticate).putUint(magic))
}

// Destroy releases the client-side proxy. wl_drm defines no destructor
// request, so only the local id mapping is dropped. Safe to call once per
// proxy at any point after binding.
func (drm *DRM) Destroy() {
	if drm.d != nil {
		delete(drm.d.objects, drm.id)
		drm.d = nil
	}
}

type drmHandler struct{ drm *DRM }

func (h drmHandler) handle(opcode uint16, r *msgReader) error {
	switch opcode {
	case evDRMDevice:
		path := r.string()
		if r.err != nil {
			return r.err
		}
		if h.drm.Device != nil {
			h.drm.Device(path)
		}
	case evDRMFormat:
		format := r.uint()
		if r.err != nil {
			return r.err
		}
		if h.drm.Format != nil {
			h.drm.Format(format)
		}
	case evDRMAuthenticated:
		if h.drm.Authenticated != nil {
			h.drm.Authenticated()
		}
	case evDRMCapabilities:
		value := r.uint()
		if r.err != nil {
			return r.err
		}
		if h.drm.Capabilities != nil {
			h.drm.Capabilities(value)
		}
	}
	return nil
}
