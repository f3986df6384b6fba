// Package wldrm implements the handshake a video acceleration stack
// performs at display-context setup on Wayland: discover the compositor's
// wl_drm global, open and authenticate the advertised DRM device node,
// then map the kernel driver behind it to the acceleration backend that
// drives it.
package wldrm
