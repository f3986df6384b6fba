package drm

import (
	"fmt"
	"unsafe"

	"github.com/wlgfx/wldrm/ioctl"
)

// auth mirrors struct drm_auth.
type auth struct {
	magic uint32
}

// GetMagic asks the kernel for an authentication cookie for fd. The cookie
// is worthless until the device's current master has validated it.
func GetMagic(fd int) (uint32, error) {
	a := &auth{}
	if err := ioctl.Do(uintptr(fd), uintptr(ioctlGetMagic), uintptr(unsafe.Pointer(a))); err != nil {
		return 0, fmt.Errorf("drm: get magic: %w", err)
	}
	return a.magic, nil
}

// AuthMagic validates a cookie previously issued to another descriptor of
// the same device. Only the current DRM master may call this.
func AuthMagic(fd int, magic uint32) error {
	a := &auth{magic: magic}
	if err := ioctl.Do(uintptr(fd), uintptr(ioctlAuthMagic), uintptr(unsafe.Pointer(a))); err != nil {
		return fmt.Errorf("drm: auth magic: %w", err)
	}
	return nil
}
