package drm

import (
	"fmt"
	"unsafe"

	"github.com/wlgfx/wldrm/ioctl"
)

// capability mirrors struct drm_get_cap.
type capability struct {
	cap uint64
	val uint64
}

const (
	CapDumbBuffer = iota + 1
	CapVBlankHighCRTC
	CapDumbPreferredDepth
	CapDumbPreferShadow
	CapPrime
	CapTimestampMonotonic
	CapAsyncPageFlip
	CapCursorWidth
	CapCursorHeight

	CapAddFB2Modifiers = 0x10
)

// GetCap queries a device capability value.
func GetCap(fd int, cap uint64) (uint64, error) {
	c := &capability{cap: cap}
	if err := ioctl.Do(uintptr(fd), uintptr(ioctlGetCap), uintptr(unsafe.Pointer(c))); err != nil {
		return 0, fmt.Errorf("drm: get cap %d: %w", cap, err)
	}
	return c.val, nil
}

// HasPrime reports whether the device supports PRIME buffer sharing.
func HasPrime(fd int) bool {
	val, err := GetCap(fd, CapPrime)
	return err == nil && val != 0
}
