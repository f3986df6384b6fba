package drm

import (
	"unsafe"

	"github.com/wlgfx/wldrm/ioctl"
)

const ioctlBase = 'd'

var (
	// DRM_IOWR(0x00, struct drm_version)
	ioctlVersion = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(version{})), ioctlBase, 0x00)

	// DRM_IOR(0x02, struct drm_auth)
	ioctlGetMagic = ioctl.NewCode(ioctl.Read,
		uint16(unsafe.Sizeof(auth{})), ioctlBase, 0x02)

	// DRM_IOW(0x11, struct drm_auth)
	ioctlAuthMagic = ioctl.NewCode(ioctl.Write,
		uint16(unsafe.Sizeof(auth{})), ioctlBase, 0x11)

	// DRM_IOWR(0x0c, struct drm_get_cap)
	ioctlGetCap = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(capability{})), ioctlBase, 0x0c)
)
