// Package drm exposes the subset of the Linux Direct Rendering Manager
// ioctl interface needed to authenticate against a display server and
// identify the kernel driver behind a device node.
package drm

import (
	"bytes"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/wlgfx/wldrm/ioctl"
)

const driPath = "/dev/dri"

// ErrNotDevice reports that a device path exists but is not a character
// device node.
var ErrNotDevice = errors.New("drm: not a character device")

type (
	version struct {
		Major   int32
		Minor   int32
		Patch   int32
		namelen int64
		name    uintptr
		datelen int64
		date    uintptr
		desclen int64
		desc    uintptr
	}

	// Version describes the kernel driver backing a DRM file descriptor.
	Version struct {
		Major, Minor, Patch int32
		Name                string // kernel module name (eg.: i915)
		Date                string
		Desc                string
	}
)

// OpenDevice validates and opens the DRM device node at path for reading
// and writing. The path must exist and be a character device.
func OpenDevice(path string) (int, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return -1, fmt.Errorf("drm: stat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return -1, fmt.Errorf("drm: %s: %w", path, ErrNotDevice)
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("drm: open %s: %w", path, err)
	}
	return fd, nil
}

// OpenCard opens the legacy node /dev/dri/cardN.
func OpenCard(n int) (int, error) {
	return OpenDevice(fmt.Sprintf("%s/card%d", driPath, n))
}

// OpenRenderDev opens the render node /dev/dri/renderDN.
func OpenRenderDev(n int) (int, error) {
	return OpenDevice(fmt.Sprintf("%s/renderD%d", driPath, n))
}

// GetVersion queries the version and name of the kernel driver behind fd.
// The query is issued twice: first to learn the string lengths, then again
// with buffers attached.
func GetVersion(fd int) (Version, error) {
	v := &version{}
	if err := ioctl.Do(uintptr(fd), uintptr(ioctlVersion), uintptr(unsafe.Pointer(v))); err != nil {
		return Version{}, fmt.Errorf("drm: version query: %w", err)
	}

	var name, date, desc []byte
	if v.namelen > 0 {
		name = make([]byte, v.namelen+1)
		v.name = uintptr(unsafe.Pointer(&name[0]))
	}
	if v.datelen > 0 {
		date = make([]byte, v.datelen+1)
		v.date = uintptr(unsafe.Pointer(&date[0]))
	}
	if v.desclen > 0 {
		desc = make([]byte, v.desclen+1)
		v.desc = uintptr(unsafe.Pointer(&desc[0]))
	}

	if err := ioctl.Do(uintptr(fd), uintptr(ioctlVersion), uintptr(unsafe.Pointer(v))); err != nil {
		return Version{}, fmt.Errorf("drm: version query: %w", err)
	}

	trim := func(b []byte, n int64) string {
		return string(bytes.TrimRight(b[:n], "\x00"))
	}
	return Version{
		Major: v.Major,
		Minor: v.Minor,
		Patch: v.Patch,
		Name:  trim(name, v.namelen),
		Date:  trim(date, v.datelen),
		Desc:  trim(desc, v.desclen),
	}, nil
}
