package ioctl

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Code layout follows the generic encoding from asm-generic/ioctl.h:
//
//  bits    meaning
//  31-30   direction: 00 none (_IO), 01 write (_IOW),
//          10 read (_IOR), 11 read/write (_IOWR)
//  29-16   size of the argument structure
//  15-8    ascii character unique to the driver
//  7-0     function number
//
// For example 0x82187201 decodes to a read with argument length 0x218,
// character 'r', function 1, which the kernel defines as
// VFAT_IOCTL_READDIR_BOTH. See Documentation/ioctl/ioctl-decoding.txt.

const (
	None  = uint8(0x0)
	Write = uint8(0x1)
	Read  = uint8(0x2)
)

// NewCode packs an ioctl request code from its direction, argument size,
// driver character and function number.
func NewCode(dir uint8, size uint16, uniq, fn uint8) uint32 {
	if dir > Write|Read {
		panic(fmt.Errorf("invalid ioctl direction: %d", dir))
	}
	if size >= 1<<14 {
		panic(fmt.Errorf("invalid ioctl argument size: %d", size))
	}

	var code uint32
	code |= uint32(dir) << 30
	code |= uint32(size) << 16
	code |= uint32(uniq) << 8
	code |= uint32(fn)
	return code
}

// Do issues the ioctl cmd on fd with ptr as the argument. A non-zero errno
// is returned as a unix.Errno error.
func Do(fd, cmd, ptr uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, cmd, ptr)
	if errno != 0 {
		return errno
	}
	return nil
}
