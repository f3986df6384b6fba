package wl

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// SocketPath determines the path of the compositor's Unix domain socket
// from $WAYLAND_DISPLAY and $XDG_RUNTIME_DIR. It does not check that the
// path exists.
func SocketPath() string {
	v, ok := os.LookupEnv("WAYLAND_DISPLAY")
	if !ok {
		v = "wayland-0"
	}
	if filepath.IsAbs(v) {
		return v
	}

	dir, ok := os.LookupEnv("XDG_RUNTIME_DIR")
	if !ok {
		dir = fmt.Sprintf("/var/run/user/%v", os.Getuid())
	}
	return filepath.Join(dir, v)
}

// Dial opens a connection to the compositor. A socket inherited through
// $WAYLAND_SOCKET takes precedence over the socket path.
func Dial() (net.Conn, error) {
	if v, ok := os.LookupEnv("WAYLAND_SOCKET"); ok {
		fd, err := strconv.ParseInt(v, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("wl: parse WAYLAND_SOCKET fd: %w", err)
		}
		file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
		defer file.Close()

		c, err := net.FileConn(file)
		if err != nil {
			return nil, fmt.Errorf("wl: open WAYLAND_SOCKET connection: %w", err)
		}
		return c, nil
	}

	return net.Dial("unix", SocketPath())
}
