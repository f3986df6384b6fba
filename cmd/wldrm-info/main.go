// Command wldrm-info authenticates against the running Wayland compositor
// and reports which acceleration backend its GPU maps to.
package main

import (
	"fmt"
	"log"

	"github.com/wlgfx/wldrm"
	"github.com/wlgfx/wldrm/drm"
	"github.com/wlgfx/wldrm/wl"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("wldrm-info: ")

	conn, err := wl.Dial()
	if err != nil {
		log.Fatalf("dial compositor: %v", err)
	}
	display, err := wl.Connect(conn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer display.Close()

	session := wldrm.NewSession(wldrm.Config{})
	defer session.Finalize()
	if err := session.Init(display); err != nil {
		log.Fatalf("authenticate: %v", err)
	}

	fd := session.State().FD()
	version, err := drm.GetVersion(fd)
	if err != nil {
		log.Fatalf("driver version: %v", err)
	}
	fmt.Printf("kernel driver: %s %d.%d.%d (%s)\n",
		version.Name, version.Major, version.Minor, version.Patch, version.Date)
	fmt.Printf("prime support: %v\n", drm.HasPrime(fd))

	name, err := session.DriverName()
	if err != nil {
		log.Fatalf("resolve driver name: %v", err)
	}
	fmt.Printf("backend driver: %s\n", name)
}
