package wldrm_test

import (
	"fmt"
	"log"

	"github.com/wlgfx/wldrm"
	"github.com/wlgfx/wldrm/wl"
)

func ExampleSession_DriverName() {
	// Authenticate against the running compositor, then select the
	// acceleration backend for its GPU.

	conn, err := wl.Dial()
	if err != nil {
		log.Fatalf("dial compositor: %s", err)
	}
	display, err := wl.Connect(conn)
	if err != nil {
		log.Fatalf("connect: %s", err)
	}
	defer display.Close()

	session := wldrm.NewSession(wldrm.Config{})
	defer session.Finalize()
	if err := session.Init(display); err != nil {
		log.Fatalf("authenticate: %s", err)
	}

	name, err := session.DriverName()
	if err != nil {
		log.Fatalf("resolve driver: %s", err)
	}
	fmt.Println(name)
}
