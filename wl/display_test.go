package wl_test

import (
	"errors"
	"testing"

	"github.com/wlgfx/wldrm/wl"
	"github.com/wlgfx/wldrm/wl/wltest"
)

func connect(t *testing.T, comp *wltest.Compositor) *wl.Display {
	t.Helper()
	client, server, err := wltest.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	go comp.Serve(server)

	d, err := wl.Connect(client)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestGlobalsAfterRoundTrip(t *testing.T) {
	d := connect(t, &wltest.Compositor{AdvertiseDRM: true})

	if _, ok := d.Global("wl_drm", 1); ok {
		t.Fatal("global cache populated before any round-trip")
	}
	if err := d.RoundTrip(); err != nil {
		t.Fatal(err)
	}

	if got := len(d.Globals()); got != 3 {
		t.Fatalf("got %d globals, want 3: %v", got, d.Globals())
	}
	if _, ok := d.Global("wl_drm", 1); !ok {
		t.Error("wl_drm not found at version 1")
	}
	if _, ok := d.Global("wl_drm", 3); ok {
		t.Error("wl_drm found at version 3, compositor only has 2")
	}
	if _, ok := d.Global("xdg_wm_base", 1); ok {
		t.Error("found a global that was never advertised")
	}
}

func TestRoundTripDisplayError(t *testing.T) {
	d := connect(t, &wltest.Compositor{
		SyncError: &wltest.SyncError{ObjectID: 1, Code: 2, Message: "broken pipe dance"},
	})

	err := d.RoundTrip()
	var de *wl.DisplayError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *wl.DisplayError", err)
	}
	if de.ObjectID != 1 || de.Code != 2 || de.Message != "broken pipe dance" {
		t.Fatalf("unexpected error payload: %+v", de)
	}

	// The connection is dead; the error must stick.
	if err2 := d.RoundTrip(); err2 == nil {
		t.Fatal("round-trip after fatal error succeeded")
	}
}

func TestBindDRMAndAuthenticate(t *testing.T) {
	comp := &wltest.Compositor{
		AdvertiseDRM:   true,
		DevicePath:     "/dev/dri/card0",
		Formats:        []uint32{0x34325258, 0x34325241},
		CapabilityMask: 1,
		ConfirmAuth:    true,
	}
	d := connect(t, comp)
	if err := d.RoundTrip(); err != nil {
		t.Fatal(err)
	}

	g, ok := d.Global(wl.DRMInterface.Name, 1)
	if !ok {
		t.Fatal("wl_drm global missing")
	}
	proxy, err := wl.BindDRM(d, g, wl.DRMInterface)
	if err != nil {
		t.Fatal(err)
	}

	var (
		device        string
		formats       []uint32
		caps          uint32
		authenticated bool
	)
	proxy.Device = func(path string) { device = path }
	proxy.Format = func(f uint32) { formats = append(formats, f) }
	proxy.Capabilities = func(v uint32) { caps = v }
	proxy.Authenticated = func() { authenticated = true }

	if err := d.RoundTrip(); err != nil {
		t.Fatal(err)
	}
	if device != "/dev/dri/card0" {
		t.Errorf("device = %q, want /dev/dri/card0", device)
	}
	if len(formats) != 2 {
		t.Errorf("got %d format advertisements, want 2", len(formats))
	}
	if caps != 1 {
		t.Errorf("capabilities = %d, want 1", caps)
	}
	if authenticated {
		t.Fatal("authenticated before any cookie was sent")
	}

	if err := proxy.Authenticate(0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	if err := d.RoundTrip(); err != nil {
		t.Fatal(err)
	}
	if !authenticated {
		t.Fatal("authenticated event never fired")
	}
	magics := comp.Magics()
	if len(magics) != 1 || magics[0] != 0xdeadbeef {
		t.Fatalf("compositor saw magics %v, want [0xdeadbeef]", magics)
	}

	proxy.Destroy()
	proxy.Destroy() // idempotent
}
