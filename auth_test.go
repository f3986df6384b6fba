package wldrm

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/wlgfx/wldrm/drm"
	"github.com/wlgfx/wldrm/wl"
	"github.com/wlgfx/wldrm/wl/wltest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dialFake(t *testing.T, comp *wltest.Compositor) *wl.Display {
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

func TestInitAuthenticates(t *testing.T) {
	comp := &wltest.Compositor{
		AdvertiseDRM: true,
		DevicePath:   "/dev/null",
		ConfirmAuth:  true,
	}
	d := dialFake(t, comp)

	s := NewSession(Config{Logger: testLogger()})
	s.getMagic = func(fd int) (uint32, error) { return 42, nil }
	if err := s.Init(d); err != nil {
		t.Fatal(err)
	}

	fd := s.State().FD()
	if fd < 0 {
		t.Fatal("descriptor not open after successful Init")
	}
	if !s.State().Authenticated() {
		t.Fatal("state not authenticated after successful Init")
	}
	if got := s.State().AuthType(); got != AuthCustom {
		t.Fatalf("auth type = %v, want AuthCustom", got)
	}
	if magics := comp.Magics(); len(magics) != 1 || magics[0] != 42 {
		t.Fatalf("compositor saw magics %v, want [42]", magics)
	}

	s.Finalize()
	if s.State() != nil {
		t.Fatal("state survived Finalize")
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); !errors.Is(err, unix.EBADF) {
		t.Fatalf("descriptor %d still open after Finalize (fcntl err %v)", fd, err)
	}
	s.Finalize() // idempotent
}

func TestInitGlobalMissing(t *testing.T) {
	d := dialFake(t, &wltest.Compositor{AdvertiseDRM: false})

	s := NewSession(Config{Logger: testLogger()})
	defer s.Finalize()

	err := s.Init(d)
	if !errors.Is(err, ErrGlobalNotFound) {
		t.Fatalf("err = %v, want ErrGlobalNotFound", err)
	}
	if fd := s.State().FD(); fd != -1 {
		t.Errorf("fd = %d, want -1", fd)
	}
}

func TestInitDeviceMissing(t *testing.T) {
	comp := &wltest.Compositor{
		AdvertiseDRM: true,
		DevicePath:   filepath.Join(t.TempDir(), "card0"),
		ConfirmAuth:  true,
	}
	d := dialFake(t, comp)

	s := NewSession(Config{Logger: testLogger()})
	defer s.Finalize()

	err := s.Init(d)
	if !errors.Is(err, ErrDeviceNotOpened) {
		t.Fatalf("err = %v, want ErrDeviceNotOpened", err)
	}
	if !errors.Is(err, unix.ENOENT) {
		t.Errorf("err = %v, want wrapped ENOENT", err)
	}
	if fd := s.State().FD(); fd != -1 {
		t.Errorf("fd = %d, want -1", fd)
	}
}

func TestInitDeviceNotCharDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card0")
	if err := os.WriteFile(path, []byte("decoy"), 0o644); err != nil {
		t.Fatal(err)
	}
	comp := &wltest.Compositor{
		AdvertiseDRM: true,
		DevicePath:   path,
		ConfirmAuth:  true,
	}
	d := dialFake(t, comp)

	s := NewSession(Config{Logger: testLogger()})
	defer s.Finalize()

	err := s.Init(d)
	if !errors.Is(err, ErrDeviceNotOpened) {
		t.Fatalf("err = %v, want ErrDeviceNotOpened", err)
	}
	if !errors.Is(err, drm.ErrNotDevice) {
		t.Errorf("err = %v, want wrapped ErrNotDevice", err)
	}
	if fd := s.State().FD(); fd != -1 {
		t.Errorf("fd = %d, want -1", fd)
	}
}

func TestInitAuthNeverConfirmed(t *testing.T) {
	comp := &wltest.Compositor{
		AdvertiseDRM: true,
		DevicePath:   "/dev/null",
		ConfirmAuth:  false,
	}
	d := dialFake(t, comp)

	s := NewSession(Config{Logger: testLogger()})
	s.getMagic = func(fd int) (uint32, error) { return 7, nil }
	defer s.Finalize()

	err := s.Init(d)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	// The device did open; only the confirmation is missing.
	if fd := s.State().FD(); fd < 0 {
		t.Error("descriptor should remain open for Finalize to reclaim")
	}
	if s.State().Authenticated() {
		t.Error("state authenticated without a confirmation event")
	}
}

func TestInitMagicRequestFails(t *testing.T) {
	// /dev/null opens fine but rejects DRM_IOCTL_GET_MAGIC, so no cookie
	// is ever submitted and the compositor has nothing to confirm.
	comp := &wltest.Compositor{
		AdvertiseDRM: true,
		DevicePath:   "/dev/null",
		ConfirmAuth:  true,
	}
	d := dialFake(t, comp)

	s := NewSession(Config{Logger: testLogger()})
	defer s.Finalize()

	err := s.Init(d)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if !errors.Is(err, unix.ENOTTY) {
		t.Errorf("err = %v, want wrapped ENOTTY from the magic ioctl", err)
	}
	if magics := comp.Magics(); len(magics) != 0 {
		t.Errorf("compositor received cookies %v, want none", magics)
	}
}

func TestFinalizeBeforeInit(t *testing.T) {
	s := NewSession(Config{Logger: testLogger()})
	s.Finalize()
	s.Finalize()
	if s.State() != nil {
		t.Fatal("state survived Finalize")
	}
}
