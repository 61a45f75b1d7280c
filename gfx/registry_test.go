package gfx_test

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/e7canasta/videopipe/gfx"
	"github.com/e7canasta/videopipe/pixel"
)

// fakeBackend records lifecycle calls for registry tests.
type fakeBackend struct {
	name    string
	caps    gfx.Capability
	initErr error

	inits  int
	closes int
}

type fakeDisplay struct {
	owner *fakeBackend
}

func (b *fakeBackend) Name() string                 { return b.name }
func (b *fakeBackend) Capabilities() gfx.Capability { return b.caps }

func (b *fakeBackend) Init(width, height int, format pixel.Format) (gfx.Display, error) {
	b.inits++
	if b.initErr != nil {
		return nil, b.initErr
	}
	return &fakeDisplay{owner: b}, nil
}

func (d *fakeDisplay) Present(buf []byte, width, height, pitch int) error { return nil }

func (d *fakeDisplay) Close() error {
	d.owner.closes++
	return nil
}

// TestRegisterValidation validates registration rules.
//
// Contract:
//   - nil backend and empty name are rejected
//   - duplicate names are rejected
//   - at most MaxBackends registrations succeed
func TestRegisterValidation(t *testing.T) {
	reg := gfx.NewRegistry(slog.Default())

	if err := reg.Register(nil); !errors.Is(err, gfx.ErrInvalidBackend) {
		t.Errorf("Register(nil) = %v, want ErrInvalidBackend", err)
	}
	if err := reg.Register(&fakeBackend{name: ""}); !errors.Is(err, gfx.ErrInvalidBackend) {
		t.Errorf("Register(empty name) = %v, want ErrInvalidBackend", err)
	}

	if err := reg.Register(&fakeBackend{name: "fbdev"}); err != nil {
		t.Fatalf("Register(fbdev) failed: %v", err)
	}
	if err := reg.Register(&fakeBackend{name: "fbdev"}); !errors.Is(err, gfx.ErrDuplicateBackend) {
		t.Errorf("Register(duplicate) = %v, want ErrDuplicateBackend", err)
	}

	for i := 1; i < gfx.MaxBackends; i++ {
		if err := reg.Register(&fakeBackend{name: fmt.Sprintf("b%d", i)}); err != nil {
			t.Fatalf("Register(b%d) failed: %v", i, err)
		}
	}
	if err := reg.Register(&fakeBackend{name: "overflow"}); !errors.Is(err, gfx.ErrRegistryFull) {
		t.Errorf("Register past MaxBackends = %v, want ErrRegistryFull", err)
	}

	t.Logf("✅ Registration rules enforced (%d backends)", len(reg.Backends()))
}

// TestActivateDefaultAndFallback validates selection semantics.
//
// Contract:
//   - Activate on an empty registry fails with ErrNoBackends
//   - "" selects the first registered backend
//   - an unknown name falls back to the default instead of failing
func TestActivateDefaultAndFallback(t *testing.T) {
	reg := gfx.NewRegistry(slog.Default())

	if _, err := reg.Activate("", 640, 480, pixel.RGB565); !errors.Is(err, gfx.ErrNoBackends) {
		t.Errorf("Activate on empty registry = %v, want ErrNoBackends", err)
	}

	first := &fakeBackend{name: "first", caps: gfx.CapTripleBuffer}
	second := &fakeBackend{name: "second"}
	for _, b := range []*fakeBackend{first, second} {
		if err := reg.Register(b); err != nil {
			t.Fatalf("Register(%s) failed: %v", b.name, err)
		}
	}

	// Empty name selects the first registered backend.
	if _, err := reg.Activate("", 640, 480, pixel.RGB565); err != nil {
		t.Fatalf("Activate(\"\") failed: %v", err)
	}
	if b, _, ok := reg.Active(); !ok || b.Name() != "first" {
		t.Errorf("Active() = %v (expected default backend \"first\")", b)
	}
	if err := reg.Shutdown(); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	// Unknown name falls back to the default with a warning.
	if _, err := reg.Activate("wayland", 640, 480, pixel.RGB565); err != nil {
		t.Fatalf("Activate(unknown) failed: %v", err)
	}
	if b, _, ok := reg.Active(); !ok || b.Name() != "first" {
		t.Errorf("Active() after unknown name = %v (expected fallback \"first\")", b)
	}
	reg.Shutdown()

	// Exact name selects that backend.
	if _, err := reg.Activate("second", 640, 480, pixel.RGB565); err != nil {
		t.Fatalf("Activate(second) failed: %v", err)
	}
	if b, _, ok := reg.Active(); !ok || b.Name() != "second" {
		t.Errorf("Active() = %v (expected \"second\")", b)
	}
	reg.Shutdown()

	t.Logf("✅ Default and fallback selection validated")
}

// TestActivateFailureLeavesNoActive validates that a failing Init
// leaves the registry inactive and a second Activate may try again.
func TestActivateFailureLeavesNoActive(t *testing.T) {
	reg := gfx.NewRegistry(slog.Default())
	broken := &fakeBackend{name: "broken", initErr: errors.New("device busy")}
	if err := reg.Register(broken); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := reg.Activate("", 640, 480, pixel.RGB565); err == nil {
		t.Fatal("Activate with failing Init succeeded")
	}
	if _, _, ok := reg.Active(); ok {
		t.Error("Active() = true after failed Init")
	}

	// Backend recovers; Activate works without an intervening Shutdown.
	broken.initErr = nil
	if _, err := reg.Activate("", 640, 480, pixel.RGB565); err != nil {
		t.Fatalf("Activate after recovery failed: %v", err)
	}
	reg.Shutdown()

	t.Logf("✅ Failed Init leaves registry inactive")
}

// TestShutdownIdempotent validates display lifecycle.
//
// Contract:
//   - Shutdown closes the active display exactly once
//   - Shutdown with no active backend is a no-op
//   - Activate while active fails with ErrBackendActive
func TestShutdownIdempotent(t *testing.T) {
	reg := gfx.NewRegistry(slog.Default())
	b := &fakeBackend{name: "only"}
	if err := reg.Register(b); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := reg.Shutdown(); err != nil {
		t.Errorf("Shutdown with nothing active = %v, want nil", err)
	}

	if _, err := reg.Activate("", 640, 480, pixel.RGB565); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if _, err := reg.Activate("", 640, 480, pixel.RGB565); !errors.Is(err, gfx.ErrBackendActive) {
		t.Errorf("second Activate = %v, want ErrBackendActive", err)
	}

	if err := reg.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := reg.Shutdown(); err != nil {
		t.Errorf("second Shutdown = %v, want nil", err)
	}
	if b.closes != 1 {
		t.Errorf("display closed %d times (expected 1)", b.closes)
	}

	t.Logf("✅ Shutdown idempotent, display closed once")
}

// TestCapabilityHas validates bitset queries.
func TestCapabilityHas(t *testing.T) {
	caps := gfx.CapVSync | gfx.CapTripleBuffer
	if !caps.Has(gfx.CapVSync) || !caps.Has(gfx.CapTripleBuffer) {
		t.Error("Has() = false for set bits")
	}
	if caps.Has(gfx.CapShaders) {
		t.Error("Has(CapShaders) = true for unset bit")
	}
	if !caps.Has(gfx.CapVSync | gfx.CapTripleBuffer) {
		t.Error("Has() = false for combined set bits")
	}
	if caps.Has(gfx.CapVSync | gfx.CapRotation) {
		t.Error("Has() = true when one of two bits is missing")
	}
	t.Logf("✅ Capability bitset queries validated")
}
