package gfx

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/e7canasta/videopipe/pixel"
)

// MaxBackends bounds the registry. Embedded targets ship a handful of
// backends at most.
const MaxBackends = 8

var (
	// ErrRegistryFull is returned by Register when MaxBackends are
	// already registered.
	ErrRegistryFull = errors.New("gfx: backend registry full")
	// ErrInvalidBackend is returned by Register for a nil backend or
	// an empty name.
	ErrInvalidBackend = errors.New("gfx: invalid backend")
	// ErrDuplicateBackend is returned by Register for a name that is
	// already taken.
	ErrDuplicateBackend = errors.New("gfx: backend already registered")
	// ErrNoBackends is returned by Activate when nothing is
	// registered.
	ErrNoBackends = errors.New("gfx: no backends registered")
	// ErrBackendActive is returned by Activate while a display is
	// already open. Shutdown first.
	ErrBackendActive = errors.New("gfx: a backend is already active")
)

// Registry owns the set of available backends and the lifecycle of the
// active display. The first backend registered is the default.
//
// A Registry is an explicit dependency: construct one, register
// backends, and hand it to whoever drives presentation. There is no
// process-global registry.
type Registry struct {
	mu       sync.Mutex
	log      *slog.Logger
	backends []Backend

	active  Backend
	display Display
}

// NewRegistry creates an empty registry. A nil logger falls back to
// slog.Default().
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{log: log}
}

// Register adds a backend. The first registration becomes the default
// selection for Activate("").
func (r *Registry) Register(b Backend) error {
	if b == nil || b.Name() == "" {
		return ErrInvalidBackend
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.backends) >= MaxBackends {
		return ErrRegistryFull
	}
	for _, existing := range r.backends {
		if existing.Name() == b.Name() {
			return fmt.Errorf("%w: %q", ErrDuplicateBackend, b.Name())
		}
	}
	r.backends = append(r.backends, b)
	r.log.Debug("gfx: backend registered", "name", b.Name(), "caps", uint32(b.Capabilities()))
	return nil
}

// Activate selects a backend by name and initializes its display for
// the given frame geometry. The empty name selects the default. An
// unknown name logs a warning and falls back to the default rather
// than failing: a launcher with a stale config should still get a
// picture. On Init failure no backend is active.
func (r *Registry) Activate(name string, width, height int, format pixel.Format) (Display, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.display != nil {
		return nil, ErrBackendActive
	}
	if len(r.backends) == 0 {
		return nil, ErrNoBackends
	}

	b := r.backends[0]
	if name != "" {
		found := false
		for _, candidate := range r.backends {
			if candidate.Name() == name {
				b = candidate
				found = true
				break
			}
		}
		if !found {
			r.log.Warn("gfx: unknown backend, falling back to default",
				"requested", name, "default", b.Name())
		}
	}

	d, err := b.Init(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("gfx: init backend %q: %w", b.Name(), err)
	}
	r.active = b
	r.display = d
	r.log.Info("gfx: backend active",
		"name", b.Name(), "width", width, "height", height, "format", format.String())
	return d, nil
}

// Active returns the active backend and display, if any.
func (r *Registry) Active() (Backend, Display, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.display == nil {
		return nil, nil, false
	}
	return r.active, r.display, true
}

// Shutdown closes the active display. Calling it with no active
// backend, or a second time, is a no-op.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.display == nil {
		return nil
	}
	err := r.display.Close()
	r.log.Info("gfx: backend shut down", "name", r.active.Name())
	r.active = nil
	r.display = nil
	if err != nil {
		return fmt.Errorf("gfx: close display: %w", err)
	}
	return nil
}

// Backends returns the registered backend names in registration order.
func (r *Registry) Backends() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.backends))
	for i, b := range r.backends {
		names[i] = b.Name()
	}
	return names
}
