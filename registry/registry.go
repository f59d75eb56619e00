package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/sckm"
	"github.com/hupe1980/sckm/blobstore"
	"github.com/hupe1980/sckm/resource"
	"github.com/hupe1980/sckm/snapshot"
)

var (
	// ErrNotRegistered is returned when no model is held under the name.
	ErrNotRegistered = errors.New("registry: model not registered")

	// ErrAlreadyRegistered is returned when the name is already taken.
	ErrAlreadyRegistered = errors.New("registry: model already registered")

	// ErrNoSnapshot is returned by Restore when nothing has been
	// published under the name yet.
	ErrNoSnapshot = errors.New("registry: no published snapshot")
)

type options struct {
	controller  *resource.Controller
	mirrors     []blobstore.BlobStore
	logger      *sckm.Logger
	compression snapshot.CompressionType
}

// Option configures a Registry.
type Option func(*options)

// WithController arbitrates training slots and snapshot IO through the
// given controller. A nil controller enforces nothing.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithMirrors replicates every publish to the given secondary stores.
// Mirrors are best-effort targets for reads but must all accept a
// publish for it to succeed.
func WithMirrors(stores ...blobstore.BlobStore) Option {
	return func(o *options) {
		o.mirrors = append(o.mirrors, stores...)
	}
}

// WithLogger configures structured logging for registry operations.
func WithLogger(logger *sckm.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = sckm.NoopLogger()
		}
		o.logger = logger
	}
}

// WithCompression selects the snapshot payload compression used by
// Publish.
func WithCompression(c snapshot.CompressionType) Option {
	return func(o *options) {
		o.compression = c
	}
}

// Registry holds named models and manages their snapshot lifecycle
// against a blob store. It owns the models registered in it: replacing
// or deregistering a model closes it, and Close closes them all.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*sckm.SCKM
	closed bool

	// pubMu serializes version allocation and the store writes of a
	// publish, keeping concurrent publishes from claiming the same
	// version or moving CURRENT backwards.
	pubMu sync.Mutex

	store blobstore.BlobStore
	opts  options
}

// New creates a registry publishing to the given primary store.
func New(store blobstore.BlobStore, optFns ...Option) *Registry {
	o := options{
		logger:      sckm.NoopLogger(),
		compression: snapshot.CompressionZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	return &Registry{
		models: make(map[string]*sckm.SCKM),
		store:  store,
		opts:   o,
	}
}

// Register adds a model under the given name and transfers its
// ownership to the registry.
func (r *Registry) Register(name string, m *sckm.SCKM) error {
	if name == "" {
		return fmt.Errorf("registry: empty model name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return sckm.ErrClosed
	}
	if _, ok := r.models[name]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}

	r.models[name] = m
	return nil
}

// Get returns the model held under the name.
func (r *Registry) Get(name string) (*sckm.SCKM, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, sckm.ErrClosed
	}

	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return m, nil
}

// Deregister removes the model and closes it. Deregistering an absent
// name is an error; published snapshots are left untouched.
func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	m, ok := r.models[name]
	if ok {
		delete(r.models, name)
	}
	closed := r.closed
	r.mu.Unlock()

	if closed {
		return sckm.ErrClosed
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return m.Close()
}

// Names returns the registered model names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Train runs a training job for the named model through the
// controller's training slots, so concurrent trainings across models
// stay within the configured limit.
func (r *Registry) Train(ctx context.Context, name string, eta int) error {
	m, err := r.Get(name)
	if err != nil {
		return err
	}

	if err := r.opts.controller.AcquireTrainSlot(ctx); err != nil {
		return fmt.Errorf("registry: acquire training slot: %w", err)
	}
	defer r.opts.controller.ReleaseTrainSlot()

	return m.Train(ctx, eta)
}

// Close closes every registered model. Further operations return
// sckm.ErrClosed. Close is idempotent; the first error encountered is
// returned, but all models are closed regardless.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	models := r.models
	r.models = nil
	r.mu.Unlock()

	var firstErr error
	for _, m := range models {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// swap installs m under name, closing any model it replaces.
func (r *Registry) swap(name string, m *sckm.SCKM) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		m.Close()
		return sckm.ErrClosed
	}
	old := r.models[name]
	r.models[name] = m
	r.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}
