package trigger

import (
	"sync"

	"github.com/roach88/portsched/internal/graph"
)

// DefaultCapacityHint is the initial capacity of the recorded-tag buffer.
const DefaultCapacityHint = 64

// Builder creates update triggers during the graph-build phase.
//
// Build seals the builder and hands out the UpdateList for the run phase;
// RegisterTrigger fails from then on, so trigger creation cannot race with
// execution traffic.
type Builder struct {
	mu       sync.Mutex
	list     *UpdateList
	resolver EndpointResolver
	sealed   bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*builderConfig)

type builderConfig struct {
	resolver     EndpointResolver
	capacityHint int
}

// WithResolver makes RegisterTrigger reject edges that r cannot resolve.
func WithResolver(r EndpointResolver) BuilderOption {
	return func(c *builderConfig) {
		c.resolver = r
	}
}

// WithCapacityHint pre-sizes the recorded-tag buffer. Typically the number
// of edges in the graph.
func WithCapacityHint(n int) BuilderOption {
	return func(c *builderConfig) {
		if n > 0 {
			c.capacityHint = n
		}
	}
}

// NewBuilder creates a builder for one execution graph.
func NewBuilder(opts ...BuilderOption) *Builder {
	cfg := builderConfig{capacityHint: DefaultCapacityHint}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{
		list:     newUpdateList(cfg.capacityHint),
		resolver: cfg.resolver,
	}
}

// RegisterTrigger creates a trigger bound to edge and returns its handle.
// The handle stays valid for the lifetime of the UpdateList.
func (b *Builder) RegisterTrigger(edge graph.EdgeIndex) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return Handle{}, newSealedError("register trigger", edge)
	}
	if b.resolver != nil {
		if _, _, ok := b.resolver.EdgeEndpoints(edge); !ok {
			return Handle{}, newUnknownEdgeError(edge)
		}
	}
	return b.list.register(updateTrigger{edge: edge}), nil
}

// Build seals the builder and returns the UpdateList.
// Calling Build twice is an error.
func (b *Builder) Build() (*UpdateList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return nil, newSealedError("build", 0)
	}
	b.sealed = true
	return b.list, nil
}

// Sealed reports whether Build has been called.
func (b *Builder) Sealed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sealed
}
