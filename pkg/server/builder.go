package server

import (
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/voxact-mc/voxact/pkg/connection"
	"github.com/voxact-mc/voxact/pkg/dimension"
	"github.com/voxact-mc/voxact/pkg/events"
	"github.com/voxact-mc/voxact/pkg/registry"
	"github.com/voxact-mc/voxact/pkg/taskrt"
)

// OnJoinFunc decides which dimension and spawn position a newly
// authenticated connection should join. Overriding it replaces the default
// (send everyone to DefaultDimension at a fixed spawn point) with whatever
// per-player placement logic the embedder needs — the redesigned,
// synchronous callback that replaces the Rust original's busy-waited
// mutable join-target cell (SPEC_FULL.md §9).
type OnJoinFunc func(s *Server, conn connection.Handle) (dimension.Handle, events.DVec3, error)

// Builder accumulates configuration, registry content, dimensions, and
// event handlers before Run freezes them into a running Server —
// the same staged-construction shape as the teacher's Config/New, widened
// to also own event-bus registration (pkg/events.On can only be called
// before Run calls Bus.Freeze).
type Builder struct {
	config Config
	reg    *registry.Container
	bus    *events.Bus
	onJoin OnJoinFunc

	dimensionKeys []string
	defaultDim    string

	buildErr error
}

// NewBuilder starts a builder with registry.Default() and DefaultConfig().
func NewBuilder() *Builder {
	return &Builder{
		config: DefaultConfig(),
		reg:    registry.Default(),
		bus:    events.NewBus(),
	}
}

// Config overrides the server's network/capacity settings.
func (b *Builder) Config(c Config) *Builder {
	b.config = c
	return b
}

// Registry overrides the default registry content.
func (b *Builder) Registry(reg *registry.Container) *Builder {
	b.reg = reg
	return b
}

// Dimension marks dimensionTypeKey to be spawned when the server starts.
// The first call also becomes the default join target unless OnJoin is
// overridden.
func (b *Builder) Dimension(dimensionTypeKey string) *Builder {
	b.dimensionKeys = append(b.dimensionKeys, dimensionTypeKey)
	if b.defaultDim == "" {
		b.defaultDim = dimensionTypeKey
	}
	return b
}

// OnJoin overrides the default join-placement callback.
func (b *Builder) OnJoin(fn OnJoinFunc) *Builder {
	b.onJoin = fn
	return b
}

// On registers a typed event handler on the server's bus. A thin pass
// through to pkg/events.On so callers don't need to reach into Server
// internals before the server exists.
func On[E any](b *Builder, handler func(*E) error) *Builder {
	events.On(b.bus, handler)
	return b
}

// Build constructs the Server and starts its configured dimensions, but
// does not open the network listener or freeze the event bus — useful for
// tests that want a live Server without accepting connections.
func (b *Builder) Build() (*Server, error) {
	if len(b.dimensionKeys) == 0 {
		return nil, fmt.Errorf("server: no dimensions configured")
	}

	s := &Server{
		config:      b.config,
		registry:    b.reg,
		bus:         b.bus,
		dimensions:  make(map[string]dimension.Handle),
		defaultDim:  b.defaultDim,
		connsByUUID: make(map[uuid.UUID]connection.Handle),
		connsByDim:  make(map[string]map[uuid.UUID]connection.Handle),
		stopCh:      make(chan struct{}),
	}

	for _, key := range b.dimensionKeys {
		dim, err := dimension.Spawn(key, b.reg, b.bus, s)
		if err != nil {
			return nil, err
		}
		s.dimensions[key] = dim
		events.Dispatch(b.bus, events.DimensionCreateEvent{Dimension: dim, Server: s})
	}

	if b.onJoin != nil {
		override := b.onJoin
		s.joinOverride = func(conn connection.Handle) (dimension.Handle, events.DVec3, error) {
			return override(s, conn)
		}
	}

	return s, nil
}

// Run calls Build to construct a new Server (a Server from an earlier Build
// call is not reused), freezes the event bus, opens the listener, and
// starts the accept loop and tick loop. Event handlers cannot be registered
// after Run.
func (b *Builder) Run() (*Server, error) {
	s, err := b.Build()
	if err != nil {
		return nil, err
	}

	s.bus.Freeze()

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return nil, fmt.Errorf("server: listen on %s: %w", s.config.Address, err)
	}
	s.listener = listener

	events.Dispatch(s.bus, events.ServerStartEvent{Server: s})

	taskrt.SpawnActor("server:accept", s.acceptLoop)
	taskrt.SpawnActor("server:tick", s.tickLoop)

	return s, nil
}
