// Package dimension implements the dimension actor (spec.md §4.D): owner of
// one world's chunk grid and entity table. Like every other long-lived
// entity in this codebase it is a single goroutine reached only through its
// mailbox (pkg/actor) — state below is never touched outside that goroutine.
//
// Grounded on the teacher's *Server holding world *world.World plus
// map[int32]*ItemEntity directly (pkg/server/server.go), split out into its
// own actor so a server can host more than one world concurrently.
package dimension

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/voxact-mc/voxact/pkg/actor"
	"github.com/voxact-mc/voxact/pkg/blockstate"
	"github.com/voxact-mc/voxact/pkg/chunkstore"
	"github.com/voxact-mc/voxact/pkg/events"
	"github.com/voxact-mc/voxact/pkg/protocol"
	"github.com/voxact-mc/voxact/pkg/registry"
	"github.com/voxact-mc/voxact/pkg/taskrt"
)

// GeneratorFunc populates a freshly allocated, all-air chunk at chunk
// coordinates (cx, cz). Core ships no terrain-generation algorithm of its
// own (spec.md Non-goals); callers supply one via Handle.SetChunkGenerator.
type GeneratorFunc func(chunk *chunkstore.Chunk, cx, cz int32)

// Broadcaster is satisfied by the server actor so a dimension can push wire
// packets out to connected players — block updates (spec.md §9 redesign:
// broadcast scope is the whole server, not just the owning dimension) and
// entity visibility (spec.md §4.D spawn/remove/move) — without this package
// importing pkg/server, the same leaf-interface trick pkg/events uses.
type Broadcaster interface {
	BroadcastBlockChange(dimensionKey string, pos chunkstore.BlockPos, state blockstate.State)
	BroadcastToDimension(dimKey string, exclude uuid.UUID, pkt *protocol.Packet)
}

type state struct {
	key           string
	reg           *registry.Container
	dimType       registry.DimensionType
	chunks        map[chunkstore.ChunkPos]*chunkstore.Chunk
	entities      map[uuid.UUID]*EntityRecord
	nextEntityID  int32
	generator     GeneratorFunc
	bus           *events.Bus
	broadcaster   Broadcaster
	maxChunks     int
}

// Handle is the shared, copyable reference to a running dimension actor.
type Handle struct {
	a actor.Handle
	s *state
}

// Key returns the dimension's registry key, satisfying events.Dimension.
func (h Handle) Key() string { return h.s.key }

// Spawn starts a new dimension actor for dimensionTypeKey and returns a
// Handle to it. bus is the shared server event bus; broadcaster lets
// SetBlock push a server-wide update without a package import cycle.
func Spawn(dimensionTypeKey string, reg *registry.Container, bus *events.Bus, broadcaster Broadcaster) (Handle, error) {
	dimType, ok := reg.DimensionType(dimensionTypeKey)
	if !ok {
		return Handle{}, fmt.Errorf("dimension: unknown dimension type %q", dimensionTypeKey)
	}

	st := &state{
		key:          dimensionTypeKey,
		reg:          reg,
		dimType:      dimType,
		chunks:       make(map[chunkstore.ChunkPos]*chunkstore.Chunk),
		entities:     make(map[uuid.UUID]*EntityRecord),
		nextEntityID: 1,
		bus:          bus,
		broadcaster:  broadcaster,
		maxChunks:    0, // 0 until SetMaxChunks is called
	}

	mailbox, run := actor.NewMailbox(256)
	taskrt.SpawnActor("dimension:"+dimensionTypeKey, func() {
		run(func(fn func()) { fn() })
	})

	h := Handle{a: mailbox, s: st}
	return h, nil
}

// Weak returns a liveness-only reference: safe to hold from long-lived
// structures (e.g. a connection) without keeping the dimension's mailbox
// goroutine from being treated as gone once it exits.
func (h Handle) Weak() WeakHandle {
	return WeakHandle{w: h.a.Weak(), s: h.s}
}

// WeakHandle is the dimension-typed analogue of actor.WeakHandle.
type WeakHandle struct {
	w actor.WeakHandle
	s *state
}

func (w WeakHandle) Upgrade() (Handle, error) {
	a, err := w.w.Upgrade()
	if err != nil {
		return Handle{}, err
	}
	return Handle{a: a, s: w.s}, nil
}

// chunkPosForBlock converts an absolute block position to its owning chunk
// column coordinate.
func chunkPosForBlock(pos chunkstore.BlockPos) chunkstore.ChunkPos {
	return chunkstore.ChunkPos{X: floorDiv16(pos.X), Z: floorDiv16(pos.Z)}
}

func floorDiv16(v int32) int32 {
	if v >= 0 {
		return v / 16
	}
	return -((-v + 15) / 16)
}

// ensureChunk returns the chunk at pos, generating and inserting it on
// first access via the configured GeneratorFunc (or leaving it all-air if
// none is set), then dispatching ChunkLoadEvent.
func (st *state) ensureChunk(pos chunkstore.ChunkPos) *chunkstore.Chunk {
	if c, ok := st.chunks[pos]; ok {
		return c
	}
	c := chunkstore.NewChunk(st.dimType.MinSection(), st.dimType.MaxSection())
	if st.generator != nil {
		st.generator(c, pos.X, pos.Z)
	}
	st.chunks[pos] = c
	if st.bus != nil {
		events.Dispatch(st.bus, events.ChunkLoadEvent{
			Dimension: dimensionView{st.key},
			Pos:       events.IVec2{X: pos.X, Z: pos.Z},
		})
	}
	return c
}

type dimensionView struct{ key string }

func (d dimensionView) Key() string { return d.key }

// GetBlock reads the block state at an absolute world position, lazily
// generating the owning chunk if it has not been loaded yet.
func (h Handle) GetBlock(pos chunkstore.BlockPos) (blockstate.State, error) {
	return actor.Call(h.a, func() (blockstate.State, error) {
		c := h.s.ensureChunk(chunkPosForBlock(pos))
		return c.GetBlock(pos, h.s.reg), nil
	})
}

// SetBlock writes a block state at an absolute world position and
// broadcasts the change server-wide (spec.md §9 redesign decision).
func (h Handle) SetBlock(pos chunkstore.BlockPos, newState blockstate.State) error {
	return actor.CallVoid(h.a, func() error {
		c := h.s.ensureChunk(chunkPosForBlock(pos))
		c.SetBlock(pos, newState, h.s.reg)
		if h.s.broadcaster != nil {
			h.s.broadcaster.BroadcastBlockChange(h.s.key, pos, newState)
		}
		return nil
	})
}

// GetChunkSection returns the wire bytes for one section of the chunk
// column at (cx, cz), generating the chunk if necessary. sectionIndex is
// relative to the dimension type's MinSection.
func (h Handle) GetChunkSection(cx, cz int32, sectionIndex int) ([]byte, error) {
	return actor.Call(h.a, func() ([]byte, error) {
		c := h.s.ensureChunk(chunkstore.ChunkPos{X: cx, Z: cz})
		sections := c.Sections()
		if sectionIndex < 0 || sectionIndex >= len(sections) {
			return nil, fmt.Errorf("dimension: section index %d out of range [0,%d)", sectionIndex, len(sections))
		}
		return sections[sectionIndex].ToWire(h.s.reg)
	})
}

// SetChunkGenerator installs the generator used for chunks not yet loaded.
// Chunks already generated are unaffected.
func (h Handle) SetChunkGenerator(gen GeneratorFunc) error {
	return actor.CallVoid(h.a, func() error {
		h.s.generator = gen
		return nil
	})
}

// MaxChunks returns the value last stored by SetMaxChunks, or 0 if it was
// never called.
func (h Handle) MaxChunks() (int, error) {
	return actor.Call(h.a, func() (int, error) {
		return h.s.maxChunks, nil
	})
}

// SetMaxChunks stores a chunk-count setting that MaxChunks reports. Nothing
// else reads it: chunk generation and connection chunk streaming are not
// limited by it, and chunks at any coordinate are generated on access.
func (h Handle) SetMaxChunks(n int) error {
	return actor.CallVoid(h.a, func() error {
		h.s.maxChunks = n
		return nil
	})
}
