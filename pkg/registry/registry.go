// Package registry is the external content registry the core consumes per
// spec.md §6: dimension types, entity types, biomes, block-entity types, and
// a block-state protocol-ID interner. It never defines the catalog's actual
// content — callers populate it with registry.Builder before the server
// starts, mirroring the teacher's Config/DefaultConfig construction style.
package registry

import (
	"fmt"
	"sync"
)

// Key is a namespaced (namespace, path) identifier, e.g. "minecraft:overworld".
type Key = string

// DimensionType carries the two fields the dimension actor's lazy chunk
// initialization needs (spec.md §4.D): vertical bounds.
type DimensionType struct {
	MinY   int32
	Height uint32
}

// MinSection and MaxSection are the section-index bounds implied by this
// dimension type, per spec.md §4.D's "min_section = min_y / 16; max_section
// = (min_y + height) / 16".
func (d DimensionType) MinSection() int32 { return d.MinY / 16 }
func (d DimensionType) MaxSection() int32 { return (d.MinY + int32(d.Height)) / 16 }

// Container is the frozen, shared registry snapshot every actor reads from.
type Container struct {
	mu              sync.RWMutex
	dimensionTypes  map[Key]DimensionType
	entityTypes     map[Key]uint32
	biomes          map[Key]uint32
	blockEntityTypes map[Key]uint32
	blockStates     *blockStateTable
	defaultBiome    Key
}

// DimensionType looks up a registered dimension type by key.
func (c *Container) DimensionType(key Key) (DimensionType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.dimensionTypes[key]
	return d, ok
}

// EntityTypeID returns the protocol numeric ID for an entity type key.
func (c *Container) EntityTypeID(key Key) (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entityTypes[key]
	return id, ok
}

// BiomeID returns the protocol numeric ID for a biome key.
func (c *Container) BiomeID(key Key) (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.biomes[key]
	return id, ok
}

// DefaultBiomeID returns the numeric ID used to fill a chunk section's
// single-valued biome container in ChunkSection.ToWire.
func (c *Container) DefaultBiomeID() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id := c.biomes[c.defaultBiome]
	return id
}

// BlockEntityType returns the block-entity type ID registered for a block
// name, if that block name carries NBT-bearing block-entity data.
func (c *Container) BlockEntityType(blockName Key) (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.blockEntityTypes[blockName]
	return id, ok
}

// BlockStateID resolves a block name + sorted property string to its
// protocol ID, interning new combinations the first time they're seen.
func (c *Container) BlockStateID(name string, properties string) uint32 {
	return c.blockStates.intern(name, properties)
}

// BlockStateFromID is the reverse lookup ToWire's round-trip law depends on.
func (c *Container) BlockStateFromID(id uint32) (name string, properties string, ok bool) {
	return c.blockStates.lookup(id)
}

// Builder accumulates registry content before Build freezes it into a
// Container, matching the teacher's Config/DefaultConfig pattern.
type Builder struct {
	c *Container
}

// NewBuilder starts an empty registry builder.
func NewBuilder() *Builder {
	return &Builder{c: &Container{
		dimensionTypes:   make(map[Key]DimensionType),
		entityTypes:      make(map[Key]uint32),
		biomes:           make(map[Key]uint32),
		blockEntityTypes: make(map[Key]uint32),
		blockStates:      newBlockStateTable(),
	}}
}

func (b *Builder) DimensionType(key Key, d DimensionType) *Builder {
	b.c.dimensionTypes[key] = d
	return b
}

func (b *Builder) EntityType(key Key, id uint32) *Builder {
	b.c.entityTypes[key] = id
	return b
}

func (b *Builder) Biome(key Key, id uint32) *Builder {
	b.c.biomes[key] = id
	return b
}

func (b *Builder) DefaultBiome(key Key) *Builder {
	b.c.defaultBiome = key
	return b
}

func (b *Builder) BlockEntityType(blockName Key, id uint32) *Builder {
	b.c.blockEntityTypes[blockName] = id
	return b
}

// Build returns the finished, read-shared Container. Further mutation
// through the Builder after Build is still visible (there's no copy), but
// callers are expected to treat the returned Container as read-only, the
// same way the teacher's Config is read-only after Server.New.
func (b *Builder) Build() (*Container, error) {
	if b.c.defaultBiome == "" {
		return nil, fmt.Errorf("registry: no default biome configured")
	}
	if _, ok := b.c.biomes[b.c.defaultBiome]; !ok {
		return nil, fmt.Errorf("registry: default biome %q not registered", b.c.defaultBiome)
	}
	return b.c, nil
}

// Default returns a minimal registry sufficient to run a server out of the
// box: one dimension type (overworld-shaped), one entity type ("player"),
// one biome ("plains", also the default).
func Default() *Container {
	c, err := NewBuilder().
		DimensionType("minecraft:overworld", DimensionType{MinY: -64, Height: 384}).
		EntityType("minecraft:player", 0).
		Biome("minecraft:plains", 1).
		DefaultBiome("minecraft:plains").
		Build()
	if err != nil {
		panic(err)
	}
	return c
}

// blockStateTable interns (name, properties) pairs to dense uint32 IDs, with
// 0 reserved for air so the chunk store's "0 == not present" convention
// (spec.md §4.C) is always valid without a registry round trip.
type blockStateTable struct {
	mu      sync.Mutex
	byID    []blockStateKey
	byKey   map[blockStateKey]uint32
}

type blockStateKey struct {
	name       string
	properties string
}

func newBlockStateTable() *blockStateTable {
	t := &blockStateTable{
		byKey: make(map[blockStateKey]uint32),
	}
	t.byID = append(t.byID, blockStateKey{name: "minecraft:air"})
	t.byKey[blockStateKey{name: "minecraft:air"}] = 0
	return t
}

func (t *blockStateTable) intern(name, properties string) uint32 {
	if name == "" || name == "minecraft:air" {
		return 0
	}
	key := blockStateKey{name: name, properties: properties}
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byKey[key]; ok {
		return id
	}
	id := uint32(len(t.byID))
	t.byID = append(t.byID, key)
	t.byKey[key] = id
	return id
}

func (t *blockStateTable) lookup(id uint32) (name string, properties string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(id) >= len(t.byID) {
		return "", "", false
	}
	k := t.byID[id]
	return k.name, k.properties, true
}
