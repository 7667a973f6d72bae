package chunkstore

import (
	"github.com/voxact-mc/voxact/pkg/blockstate"
	"github.com/voxact-mc/voxact/pkg/registry"
)

// BlockPos is an absolute block position in world (not local/section)
// coordinates.
type BlockPos struct {
	X, Y, Z int32
}

// ChunkPos identifies a chunk column by its section grid coordinates
// (world block X/16, world block Z/16).
type ChunkPos struct {
	X, Z int32
}

// Chunk is a vertical stack of ChunkSections spanning a dimension type's
// [MinSection, MaxSection) range (spec.md §4.C/§4.D), plus the sparse
// block-entity map for positions whose state carries NBT-bearing data.
type Chunk struct {
	MinSection, MaxSection int32
	sections               []*ChunkSection
	blockEntities          map[BlockPos]string
}

// NewChunk allocates a chunk with one empty section per index in
// [minSection, maxSection).
func NewChunk(minSection, maxSection int32) *Chunk {
	count := int(maxSection - minSection)
	if count < 0 {
		count = 0
	}
	sections := make([]*ChunkSection, count)
	for i := range sections {
		sections[i] = Empty()
	}
	return &Chunk{
		MinSection:    minSection,
		MaxSection:    maxSection,
		sections:      sections,
		blockEntities: make(map[BlockPos]string),
	}
}

// Sections returns the chunk's sections bottom to top, for wire export.
func (c *Chunk) Sections() []*ChunkSection {
	return c.sections
}

// floorDiv is Euclidean (floor) division: unlike Go's truncating /, it
// rounds towards negative infinity, so negative world coordinates resolve
// to the section below zero rather than bouncing back towards it.
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod is the Euclidean remainder paired with floorDiv, always in
// [0, b).
func floorMod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// sectionIndex maps a world Y coordinate to a (slice index, local Y within
// the section) pair. ok is false if y falls outside the chunk's vertical
// range.
func (c *Chunk) sectionIndex(y int32) (idx int, localY int32, ok bool) {
	secY := floorDiv(y, SectionDim)
	if secY < c.MinSection || secY >= c.MaxSection {
		return 0, 0, false
	}
	return int(secY - c.MinSection), floorMod(y, SectionDim), true
}

// SetBlock writes state at an absolute block position. Positions outside
// the chunk's vertical range are silently ignored (spec.md §8: out-of-range
// writes are a no-op, distinct from the panic a section enforces for an
// out-of-[0,16)-range LocalPos).
func (c *Chunk) SetBlock(pos BlockPos, state blockstate.State, reg *registry.Container) {
	idx, localY, ok := c.sectionIndex(pos.Y)
	if !ok {
		return
	}
	local := LocalPos{X: int(floorMod(pos.X, SectionDim)), Y: int(localY), Z: int(floorMod(pos.Z, SectionDim))}
	c.sections[idx].Set(local, state, reg)

	if blockEntityType, carries := state.Component(blockstate.CustomData); carries {
		_ = blockEntityType
		c.blockEntities[pos] = state.Name
	} else {
		delete(c.blockEntities, pos)
	}
}

// GetBlock reads the block state at an absolute block position. Positions
// outside the chunk's vertical range return air without allocating
// anything (spec.md §8).
func (c *Chunk) GetBlock(pos BlockPos, reg *registry.Container) blockstate.State {
	idx, localY, ok := c.sectionIndex(pos.Y)
	if !ok {
		return blockstate.Air
	}
	local := LocalPos{X: int(floorMod(pos.X, SectionDim)), Y: int(localY), Z: int(floorMod(pos.Z, SectionDim))}
	return c.sections[idx].Get(local, reg)
}

// BlockEntityType returns the block name recorded as carrying block-entity
// data at pos, if any.
func (c *Chunk) BlockEntityType(pos BlockPos) (string, bool) {
	name, ok := c.blockEntities[pos]
	return name, ok
}
