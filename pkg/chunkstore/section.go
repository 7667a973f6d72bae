// Package chunkstore is the in-memory voxel storage component (spec.md
// §4.C): 16x16x16 sections holding direct (non-palletized) global
// block-state IDs, one uint32 per position, plus per-position metadata,
// with export to a bit-packed paletted wire representation. The in-memory
// array is not bit-packed; packing happens only in ToWire.
//
// Grounded on the teacher's flat block array (pkg/world.Chunk.Sections
// [SectionsPerChunk][ChunkSectionSize]uint16), generalized from a fixed
// 16-bit blockID<<4|metadata encoding to the registry-resolved global IDs
// spec.md §3/§4.C call for.
package chunkstore

import (
	"bytes"
	"fmt"

	"github.com/voxact-mc/voxact/pkg/blockstate"
	"github.com/voxact-mc/voxact/pkg/protocol"
	"github.com/voxact-mc/voxact/pkg/registry"
)

const (
	// SectionDim is the edge length of one ChunkSection.
	SectionDim = 16
	// SectionVolume is the number of block positions in one ChunkSection.
	SectionVolume = SectionDim * SectionDim * SectionDim
)

// LocalPos is a position within a single section, each axis in [0, 16).
type LocalPos struct {
	X, Y, Z int
}

func index(x, y, z int) int {
	return y*256 + z*16 + x
}

func (p LocalPos) validate() {
	if p.X < 0 || p.X >= SectionDim || p.Y < 0 || p.Y >= SectionDim || p.Z < 0 || p.Z >= SectionDim {
		panic(fmt.Sprintf("chunkstore: local position %+v outside [0,16) range", p))
	}
}

// ChunkSection is a 16x16x16 voxel volume: a flat uint32 array of 4096
// global block-state IDs, not bit-packed (direct storage, no per-section palette
// compaction — see SPEC_FULL.md §9) plus per-position custom-data payloads,
// and a running count of non-air entries.
type ChunkSection struct {
	nonAirCount int16
	blocks      [SectionVolume]uint32
	customData  map[int][]byte
}

// Empty allocates an all-air section.
func Empty() *ChunkSection {
	return &ChunkSection{customData: make(map[int][]byte)}
}

// NonAirCount returns the number of non-zero (non-air) entries, kept in
// sync by every call to Set.
func (s *ChunkSection) NonAirCount() int16 {
	return s.nonAirCount
}

// Set writes state at pos. If the block state carries a CUSTOM_DATA
// component it is recorded in the per-position metadata map; otherwise any
// existing entry for pos is left untouched (spec.md §4.C). Panics if pos is
// outside the section's [0,16) range, per the boundary-behavior contract in
// spec.md §8.
func (s *ChunkSection) Set(pos LocalPos, state blockstate.State, reg *registry.Container) {
	pos.validate()
	idx := index(pos.X, pos.Y, pos.Z)

	propKey := ""
	newID := reg.BlockStateID(state.Name, propKey)
	oldID := s.blocks[idx]

	switch {
	case oldID == 0 && newID != 0:
		s.nonAirCount++
	case oldID != 0 && newID == 0:
		s.nonAirCount--
	}
	s.blocks[idx] = newID

	if data, ok := state.CustomDataPayload(); ok {
		s.customData[idx] = data
	}
}

// Get reads the block state at pos, re-attaching per-position custom data
// if present. Panics if pos is outside the section's [0,16) range.
func (s *ChunkSection) Get(pos LocalPos, reg *registry.Container) blockstate.State {
	pos.validate()
	idx := index(pos.X, pos.Y, pos.Z)
	id := s.blocks[idx]

	name, _, ok := reg.BlockStateFromID(id)
	if !ok {
		return blockstate.Air
	}
	st := blockstate.New(name)
	if data, ok := s.customData[idx]; ok {
		st = st.With(blockstate.CustomData, data)
	}
	return st
}

// RawID returns the global block-state ID stored at the flat array index,
// used by ToWire to build the direct paletted container without resolving
// each position back through the registry.
func (s *ChunkSection) RawID(idx int) uint32 {
	return s.blocks[idx]
}

// maxRegistryStateID is a conservative upper bound for direct-container bit
// width until the registry exposes its own high-water mark; generous enough
// that realistic block-state counts never need re-packing.
const maxRegistryStateID = 1 << 15

// ToWire serializes the section to its wire form: a signed 16-bit
// non-air-block count, a direct paletted container of the section's 4096
// block-state IDs, and a single-valued biome container (spec.md §4.C —
// "paletted container (direct format is acceptable) + a single-valued biome
// container + non_air_count").
func (s *ChunkSection) ToWire(reg *registry.Container) ([]byte, error) {
	var buf bytes.Buffer
	if err := protocol.WriteInt16(&buf, s.nonAirCount); err != nil {
		return nil, err
	}

	ids := make([]uint32, SectionVolume)
	for i := 0; i < SectionVolume; i++ {
		ids[i] = s.blocks[i]
	}
	blocks := protocol.NewDirectBlockContainer(ids, maxRegistryStateID)
	if err := blocks.WriteTo(&buf); err != nil {
		return nil, err
	}

	biomes := protocol.NewSingleValuedContainer(reg.DefaultBiomeID())
	if err := biomes.WriteTo(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
