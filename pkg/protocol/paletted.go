package protocol

import "bytes"

// PalettedContainer is the wire encoding for one chunk section's block (or
// biome) data: a bits-per-entry width, an optional indirect palette, and a
// long-array of bit-packed entries. ToWire always emits the "direct" format
// (bitsPerEntry == bitsForDirect, empty palette) since chunkstore stores
// global IDs without per-section palette compaction (SPEC_FULL.md §9).
type PalettedContainer struct {
	BitsPerEntry byte
	Palette      []uint32 // empty in direct format
	Data         []uint64
}

// bitsForDirect returns the number of bits needed to represent any value in
// [0, maxValue], rounded up to the nearest width the client's direct palette
// accepts (a flat 32-bit lane is always legal, but section data packs
// tighter whenever the registry is small enough).
func bitsForDirect(maxValue uint32) byte {
	bits := byte(0)
	for (uint32(1) << bits) <= maxValue {
		bits++
	}
	if bits < 4 {
		bits = 4
	}
	return bits
}

// packDirect bit-packs values (each < 1<<bitsPerEntry) into the minimal
// number of uint64 longs, entries never splitting across a long boundary
// (the modern container format's packing rule, replacing the pre-1.16
// split-entry layout).
func packDirect(values []uint32, bitsPerEntry byte) []uint64 {
	perLong := 64 / int(bitsPerEntry)
	longCount := (len(values) + perLong - 1) / perLong
	out := make([]uint64, longCount)
	for i, v := range values {
		longIdx := i / perLong
		shift := uint((i % perLong)) * uint(bitsPerEntry)
		out[longIdx] |= uint64(v) << shift
	}
	return out
}

// NewDirectBlockContainer builds a direct-format PalettedContainer from a
// section's 4096 raw global block-state IDs, sized against maxRegistryID so
// the bit width is the minimum that can address every registered state.
func NewDirectBlockContainer(ids []uint32, maxRegistryID uint32) PalettedContainer {
	bits := bitsForDirect(maxRegistryID)
	return PalettedContainer{
		BitsPerEntry: bits,
		Data:         packDirect(ids, bits),
	}
}

// NewSingleValuedContainer builds the degenerate single-entry container used
// for a chunk section's biome data, which is always filled with one biome:
// bitsPerEntry 0, a one-element palette, no data longs.
func NewSingleValuedContainer(value uint32) PalettedContainer {
	return PalettedContainer{
		BitsPerEntry: 0,
		Palette:      []uint32{value},
	}
}

// WriteTo serializes the container: the bits-per-entry byte, then for the
// single-valued format (BitsPerEntry 0) just the one palette value as a
// VarInt; otherwise the palette (VarInt count + VarInt entries) if it is
// non-empty, then the packed long array (VarInt length + longs).
func (p PalettedContainer) WriteTo(buf *bytes.Buffer) error {
	if err := WriteByte(buf, p.BitsPerEntry); err != nil {
		return err
	}
	if p.BitsPerEntry == 0 {
		// Single-valued: palette is exactly one VarInt, no data longs follow.
		_, err := WriteVarInt(buf, int32(p.Palette[0]))
		return err
	}
	if len(p.Palette) > 0 {
		if _, err := WriteVarInt(buf, int32(len(p.Palette))); err != nil {
			return err
		}
		for _, v := range p.Palette {
			if _, err := WriteVarInt(buf, int32(v)); err != nil {
				return err
			}
		}
	}
	if _, err := WriteVarInt(buf, int32(len(p.Data))); err != nil {
		return err
	}
	for _, long := range p.Data {
		if err := WriteInt64(buf, int64(long)); err != nil {
			return err
		}
	}
	return nil
}
