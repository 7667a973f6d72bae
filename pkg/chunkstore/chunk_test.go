package chunkstore

import (
	"testing"

	"github.com/voxact-mc/voxact/pkg/blockstate"
)

func TestChunkSectionCountInvariant(t *testing.T) {
	c := NewChunk(-4, 20)
	if got, want := len(c.Sections()), 24; got != want {
		t.Fatalf("len(Sections()) = %d, want %d (maxSection - minSection)", got, want)
	}
}

func TestFloorDivFloorMod(t *testing.T) {
	tests := []struct {
		a, b     int32
		wantDiv  int32
		wantMod  int32
	}{
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
	}
	for _, tt := range tests {
		if d := floorDiv(tt.a, tt.b); d != tt.wantDiv {
			t.Errorf("floorDiv(%d,%d) = %d, want %d", tt.a, tt.b, d, tt.wantDiv)
		}
		if m := floorMod(tt.a, tt.b); m != tt.wantMod {
			t.Errorf("floorMod(%d,%d) = %d, want %d", tt.a, tt.b, m, tt.wantMod)
		}
	}
}

func TestChunkSetGetBlockRoundTrip(t *testing.T) {
	c := NewChunk(-4, 20)
	reg := testRegistry()
	pos := BlockPos{X: -5, Y: -30, Z: 100}
	state := blockstate.New("minecraft:stone")

	c.SetBlock(pos, state, reg)
	got := c.GetBlock(pos, reg)

	if got.Name != state.Name {
		t.Fatalf("GetBlock after SetBlock = %q, want %q", got.Name, state.Name)
	}
}

func TestChunkGetBlockOutOfVerticalRangeReturnsAirWithoutAllocating(t *testing.T) {
	c := NewChunk(0, 4) // sections [0,4) => world Y in [0, 64)
	reg := testRegistry()

	got := c.GetBlock(BlockPos{X: 0, Y: 1000, Z: 0}, reg)
	if !got.IsAir() {
		t.Fatalf("GetBlock outside vertical range = %+v, want air", got)
	}

	// SetBlock outside range must be a silent no-op, not a panic.
	c.SetBlock(BlockPos{X: 0, Y: -1000, Z: 0}, blockstate.New("minecraft:stone"), reg)
}

func TestChunkBlockEntityMapping(t *testing.T) {
	c := NewChunk(-4, 20)
	reg := testRegistry()
	pos := BlockPos{X: 1, Y: 1, Z: 1}

	chest := blockstate.New("minecraft:chest").With(blockstate.CustomData, []byte("loot"))
	c.SetBlock(pos, chest, reg)

	name, ok := c.BlockEntityType(pos)
	if !ok || name != "minecraft:chest" {
		t.Fatalf("BlockEntityType(%+v) = (%q, %v), want (\"minecraft:chest\", true)", pos, name, ok)
	}

	// Overwriting with a state that carries no custom data clears the entry.
	c.SetBlock(pos, blockstate.New("minecraft:stone"), reg)
	if _, ok := c.BlockEntityType(pos); ok {
		t.Fatal("BlockEntityType still present after overwriting with a non-block-entity state")
	}
}
