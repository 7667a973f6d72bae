package chunkstore

import (
	"testing"

	"github.com/voxact-mc/voxact/pkg/blockstate"
	"github.com/voxact-mc/voxact/pkg/registry"
)

func testRegistry() *registry.Container {
	return registry.Default()
}

func TestSectionSetGetRoundTrip(t *testing.T) {
	s := Empty()
	reg := testRegistry()
	pos := LocalPos{X: 3, Y: 10, Z: 7}
	state := blockstate.New("minecraft:stone")

	s.Set(pos, state, reg)
	got := s.Get(pos, reg)

	if got.Name != state.Name {
		t.Fatalf("Get after Set = %q, want %q", got.Name, state.Name)
	}
}

func TestSectionNonAirCountInvariant(t *testing.T) {
	s := Empty()
	reg := testRegistry()

	if s.NonAirCount() != 0 {
		t.Fatalf("new section NonAirCount = %d, want 0", s.NonAirCount())
	}

	pos := LocalPos{X: 0, Y: 0, Z: 0}
	s.Set(pos, blockstate.New("minecraft:stone"), reg)
	if s.NonAirCount() != 1 {
		t.Fatalf("after setting one block, NonAirCount = %d, want 1", s.NonAirCount())
	}

	// Re-setting the same non-air block at the same position must not
	// double-count it.
	s.Set(pos, blockstate.New("minecraft:dirt"), reg)
	if s.NonAirCount() != 1 {
		t.Fatalf("after overwriting one block, NonAirCount = %d, want 1", s.NonAirCount())
	}

	s.Set(pos, blockstate.Air, reg)
	if s.NonAirCount() != 0 {
		t.Fatalf("after clearing to air, NonAirCount = %d, want 0", s.NonAirCount())
	}
}

func TestSectionCustomDataPreservedOnNonCarryingOverwrite(t *testing.T) {
	s := Empty()
	reg := testRegistry()
	pos := LocalPos{X: 1, Y: 1, Z: 1}

	carrying := blockstate.New("minecraft:chest").With(blockstate.CustomData, []byte("payload"))
	s.Set(pos, carrying, reg)

	got := s.Get(pos, reg)
	if data, ok := got.CustomDataPayload(); !ok || string(data) != "payload" {
		t.Fatalf("expected custom data payload to round-trip, got %v, ok=%v", data, ok)
	}

	// Overwriting with a state that carries no custom data leaves the
	// stored payload in place.
	s.Set(pos, blockstate.New("minecraft:stone"), reg)
	got = s.Get(pos, reg)
	if data, ok := got.CustomDataPayload(); !ok || string(data) != "payload" {
		t.Fatalf("expected custom data payload to survive a non-carrying overwrite, got %v, ok=%v", data, ok)
	}
}

func TestSectionOutOfRangeLocalPosPanics(t *testing.T) {
	s := Empty()
	reg := testRegistry()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected Set with out-of-range LocalPos to panic")
		}
	}()
	s.Set(LocalPos{X: 16, Y: 0, Z: 0}, blockstate.New("minecraft:stone"), reg)
}

func TestSectionToWireIncludesNonAirCount(t *testing.T) {
	s := Empty()
	reg := testRegistry()
	s.Set(LocalPos{X: 0, Y: 0, Z: 0}, blockstate.New("minecraft:stone"), reg)

	wire, err := s.ToWire(reg)
	if err != nil {
		t.Fatalf("ToWire error: %v", err)
	}
	if len(wire) < 2 {
		t.Fatalf("ToWire output too short to contain the non_air_count prefix: %d bytes", len(wire))
	}
	// Big-endian int16(1).
	if wire[0] != 0x00 || wire[1] != 0x01 {
		t.Errorf("ToWire non_air_count prefix = %v, want [0x00 0x01]", wire[:2])
	}
}

func TestIndexFormula(t *testing.T) {
	tests := []struct {
		x, y, z int
		want    int
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{0, 0, 1, 16},
		{0, 1, 0, 256},
		{15, 15, 15, 15*256 + 15*16 + 15},
	}
	for _, tt := range tests {
		if got := index(tt.x, tt.y, tt.z); got != tt.want {
			t.Errorf("index(%d,%d,%d) = %d, want %d", tt.x, tt.y, tt.z, got, tt.want)
		}
	}
}
