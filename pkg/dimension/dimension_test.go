package dimension

import (
	"testing"

	"github.com/google/uuid"
	"github.com/voxact-mc/voxact/pkg/blockstate"
	"github.com/voxact-mc/voxact/pkg/chunkstore"
	"github.com/voxact-mc/voxact/pkg/events"
	"github.com/voxact-mc/voxact/pkg/registry"
)

func testHandle(t *testing.T) (Handle, *registry.Container) {
	t.Helper()
	reg := registry.Default()
	h, err := Spawn("minecraft:overworld", reg, events.NewBus(), nil)
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	return h, reg
}

func TestSetGetBlockRoundTrip(t *testing.T) {
	h, _ := testHandle(t)
	pos := chunkstore.BlockPos{X: 10, Y: 5, Z: -20}

	if err := h.SetBlock(pos, blockstate.New("minecraft:stone")); err != nil {
		t.Fatalf("SetBlock error: %v", err)
	}
	got, err := h.GetBlock(pos)
	if err != nil {
		t.Fatalf("GetBlock error: %v", err)
	}
	if got.Name != "minecraft:stone" {
		t.Fatalf("GetBlock = %q, want minecraft:stone", got.Name)
	}
}

func TestGetBlockOutsideLoadedChunkGeneratesLazily(t *testing.T) {
	h, _ := testHandle(t)
	got, err := h.GetBlock(chunkstore.BlockPos{X: 1000, Y: 0, Z: 1000})
	if err != nil {
		t.Fatalf("GetBlock error: %v", err)
	}
	if !got.IsAir() {
		t.Fatalf("GetBlock in freshly generated chunk = %+v, want air", got)
	}
}

func TestSpawnAndRemoveEntity(t *testing.T) {
	h, _ := testHandle(t)
	id := uuid.New()
	eid, err := h.SpawnPlayerEntity(id, "Steve", events.DVec3{})
	if err != nil {
		t.Fatalf("SpawnPlayerEntity error: %v", err)
	}
	if eid == 0 {
		t.Fatal("expected nonzero entity ID")
	}

	players, err := h.Players()
	if err != nil {
		t.Fatalf("Players error: %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("len(Players()) = %d, want 1", len(players))
	}

	if err := h.RemoveEntity(id); err != nil {
		t.Fatalf("RemoveEntity error: %v", err)
	}
	players, err = h.Players()
	if err != nil {
		t.Fatalf("Players error: %v", err)
	}
	if len(players) != 0 {
		t.Fatalf("len(Players()) after RemoveEntity = %d, want 0", len(players))
	}
}

func TestSetChunkGeneratorAppliesToUnloadedChunks(t *testing.T) {
	h, reg := testHandle(t)
	var called bool
	err := h.SetChunkGenerator(func(c *chunkstore.Chunk, cx, cz int32) {
		called = true
		c.SetBlock(chunkstore.BlockPos{X: cx * 16, Y: 0, Z: cz * 16}, blockstate.New("minecraft:bedrock"), reg)
	})
	if err != nil {
		t.Fatalf("SetChunkGenerator error: %v", err)
	}

	if _, err := h.GetBlock(chunkstore.BlockPos{X: 0, Y: 0, Z: 0}); err != nil {
		t.Fatalf("GetBlock error: %v", err)
	}
	if !called {
		t.Fatal("expected generator to run for an unloaded chunk")
	}
}
