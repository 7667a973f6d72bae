package inventory

import (
	"testing"

	"github.com/voxact-mc/voxact/pkg/item"
)

func TestAddItemFillsHotbarBeforeMainStorage(t *testing.T) {
	inv := NewPlayerInventory()
	stack := item.Stack{Kind: "minecraft:dirt", Count: 1}

	if ok := inv.AddItem(stack); !ok {
		t.Fatal("AddItem returned false on an empty inventory")
	}
	if inv.Slot(SlotHotbarStart).Kind != "minecraft:dirt" {
		t.Fatalf("expected dirt in hotbar slot %d, got %+v", SlotHotbarStart, inv.Slot(SlotHotbarStart))
	}
}

func TestAddItemStacksExistingSlot(t *testing.T) {
	inv := NewPlayerInventory()
	inv.SetSlot(SlotHotbarStart, item.Stack{Kind: "minecraft:dirt", Count: 10})

	inv.AddItem(item.Stack{Kind: "minecraft:dirt", Count: 5})

	if got := inv.Slot(SlotHotbarStart).Count; got != 15 {
		t.Fatalf("stacked count = %d, want 15", got)
	}
}

func TestAddItemReturnsFalseWhenFull(t *testing.T) {
	inv := NewPlayerInventory()
	for i := SlotMainStart; i <= SlotMainEnd; i++ {
		inv.SetSlot(i, item.Stack{Kind: "minecraft:cobblestone", Count: 64})
	}
	for i := SlotHotbarStart; i <= SlotHotbarEnd; i++ {
		inv.SetSlot(i, item.Stack{Kind: "minecraft:cobblestone", Count: 64})
	}

	if ok := inv.AddItem(item.Stack{Kind: "minecraft:dirt", Count: 1}); ok {
		t.Fatal("AddItem returned true on a full inventory")
	}
}

func TestClickSlotPicksUpFromEmptyCursor(t *testing.T) {
	inv := NewPlayerInventory()
	inv.SetSlot(10, item.Stack{Kind: "minecraft:stone", Count: 32})
	cursor := item.Empty

	inv.ClickSlot(10, &cursor)

	if !inv.Slot(10).IsEmpty() {
		t.Fatal("expected slot 10 to be emptied onto the cursor")
	}
	if cursor.Kind != "minecraft:stone" || cursor.Count != 32 {
		t.Fatalf("cursor = %+v, want 32 stone", cursor)
	}
}

func TestClickSlotMergesSameKind(t *testing.T) {
	inv := NewPlayerInventory()
	inv.SetSlot(10, item.Stack{Kind: "minecraft:stone", Count: 40})
	cursor := item.Stack{Kind: "minecraft:stone", Count: 40}

	inv.ClickSlot(10, &cursor)

	if got := inv.Slot(10).Count; got != 64 {
		t.Fatalf("slot count after merge = %d, want 64 (clamped)", got)
	}
	if cursor.Count != 16 {
		t.Fatalf("cursor remainder after merge = %d, want 16", cursor.Count)
	}
}

func TestClickSlotSwapsDifferentKinds(t *testing.T) {
	inv := NewPlayerInventory()
	inv.SetSlot(10, item.Stack{Kind: "minecraft:stone", Count: 1})
	cursor := item.Stack{Kind: "minecraft:dirt", Count: 1}

	inv.ClickSlot(10, &cursor)

	if inv.Slot(10).Kind != "minecraft:dirt" {
		t.Fatalf("slot after swap = %+v, want dirt", inv.Slot(10))
	}
	if cursor.Kind != "minecraft:stone" {
		t.Fatalf("cursor after swap = %+v, want stone", cursor)
	}
}
