// Package inventory models a player's item storage: a flat 46-slot array
// (crafting grid + output, armor, main storage, hotbar, offhand) plus the
// screen-grouping and click-replay logic a container click packet needs.
//
// Grounded on the teacher's player.Inventory [45]Slot flat array and
// handleInventoryClick/handleCreativeInventory (pkg/server/inventory.go),
// generalized from Slot{ItemID int16; Count byte; Damage int16} to
// item.Stack so a slot can carry the data-component model spec.md §3
// describes instead of a fixed numeric ID + damage value.
package inventory

import "github.com/voxact-mc/voxact/pkg/item"

// ScreenKind identifies which window layout a click packet's slot indices
// are relative to.
type ScreenKind int

const (
	ScreenPlayer ScreenKind = iota
	ScreenGeneric9x3
	ScreenGeneric9x6
)

// Slot index layout within the player's own inventory, mirroring the
// teacher's 45-slot array with an offhand slot appended for the modern
// protocol.
const (
	SlotCraftOutput = 0
	SlotCraftGrid0  = 1 // through 4
	SlotArmorHead   = 5 // through 8 (head, chest, legs, feet)
	SlotMainStart   = 9
	SlotMainEnd     = 35
	SlotHotbarStart = 36
	SlotHotbarEnd   = 44
	SlotOffhand     = 45
	SlotCount       = 46
)

// Inventory is a player's personal item storage.
type Inventory struct {
	slots [SlotCount]item.Stack
}

// NewPlayerInventory returns an inventory with every slot empty.
func NewPlayerInventory() *Inventory {
	return &Inventory{}
}

// Slot returns the stack at index i, or item.Empty if i is out of range.
func (inv *Inventory) Slot(i int) item.Stack {
	if i < 0 || i >= SlotCount {
		return item.Empty
	}
	return inv.slots[i]
}

// SetSlot overwrites the stack at index i. Out-of-range indices are
// ignored, matching the teacher's validated-range check in
// handleCreativeInventory.
func (inv *Inventory) SetSlot(i int, stack item.Stack) {
	if i < 0 || i >= SlotCount {
		return
	}
	inv.slots[i] = stack
}

// AddItem places stack into the first stackable or empty slot, preferring
// the hotbar before main storage, then main storage before giving up —
// the teacher's addItemToInventory search order. Returns false if the
// inventory has no room.
func (inv *Inventory) AddItem(stack item.Stack) bool {
	for _, rng := range [][2]int{{SlotHotbarStart, SlotHotbarEnd}, {SlotMainStart, SlotMainEnd}} {
		for i := rng[0]; i <= rng[1]; i++ {
			s := &inv.slots[i]
			if s.Kind == stack.Kind && s.Count+stack.Count <= 64 && !s.IsEmpty() {
				s.Count += stack.Count
				return true
			}
		}
	}
	for _, rng := range [][2]int{{SlotHotbarStart, SlotHotbarEnd}, {SlotMainStart, SlotMainEnd}} {
		for i := rng[0]; i <= rng[1]; i++ {
			if inv.slots[i].IsEmpty() {
				inv.slots[i] = stack
				return true
			}
		}
	}
	return false
}

// ClickSlot replays a single left-click container interaction: the clicked
// slot and held cursor stack are swapped, or merged if they hold the same
// item kind. This is the minimal "slot-delta replay" the click-container
// packet handler needs; drag (mode 5) and shift-click (mode 1) variants
// are intentionally not modeled here.
func (inv *Inventory) ClickSlot(slotIndex int, cursor *item.Stack) {
	if slotIndex < 0 || slotIndex >= SlotCount {
		return
	}
	slot := &inv.slots[slotIndex]

	switch {
	case slot.IsEmpty() && !cursor.IsEmpty():
		*slot = *cursor
		*cursor = item.Empty
	case !slot.IsEmpty() && cursor.IsEmpty():
		*cursor = *slot
		*slot = item.Empty
	case !slot.IsEmpty() && !cursor.IsEmpty() && slot.Kind == cursor.Kind:
		merged := slot.Count + cursor.Count
		if merged > 64 {
			slot.Count = 64
			cursor.Count = merged - 64
		} else {
			slot.Count = merged
			*cursor = item.Empty
		}
	default:
		*slot, *cursor = *cursor, *slot
	}
}
