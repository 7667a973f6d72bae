// Package blockstate defines the block-state value type shared by the chunk
// store, the registry, and the wire codec. Grounded on the teacher's
// blockID-plus-metadata encoding (pkg/world's `uint16` states), generalized
// to named components per spec.md §3 ("BlockState").
package blockstate

// ComponentKey is a closed set of typed component tokens a block state can
// carry, mirroring the original Rust component map's key type (a typed enum
// rather than a bare string, so a typo is a compile error, not a silent
// no-op lookup).
type ComponentKey int

const (
	// CustomData holds an opaque NBT-ish payload (block-entity seed data,
	// player-placed signs, etc). Presence of this component is what makes
	// ChunkSection.Set persist per-position metadata.
	CustomData ComponentKey = iota
	// Snowy marks grass/podzol/mycelium variants rendered with a snow cap.
	Snowy
	// Waterlogged marks a block as submerged.
	Waterlogged
	// Facing stores a horizontal orientation (stairs, furnaces, signs).
	Facing
	// Half distinguishes the bottom/top placement of a slab or stair.
	Half
)

// State is a block name plus a component map. The default zero value is
// air ("minecraft:air") with no components.
type State struct {
	Name       string
	Components map[ComponentKey]any
}

// Air is the default, all-empty block state.
var Air = State{Name: "minecraft:air"}

// New builds a state with no components set.
func New(name string) State {
	return State{Name: name}
}

// With returns a copy of s with component key set to value.
func (s State) With(key ComponentKey, value any) State {
	out := State{Name: s.Name, Components: make(map[ComponentKey]any, len(s.Components)+1)}
	for k, v := range s.Components {
		out.Components[k] = v
	}
	out.Components[key] = value
	return out
}

// Component looks up a component value.
func (s State) Component(key ComponentKey) (any, bool) {
	v, ok := s.Components[key]
	return v, ok
}

// CustomDataPayload returns the CUSTOM_DATA component, if present.
func (s State) CustomDataPayload() ([]byte, bool) {
	v, ok := s.Components[CustomData]
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// IsAir reports whether this state is the default air block.
func (s State) IsAir() bool {
	return s.Name == "" || s.Name == "minecraft:air"
}
