package dimension

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/voxact-mc/voxact/pkg/actor"
	"github.com/voxact-mc/voxact/pkg/events"
	"github.com/voxact-mc/voxact/pkg/protocol"
)

// Wire packet IDs for the entity-visibility traffic a dimension pushes out
// on spawn, despawn, and movement (spec.md §4.D). Renumbered, like the
// connection package's Play-stage table, for the modern protocol's
// clientbound namespace.
const (
	spawnEntityPacketID        int32 = 0x01
	removeEntitiesPacketID     int32 = 0x42
	entityPositionSyncPacketID int32 = 0x2E
)

// EntityRecord is everything the dimension tracks about one spawned entity,
// player or otherwise.
type EntityRecord struct {
	UUID      uuid.UUID
	EntityID  int32
	TypeKey   string
	Position  events.DVec3
	Direction events.Vec2
	IsPlayer  bool
	Username  string // only meaningful when IsPlayer
}

// angleByte packs a float degree value into the single signed byte the wire
// format uses for entity yaw/pitch/head-yaw fields.
func angleByte(degrees float32) byte {
	return byte(int32(degrees*256/360) & 0xFF)
}

// spawnEntityPacket builds the "Spawn Entity" packet announcing rec to
// everyone else in the dimension, resolving its numeric entity-type ID
// through the registry so unknown TypeKeys are silently skipped rather than
// sent with a bogus ID.
func (st *state) spawnEntityPacket(rec *EntityRecord) (*protocol.Packet, bool) {
	typeID, ok := st.reg.EntityTypeID(rec.TypeKey)
	if !ok {
		return nil, false
	}
	return protocol.MarshalPacket(spawnEntityPacketID, func(w *bytes.Buffer) {
		protocol.WriteVarInt(w, rec.EntityID)
		protocol.WriteUUID(w, rec.UUID)
		protocol.WriteVarInt(w, int32(typeID))
		protocol.WriteFloat64(w, rec.Position.X)
		protocol.WriteFloat64(w, rec.Position.Y)
		protocol.WriteFloat64(w, rec.Position.Z)
		protocol.WriteByte(w, angleByte(rec.Direction.Pitch))
		protocol.WriteByte(w, angleByte(rec.Direction.Yaw))
		protocol.WriteByte(w, angleByte(rec.Direction.Yaw)) // head yaw
		protocol.WriteVarInt(w, 0)                          // object data
		protocol.WriteInt16(w, 0)
		protocol.WriteInt16(w, 0)
		protocol.WriteInt16(w, 0)
	}), true
}

func removeEntitiesPacket(eid int32) *protocol.Packet {
	return protocol.MarshalPacket(removeEntitiesPacketID, func(w *bytes.Buffer) {
		protocol.WriteVarInt(w, 1)
		protocol.WriteVarInt(w, eid)
	})
}

func entityPositionSyncPacket(rec *EntityRecord) *protocol.Packet {
	return protocol.MarshalPacket(entityPositionSyncPacketID, func(w *bytes.Buffer) {
		protocol.WriteVarInt(w, rec.EntityID)
		protocol.WriteFloat64(w, rec.Position.X)
		protocol.WriteFloat64(w, rec.Position.Y)
		protocol.WriteFloat64(w, rec.Position.Z)
		protocol.WriteFloat32(w, rec.Direction.Yaw)
		protocol.WriteFloat32(w, rec.Direction.Pitch)
		protocol.WriteBool(w, false) // on-ground
	})
}

// broadcastSpawn announces rec to every other connection in the dimension.
func (st *state) broadcastSpawn(rec *EntityRecord) {
	if st.broadcaster == nil {
		return
	}
	pkt, ok := st.spawnEntityPacket(rec)
	if !ok {
		return
	}
	st.broadcaster.BroadcastToDimension(st.key, rec.UUID, pkt)
}

// broadcastRemove tells every other connection in the dimension that id is
// gone.
func (st *state) broadcastRemove(id uuid.UUID, eid int32) {
	if st.broadcaster == nil {
		return
	}
	st.broadcaster.BroadcastToDimension(st.key, id, removeEntitiesPacket(eid))
}

// broadcastMove tells every other connection in the dimension rec's new
// position/orientation.
func (st *state) broadcastMove(rec *EntityRecord) {
	if st.broadcaster == nil {
		return
	}
	st.broadcaster.BroadcastToDimension(st.key, rec.UUID, entityPositionSyncPacket(rec))
}

// SpawnEntityPacketFor builds the wire "Spawn Entity" packet for rec,
// for callers (e.g. a newly joined connection) that need to replay existing
// entities instead of waiting for the live broadcast. Pure and read-only —
// it only resolves rec's TypeKey through the registry, so it can run outside
// the dimension actor's own goroutine.
func (h Handle) SpawnEntityPacketFor(rec *EntityRecord) (*protocol.Packet, bool) {
	return h.s.spawnEntityPacket(rec)
}

// SpawnEntity creates a non-player entity of typeKey at pos and returns its
// assigned entity ID, then broadcasts its spawn to the dimension's players.
func (h Handle) SpawnEntity(typeKey string, pos events.DVec3) (int32, error) {
	if _, ok := h.s.reg.EntityTypeID(typeKey); !ok {
		return 0, fmt.Errorf("dimension: unknown entity type %q", typeKey)
	}
	return actor.Call(h.a, func() (int32, error) {
		eid := h.s.nextEntityID
		h.s.nextEntityID++
		rec := &EntityRecord{UUID: uuid.New(), EntityID: eid, TypeKey: typeKey, Position: pos}
		h.s.entities[rec.UUID] = rec
		h.s.broadcastSpawn(rec)
		return eid, nil
	})
}

// SpawnPlayerEntity registers a player's entity record in this dimension,
// for example on join or on changing dimension, and broadcasts its spawn to
// every other connection already in the dimension.
func (h Handle) SpawnPlayerEntity(playerUUID uuid.UUID, username string, pos events.DVec3) (int32, error) {
	return actor.Call(h.a, func() (int32, error) {
		eid := h.s.nextEntityID
		h.s.nextEntityID++
		rec := &EntityRecord{
			UUID:     playerUUID,
			EntityID: eid,
			TypeKey:  "minecraft:player",
			Position: pos,
			IsPlayer: true,
			Username: username,
		}
		h.s.entities[playerUUID] = rec
		h.s.broadcastSpawn(rec)
		return eid, nil
	})
}

// RemoveEntity deletes an entity record, returning ErrActorDoesNotExist-free
// nil even if the entity was already gone (removal is idempotent), and
// broadcasts its despawn to the rest of the dimension.
func (h Handle) RemoveEntity(id uuid.UUID) error {
	return actor.CallVoid(h.a, func() error {
		rec, ok := h.s.entities[id]
		if !ok {
			return nil
		}
		delete(h.s.entities, id)
		h.s.broadcastRemove(id, rec.EntityID)
		return nil
	})
}

// TeleportEntity moves an entity to a new absolute position and broadcasts
// the move to the rest of the dimension.
func (h Handle) TeleportEntity(id uuid.UUID, pos events.DVec3) error {
	return actor.CallVoid(h.a, func() error {
		rec, ok := h.s.entities[id]
		if !ok {
			return fmt.Errorf("dimension: entity %s not present", id)
		}
		rec.Position = pos
		h.s.broadcastMove(rec)
		return nil
	})
}

// RotateEntity updates an entity's facing direction and broadcasts it.
func (h Handle) RotateEntity(id uuid.UUID, dir events.Vec2) error {
	return actor.CallVoid(h.a, func() error {
		rec, ok := h.s.entities[id]
		if !ok {
			return fmt.Errorf("dimension: entity %s not present", id)
		}
		rec.Direction = dir
		h.s.broadcastMove(rec)
		return nil
	})
}

// FindByEntityID looks up an entity record by its numeric entity ID, as
// addressed by Interact Entity and similar play packets.
func (h Handle) FindByEntityID(eid int32) (EntityRecord, error) {
	return actor.Call(h.a, func() (EntityRecord, error) {
		for _, rec := range h.s.entities {
			if rec.EntityID == eid {
				return *rec, nil
			}
		}
		return EntityRecord{}, fmt.Errorf("dimension: no entity with id %d", eid)
	})
}

// EntityView adapts an EntityRecord snapshot to events.Entity. A separate
// type is needed because EntityRecord's own fields (UUID, EntityID, TypeKey)
// already occupy those names, so it can't carry same-named methods itself.
type EntityView struct{ rec EntityRecord }

// NewEntityView wraps an EntityRecord snapshot for use as an events.Entity.
func NewEntityView(rec EntityRecord) EntityView { return EntityView{rec: rec} }

func (v EntityView) UUID() uuid.UUID { return v.rec.UUID }
func (v EntityView) EntityID() int32 { return v.rec.EntityID }
func (v EntityView) TypeKey() string { return v.rec.TypeKey }

// PlayerView adapts a player EntityRecord snapshot to events.Player, for
// events raised about a player found via the entity table rather than
// through their own live connection.Handle.
type PlayerView struct{ rec EntityRecord }

// NewPlayerView wraps a player EntityRecord snapshot for use as an events.Player.
func NewPlayerView(rec EntityRecord) PlayerView { return PlayerView{rec: rec} }

func (v PlayerView) UUID() uuid.UUID  { return v.rec.UUID }
func (v PlayerView) Username() string { return v.rec.Username }
func (v PlayerView) EntityID() int32  { return v.rec.EntityID }

// Players returns a snapshot of every player entity currently registered.
func (h Handle) Players() ([]EntityRecord, error) {
	return actor.Call(h.a, func() ([]EntityRecord, error) {
		var out []EntityRecord
		for _, rec := range h.s.entities {
			if rec.IsPlayer {
				out = append(out, *rec)
			}
		}
		return out, nil
	})
}

// Entities returns a snapshot of every non-player entity.
func (h Handle) Entities() ([]EntityRecord, error) {
	return actor.Call(h.a, func() ([]EntityRecord, error) {
		var out []EntityRecord
		for _, rec := range h.s.entities {
			if !rec.IsPlayer {
				out = append(out, *rec)
			}
		}
		return out, nil
	})
}

// AllEntities returns a snapshot of every entity, player or otherwise.
func (h Handle) AllEntities() ([]EntityRecord, error) {
	return actor.Call(h.a, func() ([]EntityRecord, error) {
		out := make([]EntityRecord, 0, len(h.s.entities))
		for _, rec := range h.s.entities {
			out = append(out, *rec)
		}
		return out, nil
	})
}
