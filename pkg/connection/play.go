package connection

import (
	"bytes"
	"strings"

	"github.com/voxact-mc/voxact/pkg/actor"
	"github.com/voxact-mc/voxact/pkg/blockstate"
	"github.com/voxact-mc/voxact/pkg/chunkstore"
	"github.com/voxact-mc/voxact/pkg/dimension"
	"github.com/voxact-mc/voxact/pkg/events"
	"github.com/voxact-mc/voxact/pkg/inventory"
	"github.com/voxact-mc/voxact/pkg/item"
	"github.com/voxact-mc/voxact/pkg/protocol"
)

// Packet IDs for the handful of serverbound Play-stage packets this
// connection actor understands. Grounded on the teacher's
// handlePlayPacket switch (pkg/server/packet_handler.go), renumbered for
// the modern protocol's Play-stage namespace.
const (
	packetConfirmTeleportation int32 = 0x00
	packetChatMessage          int32 = 0x06
	packetPlayerPosition       int32 = 0x1B
	packetPlayerPositionLook   int32 = 0x1C
	packetPlayerRotation       int32 = 0x1D
	packetPlayerAction         int32 = 0x24
	packetUseItemOn            int32 = 0x38
	packetSwingArm             int32 = 0x36
	packetInteractEntity       int32 = 0x17
	packetClickContainer       int32 = 0x11
	packetHeldItemChange       int32 = 0x2F
	packetSwapItemInHand       int32 = 0x2B
	packetUseItem              int32 = 0x39
	packetClientStatus         int32 = 0x09
)

// syncPlayerPositionPacketID is the clientbound Synchronize Player Position
// packet: the server unilaterally overrides the client's view of where it
// is, gated behind an ack of the carried teleport ID via Confirm
// Teleportation so a stale movement packet already in flight can't undo it
// (spec.md §3 movement-gating invariant).
const syncPlayerPositionPacketID int32 = 0x41

const (
	digActionStartDigging  int32 = 0
	digActionFinishDigging int32 = 2
	digActionDropItem      int32 = 3
	digActionDropAllItems  int32 = 4
)

const clientStatusPerformRespawn int32 = 0

func (h Handle) handlePlayPacket(pkt *protocol.Packet) {
	r := bytes.NewReader(pkt.Data)

	switch pkt.ID {
	case packetConfirmTeleportation:
		h.handleConfirmTeleportation(r)

	case packetChatMessage:
		h.handleChatMessage(r)

	case packetPlayerPosition:
		h.handlePlayerPosition(r)

	case packetPlayerPositionLook:
		h.handlePlayerPositionLook(r)

	case packetPlayerRotation:
		h.handlePlayerRotation(r)

	case packetPlayerAction:
		h.handlePlayerAction(r)

	case packetUseItemOn:
		h.handleUseItemOn(r)

	case packetSwingArm:
		h.handleSwingArm(r)

	case packetInteractEntity:
		h.handleInteractEntity(r)

	case packetClickContainer:
		h.handleClickContainer(r)

	case packetHeldItemChange:
		h.handleHeldItemChange(r)

	case packetSwapItemInHand:
		h.handleSwapItemInHand(r)

	case packetUseItem:
		h.handleUseItem(r)

	case packetClientStatus:
		h.handleClientStatus(r)
	}
}

// handleConfirmTeleportation gates acceptance of further movement packets
// on the client acking the teleport ID most recently sent to it, so a
// stale position report arriving after a server-initiated teleport can't
// snap the player back.
func (h Handle) handleConfirmTeleportation(r *bytes.Reader) {
	id, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return
	}
	if id == h.s.teleportID {
		h.s.awaitingAccept = false
	}
}

func (h Handle) handleChatMessage(r *bytes.Reader) {
	message, err := protocol.ReadString(r)
	if err != nil {
		return
	}
	if len(message) > 256 {
		message = message[:256]
	}
	if strings.HasPrefix(message, "/") {
		if h.s.bus != nil {
			events.Dispatch(h.s.bus, events.PlayerCommandEvent{Player: h, Command: strings.TrimPrefix(message, "/")})
		}
		return
	}
	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.ChatMessageEvent{Player: h, Message: message})
	}
}

func (h Handle) movementGated() bool {
	return h.s.awaitingAccept
}

// sendSyncPosition increments the pending teleport ID, gates further
// movement packets until the client acks it, and sends the Synchronize
// Player Position packet. Must run on the connection's own actor goroutine.
func (h Handle) sendSyncPosition(pos events.DVec3, dir events.Vec2) {
	h.s.teleportID++
	h.s.awaitingAccept = true
	h.s.pos = pos
	h.s.dir = dir
	pkt := protocol.MarshalPacket(syncPlayerPositionPacketID, func(w *bytes.Buffer) {
		protocol.WriteFloat64(w, pos.X)
		protocol.WriteFloat64(w, pos.Y)
		protocol.WriteFloat64(w, pos.Z)
		protocol.WriteFloat32(w, dir.Yaw)
		protocol.WriteFloat32(w, dir.Pitch)
		protocol.WriteByte(w, 0) // relative-flags byte: every field above is absolute
		protocol.WriteVarInt(w, h.s.teleportID)
	})
	protocol.WritePacket(h.s.conn, pkt)
}

// Teleport moves the player to an absolute position, synchronizing the
// client through the gated Synchronize Player Position flow (spec.md §4.E)
// rather than trusting its next movement packet to land correctly.
func (h Handle) Teleport(pos events.DVec3, dir events.Vec2) {
	actor.Send(h.a, func() {
		if h.s.dim != (dimension.Handle{}) {
			h.s.dim.TeleportEntity(h.s.identity.UUID, pos)
		}
		h.sendSyncPosition(pos, dir)
		h.streamChunksAroundCurrentPosition()
	})
}

func (h Handle) handlePlayerPosition(r *bytes.Reader) {
	x, _ := protocol.ReadFloat64(r)
	y, _ := protocol.ReadFloat64(r)
	z, _ := protocol.ReadFloat64(r)
	if _, err := protocol.ReadBool(r); err != nil { // on-ground
		return
	}
	if h.movementGated() {
		return
	}
	h.s.pos = events.DVec3{X: x, Y: y, Z: z}
	h.afterMove()
}

func (h Handle) handlePlayerPositionLook(r *bytes.Reader) {
	x, _ := protocol.ReadFloat64(r)
	y, _ := protocol.ReadFloat64(r)
	z, _ := protocol.ReadFloat64(r)
	yaw, _ := protocol.ReadFloat32(r)
	pitch, _ := protocol.ReadFloat32(r)
	if _, err := protocol.ReadBool(r); err != nil {
		return
	}
	if h.movementGated() {
		return
	}
	h.s.pos = events.DVec3{X: x, Y: y, Z: z}
	h.s.dir = events.Vec2{Yaw: yaw, Pitch: pitch}
	h.afterMove()
}

func (h Handle) handlePlayerRotation(r *bytes.Reader) {
	yaw, _ := protocol.ReadFloat32(r)
	pitch, _ := protocol.ReadFloat32(r)
	if _, err := protocol.ReadBool(r); err != nil {
		return
	}
	if h.movementGated() {
		return
	}
	h.s.dir = events.Vec2{Yaw: yaw, Pitch: pitch}
	h.afterMove()
}

// afterMove pushes the new position to the dimension's entity table,
// dispatches PlayerMoveEvent, and runs the chunk-streaming throttle: only
// send newly-in-range columns, never resend ones already loaded.
func (h Handle) afterMove() {
	if (h.s.dim != (dimension.Handle{})) {
		h.s.dim.TeleportEntity(h.s.identity.UUID, h.s.pos)
	}
	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.PlayerMoveEvent{Player: h, NewPosition: h.s.pos, NewDirection: h.s.dir})
	}
	h.streamChunksAroundCurrentPosition()
}

func (h Handle) streamChunksAroundCurrentPosition() {
	centerX := int32(h.s.pos.X) >> 4
	centerZ := int32(h.s.pos.Z) >> 4
	center := chunkPos{X: centerX, Z: centerZ}
	if center == h.s.lastChunkPos {
		return
	}
	h.s.lastChunkPos = center

	for cx := centerX - ViewDistance; cx <= centerX+ViewDistance; cx++ {
		for cz := centerZ - ViewDistance; cz <= centerZ+ViewDistance; cz++ {
			pos := chunkPos{X: cx, Z: cz}
			if h.s.loadedChunks[pos] {
				continue
			}
			h.s.loadedChunks[pos] = true
			h.sendChunkColumn(pos)
		}
	}
}

func (h Handle) handlePlayerAction(r *bytes.Reader) {
	action, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return
	}
	x, y, z, err := protocol.ReadPosition(r)
	if err != nil {
		return
	}
	if _, err := protocol.ReadByte(r); err != nil { // face
		return
	}

	pos := chunkstore.BlockPos{X: x, Y: y, Z: z}
	ipos := events.IVec3{X: x, Y: y, Z: z}
	switch action {
	case digActionStartDigging:
		if h.s.bus != nil {
			events.Dispatch(h.s.bus, events.StartBreakBlockEvent{Player: h, Position: ipos})
		}
		// Creative mode breaks the instant digging starts; survival mode
		// waits for the client's Finish Digging packet below.
		if h.s.gamemode == GamemodeCreative {
			h.breakBlockAt(pos, ipos)
		}
	case digActionFinishDigging:
		if h.s.gamemode == GamemodeCreative {
			return // already broken on the start-digging packet
		}
		h.breakBlockAt(pos, ipos)
	case digActionDropItem, digActionDropAllItems:
		h.dropHeldItem(action == digActionDropAllItems)
	}
}

// breakBlockAt sets pos to air and dispatches BreakBlockEvent — the shared
// tail of survival's finish-digging packet and creative's instant break on
// start-digging.
func (h Handle) breakBlockAt(pos chunkstore.BlockPos, ipos events.IVec3) {
	if h.s.dim == (dimension.Handle{}) {
		return
	}
	old, err := h.s.dim.GetBlock(pos)
	if err != nil {
		return
	}
	if err := h.s.dim.SetBlock(pos, blockstate.Air); err != nil {
		return
	}
	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.BreakBlockEvent{Player: h, Position: ipos, OldBlock: old})
	}
}

// dropHeldItem splits (or takes the whole of) the currently selected
// hotbar stack and dispatches it as a DropItemEvent, mirroring the two
// Player Action drop variants (single item vs. whole stack).
func (h Handle) dropHeldItem(dropAll bool) {
	slotIndex := inventory.SlotHotbarStart + int(h.s.heldSlot)
	held := h.s.inv.Slot(slotIndex)
	if held.IsEmpty() {
		return
	}
	var dropped item.Stack
	if dropAll {
		dropped = held
		h.s.inv.SetSlot(slotIndex, item.Empty)
	} else {
		dropped = held.Split(1)
		h.s.inv.SetSlot(slotIndex, held)
	}
	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.DropItemEvent{Player: h, Item: dropped})
	}
}

// handleSwapItemInHand swaps the offhand slot with the currently selected
// hotbar slot and dispatches SwapHandsEvent.
func (h Handle) handleSwapItemInHand(r *bytes.Reader) {
	slotIndex := inventory.SlotHotbarStart + int(h.s.heldSlot)
	main := h.s.inv.Slot(slotIndex)
	off := h.s.inv.Slot(inventory.SlotOffhand)
	h.s.inv.SetSlot(slotIndex, off)
	h.s.inv.SetSlot(inventory.SlotOffhand, main)
	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.SwapHandsEvent{Player: h})
	}
}

// handleUseItem dispatches RightClickEvent for a right-click that targets
// no block (an empty-air or entity-less use of the held item).
func (h Handle) handleUseItem(r *bytes.Reader) {
	if _, _, err := protocol.ReadVarInt(r); err != nil { // hand
		return
	}
	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.RightClickEvent{Player: h})
	}
}

// handleClientStatus handles the Client Status packet's respawn action,
// dispatching PlayerRespawnEvent so an embedder can reposition the player.
func (h Handle) handleClientStatus(r *bytes.Reader) {
	action, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return
	}
	if action != clientStatusPerformRespawn {
		return
	}
	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.PlayerRespawnEvent{Player: h})
	}
}

func (h Handle) handleUseItemOn(r *bytes.Reader) {
	if _, _, err := protocol.ReadVarInt(r); err != nil { // hand
		return
	}
	x, y, z, err := protocol.ReadPosition(r)
	if err != nil {
		return
	}
	if _, _, err := protocol.ReadVarInt(r); err != nil { // face
		return
	}

	placed := blockstate.New("minecraft:stone") // concrete held-item -> block resolution lives in the content catalog
	pos := chunkstore.BlockPos{X: x, Y: y, Z: z}
	if h.s.dim != (dimension.Handle{}) {
		if err := h.s.dim.SetBlock(pos, placed); err != nil {
			return
		}
	}
	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.PlaceBlockEvent{Player: h, Position: events.IVec3{X: x, Y: y, Z: z}, Block: placed})
	}
}

func (h Handle) handleSwingArm(r *bytes.Reader) {
	if _, _, err := protocol.ReadVarInt(r); err != nil { // hand
		return
	}
	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.PlayerLeftClickEvent{Player: h})
	}
	if h.s.peers != nil && h.s.dim != (dimension.Handle{}) {
		anim := protocol.MarshalPacket(0x02, func(w *bytes.Buffer) {
			protocol.WriteVarInt(w, h.s.entityID)
			protocol.WriteByte(w, 0)
		})
		h.s.peers.BroadcastToDimension(h.s.dim.Key(), h.s.identity.UUID, anim)
	}
}

func (h Handle) handleInteractEntity(r *bytes.Reader) {
	targetEID, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return
	}
	useType, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return
	}
	const interactTypeAttack = 1
	if useType != interactTypeAttack {
		return
	}
	if h.s.bus == nil || h.s.dim == (dimension.Handle{}) {
		return
	}
	victim, err := h.s.dim.FindByEntityID(targetEID)
	if err != nil {
		return
	}
	if victim.IsPlayer {
		events.Dispatch(h.s.bus, events.PlayerAttackPlayerEvent{
			Attacker: h,
			Victim:   dimension.NewPlayerView(victim),
		})
		return
	}
	events.Dispatch(h.s.bus, events.PlayerAttackEntityEvent{
		Attacker: h,
		Victim:   dimension.NewEntityView(victim),
	})
}

func (h Handle) handleClickContainer(r *bytes.Reader) {
	if _, err := protocol.ReadByte(r); err != nil { // window id
		return
	}
	if _, _, err := protocol.ReadVarInt(r); err != nil { // state id
		return
	}
	slot, err := protocol.ReadInt16(r)
	if err != nil {
		return
	}
	if _, err := protocol.ReadByte(r); err != nil { // button
		return
	}
	if _, _, err := protocol.ReadVarInt(r); err != nil { // click mode
		return
	}
	h.s.inv.ClickSlot(int(slot), &h.s.cursor)
}

func (h Handle) handleHeldItemChange(r *bytes.Reader) {
	slot, err := protocol.ReadInt16(r)
	if err != nil {
		return
	}
	h.s.heldSlot = slot
	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.ChangeHeldSlotEvent{Player: h, Slot: slot})
	}
}
