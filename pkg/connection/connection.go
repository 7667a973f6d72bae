// Package connection implements the per-client connection actor (spec.md
// §4.E): the Handshake → (Status | Login) → Configuration → Play stage
// machine, one dedicated goroutine per TCP connection, and the Play-stage
// packet handler contract table.
//
// Grounded on the teacher's handleConnection/handlePlay/handlePlayPacket
// (pkg/server/server.go, pkg/server/player.go, pkg/server/packet_handler.go),
// generalized from a single hardcoded world to a connection that asks a
// server.Handle for whichever dimension.Handle it should join.
package connection

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/voxact-mc/voxact/pkg/actor"
	"github.com/voxact-mc/voxact/pkg/chat"
	"github.com/voxact-mc/voxact/pkg/chunkstore"
	"github.com/voxact-mc/voxact/pkg/dimension"
	"github.com/voxact-mc/voxact/pkg/events"
	"github.com/voxact-mc/voxact/pkg/inventory"
	"github.com/voxact-mc/voxact/pkg/item"
	"github.com/voxact-mc/voxact/pkg/protocol"
	"github.com/voxact-mc/voxact/pkg/taskrt"
)

// ViewDistance is the radius, in chunks, of the square kept loaded around a
// player (spec.md §4.E's chunk-streaming throttle).
const ViewDistance = 8

// JoinResolver is called synchronously once the Configuration stage
// finishes to decide which dimension a connecting player should join — the
// redesigned replacement for the Rust original's busy-waited mutable
// join-target cell (SPEC_FULL.md §9). The server supplies it
// (Server.resolveJoin), which defers to server.Builder.OnJoin's callback
// when one is set.
type JoinResolver func(conn Handle) (dimension.Handle, events.DVec3, error)

// Identity is what a connection knows about the authenticated player before
// any Play-stage state exists.
type Identity struct {
	UUID     uuid.UUID
	Username string
}

type chunkPos = chunkstore.ChunkPos

// PeerBroadcaster lets a connection fan a packet out to every other
// connected player in the same dimension (swing animations) and
// report its own departure, without this package importing pkg/server —
// satisfied structurally, the same trick dimension.Broadcaster and the
// events package use.
type PeerBroadcaster interface {
	BroadcastToDimension(dimKey string, exclude uuid.UUID, pkt *protocol.Packet)
	MaxPlayers() int
	Disconnected(id uuid.UUID, dimKey string)
}

// Gamemode is the player-visible game mode, gating behaviors like
// instant-break digging (spec.md §4.E).
type Gamemode int32

const (
	GamemodeSurvival Gamemode = 0
	GamemodeCreative Gamemode = 1
)

type state struct {
	conn     net.Conn
	stage    protocol.Stage
	identity Identity
	entityID int32

	dim     dimension.Handle
	bus     *events.Bus
	join    JoinResolver
	peers   PeerBroadcaster

	pos          events.DVec3
	dir          events.Vec2
	loadedChunks map[chunkPos]bool
	lastChunkPos chunkPos

	inv         *inventory.Inventory
	cursor      item.Stack
	heldSlot    int16
	openScreen  inventory.ScreenKind

	gamemode Gamemode

	teleportID     int32
	awaitingAccept bool
}

// Handle is the shared reference to a running connection actor.
type Handle struct {
	a actor.Handle
	s *state
}

func (h Handle) UUID() uuid.UUID  { return h.s.identity.UUID }
func (h Handle) Username() string { return h.s.identity.Username }
func (h Handle) EntityID() int32  { return h.s.entityID }

// InPlay reports whether this connection has completed the handshake and is
// in the Play stage, i.e. whether a server-wide broadcast like
// BroadcastBlockChange should actually deliver a packet to it. Read
// unsynchronized off the state struct like SendPacket's sibling fields — an
// accepted, documented race with the connection's own actor goroutine, same
// as every other fire-and-forget broadcast path in this package.
func (h Handle) InPlay() bool { return h.s.stage == protocol.StagePlay }

// SetGamemode changes the player's gamemode, posted to the connection's own
// actor so it's safe to call from any goroutine.
func (h Handle) SetGamemode(gm Gamemode) {
	actor.Send(h.a, func() { h.s.gamemode = gm })
}

// SendPacket queues pkt to be written to this connection's socket from its
// own actor goroutine, so a broadcaster (pkg/server) can fan packets out to
// other connections without touching their net.Conn directly. Fire and
// forget: a connection whose actor has stopped drops the send, while a full
// mailbox makes the caller wait until there is room.
func (h Handle) SendPacket(pkt *protocol.Packet) {
	actor.Send(h.a, func() {
		protocol.WritePacket(h.s.conn, pkt)
	})
}

// Accept starts a connection actor for an already-accepted net.Conn. bus is
// the shared server event bus and join is the callback that resolves which
// dimension to place the player in once login completes.
func Accept(conn net.Conn, bus *events.Bus, join JoinResolver, peers PeerBroadcaster) {
	st := &state{
		conn:         conn,
		stage:        protocol.StageHandshake,
		loadedChunks: make(map[chunkPos]bool),
		bus:          bus,
		join:         join,
		peers:        peers,
		inv:          inventory.NewPlayerInventory(),
	}

	mailbox, run := actor.NewMailbox(64)
	h := Handle{a: mailbox, s: st}

	taskrt.SpawnActor("connection", func() {
		go h.readLoop()
		run(func(fn func()) { fn() })
	})
}

// readLoop is the only goroutine that ever touches conn for reads; every
// decoded packet is handed to the actor's own goroutine via Send so handler
// logic never races the mailbox loop.
func (h Handle) readLoop() {
	defer h.s.conn.Close()
	for {
		h.s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		pkt, err := protocol.ReadPacket(h.s.conn)
		if err != nil {
			actor.Send(h.a, func() { h.handleDisconnect(err) })
			return
		}
		p := pkt
		if err := actor.Send(h.a, func() { h.dispatch(p) }); err != nil {
			return
		}
	}
}

func (h Handle) handleDisconnect(cause error) {
	slog.Info("connection closed", "user", h.s.identity.Username, "cause", cause)
	if h.s.stage == protocol.StagePlay && (h.s.dim != dimension.Handle{}) {
		h.s.dim.RemoveEntity(h.s.identity.UUID)
		if h.s.peers != nil {
			h.s.peers.Disconnected(h.s.identity.UUID, h.s.dim.Key())
		}
	}
	// No further packets will ever be dispatched through this handle's
	// mailbox; terminate its actor loop so it doesn't idle forever.
	actor.Close(h.a)
}

func (h Handle) dispatch(pkt *protocol.Packet) {
	switch h.s.stage {
	case protocol.StageHandshake:
		h.handleHandshake(pkt)
	case protocol.StageStatus:
		h.handleStatus(pkt)
	case protocol.StageLogin:
		h.handleLogin(pkt)
	case protocol.StageConfiguration:
		h.handleConfiguration(pkt)
	case protocol.StagePlay:
		h.handlePlayPacket(pkt)
	}
}

func (h Handle) handleHandshake(pkt *protocol.Packet) {
	if pkt.ID != 0x00 {
		return
	}
	r := bytes.NewReader(pkt.Data)
	if _, _, err := protocol.ReadVarInt(r); err != nil { // protocol version
		return
	}
	if _, err := protocol.ReadString(r); err != nil { // server address
		return
	}
	if _, err := protocol.ReadUint16(r); err != nil { // server port
		return
	}
	next, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return
	}
	switch next {
	case 1:
		h.s.stage = protocol.StageStatus
	case 2:
		h.s.stage = protocol.StageLogin
	}
}

func (h Handle) handleStatus(pkt *protocol.Packet) {
	switch pkt.ID {
	case 0x00:
		resp := protocol.MarshalPacket(0x00, func(w *bytes.Buffer) {
			max := 20
			if h.s.peers != nil {
				max = h.s.peers.MaxPlayers()
			}
			body := fmt.Sprintf(
				`{"version":{"name":"voxact","protocol":%d},"players":{"max":%d,"online":0},"description":{"text":"A voxact server"}}`,
				protocol.ProtocolVersion, max)
			protocol.WriteString(w, body)
		})
		protocol.WritePacket(h.s.conn, resp)
	case 0x01:
		protocol.WritePacket(h.s.conn, pkt)
	}
}

func (h Handle) handleLogin(pkt *protocol.Packet) {
	if pkt.ID != 0x00 {
		return
	}
	r := bytes.NewReader(pkt.Data)
	username, err := protocol.ReadString(r)
	if err != nil {
		h.disconnectDuring(protocol.StageLogin, "bad login start")
		return
	}

	h.s.identity = Identity{UUID: offlineUUID(username), Username: username}

	success := protocol.MarshalPacket(0x02, func(w *bytes.Buffer) {
		protocol.WriteString(w, h.s.identity.UUID.String())
		protocol.WriteString(w, username)
		protocol.WriteVarInt(w, 0) // no data-component properties
	})
	if err := protocol.WritePacket(h.s.conn, success); err != nil {
		return
	}
	h.s.stage = protocol.StageConfiguration
}

func (h Handle) handleConfiguration(pkt *protocol.Packet) {
	// Client signals it's ready to move to Play with a Finish
	// Configuration acknowledgement; any other configuration-stage packet
	// (client information, plugin messages) is accepted and ignored.
	const finishConfigurationAck = 0x03
	if pkt.ID != finishConfigurationAck {
		return
	}
	h.joinPlay()
}

func (h Handle) joinPlay() {
	if h.s.join == nil {
		h.disconnectDuring(protocol.StageConfiguration, "server has no join target configured")
		return
	}
	dim, spawnPos, err := h.s.join(h)
	if err != nil {
		h.disconnectDuring(protocol.StageConfiguration, err.Error())
		return
	}
	h.s.dim = dim
	h.s.pos = spawnPos

	eid, err := dim.SpawnPlayerEntity(h.s.identity.UUID, h.s.identity.Username, spawnPos)
	if err != nil {
		h.disconnectDuring(protocol.StageConfiguration, err.Error())
		return
	}
	h.s.entityID = eid
	h.s.stage = protocol.StagePlay

	h.sendJoinGame()
	h.streamInitialChunks()
	h.sendSyncPosition(spawnPos, events.Vec2{})
	h.sendExistingEntities(dim)

	if h.s.bus != nil {
		events.Dispatch(h.s.bus, events.PlayerJoinEvent{Player: h, NewDimension: dim.Key()})
		events.Dispatch(h.s.bus, events.PlayerLoadEvent{Player: h})
	}
}

func (h Handle) sendJoinGame() {
	pkt := protocol.MarshalPacket(0x2B, func(w *bytes.Buffer) {
		protocol.WriteInt32(w, h.s.entityID)
		protocol.WriteBool(w, false) // hardcore
		protocol.WriteString(w, h.s.dim.Key())
		protocol.WriteFloat64(w, h.s.pos.X)
		protocol.WriteFloat64(w, h.s.pos.Y)
		protocol.WriteFloat64(w, h.s.pos.Z)
	})
	protocol.WritePacket(h.s.conn, pkt)
}

// streamInitialChunks queues every chunk inside ViewDistance of the spawn
// position, nearest first, matching the teacher's sendSpawnChunks throttle.
func (h Handle) streamInitialChunks() {
	centerX := int32(h.s.pos.X) >> 4
	centerZ := int32(h.s.pos.Z) >> 4
	h.s.lastChunkPos = chunkPos{X: centerX, Z: centerZ}

	type withDist struct {
		pos  chunkPos
		dist int32
	}
	var toSend []withDist
	for cx := centerX - ViewDistance; cx <= centerX+ViewDistance; cx++ {
		for cz := centerZ - ViewDistance; cz <= centerZ+ViewDistance; cz++ {
			dx, dz := cx-centerX, cz-centerZ
			toSend = append(toSend, withDist{chunkPos{X: cx, Z: cz}, dx*dx + dz*dz})
			h.s.loadedChunks[chunkPos{X: cx, Z: cz}] = true
		}
	}
	sort.Slice(toSend, func(i, j int) bool { return toSend[i].dist < toSend[j].dist })

	for _, c := range toSend {
		h.sendChunkColumn(c.pos)
	}
}

// sendExistingEntities sends an add-entity packet for every entity already
// registered in dim (other than this connection's own player record) so a
// newly joined player can see who and what was already there — the other
// half of entity visibility from the dimension's own spawn/despawn/move
// broadcasts (spec.md §4.E new-dimension flow).
func (h Handle) sendExistingEntities(dim dimension.Handle) {
	existing, err := dim.AllEntities()
	if err != nil {
		return
	}
	for _, rec := range existing {
		if rec.UUID == h.s.identity.UUID {
			continue
		}
		rec := rec
		if pkt, ok := dim.SpawnEntityPacketFor(&rec); ok {
			protocol.WritePacket(h.s.conn, pkt)
		}
	}
}

// sendChunkColumn streams every vertical section of one chunk column to the
// client. Real framing of the "Chunk Data and Update Light" packet is left
// to the wire layer's ChunkSection.ToWire payloads concatenated here.
func (h Handle) sendChunkColumn(pos chunkPos) {
	sectionIdx := 0
	for {
		data, err := h.s.dim.GetChunkSection(pos.X, pos.Z, sectionIdx)
		if err != nil {
			return
		}
		pkt := protocol.MarshalPacket(0x27, func(w *bytes.Buffer) {
			protocol.WriteInt32(w, pos.X)
			protocol.WriteInt32(w, pos.Z)
			protocol.WriteVarInt(w, int32(sectionIdx))
			protocol.WriteVarInt(w, int32(len(data)))
			w.Write(data)
		})
		protocol.WritePacket(h.s.conn, pkt)
		sectionIdx++
		if sectionIdx > 64 { // defensive bound, sections per column never gets near this
			return
		}
		if err != nil {
			return
		}
	}
}

func (h Handle) disconnectDuring(stage protocol.Stage, reason string) {
	id, ok := protocol.DisconnectPacketID(stage)
	if ok {
		pkt := protocol.MarshalPacket(id, func(w *bytes.Buffer) {
			protocol.WriteString(w, chat.Disconnect(reason).String())
		})
		protocol.WritePacket(h.s.conn, pkt)
	}
	h.s.conn.Close()
}

func offlineUUID(username string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("OfflinePlayer:"+username))
}
