// Package server is the top-level actor that owns the registry, the event
// bus, the set of running dimensions, and the network accept loop
// (spec.md §4.A/§4.F). Builder mirrors the teacher's Config/New
// construction (pkg/server/server.go), generalized from one hardcoded
// world to a registry-driven set of dimensions plus user event handlers.
package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voxact-mc/voxact/pkg/blockstate"
	"github.com/voxact-mc/voxact/pkg/chunkstore"
	"github.com/voxact-mc/voxact/pkg/connection"
	"github.com/voxact-mc/voxact/pkg/dimension"
	"github.com/voxact-mc/voxact/pkg/events"
	"github.com/voxact-mc/voxact/pkg/protocol"
	"github.com/voxact-mc/voxact/pkg/registry"
)

// TickRate is the server's fixed simulation rate, matching the teacher's
// 50ms (20 Hz) ticker (pkg/server/entity.go's entityPhysicsLoop).
const TickRate = 20

// Config holds the server's network and capacity settings, mirroring the
// teacher's Config/DefaultConfig pattern.
type Config struct {
	Address    string
	MaxPlayers int
	MOTD       string
}

// DefaultConfig returns sensible defaults for a standalone voxactd run.
func DefaultConfig() Config {
	return Config{Address: ":25565", MaxPlayers: 20, MOTD: "A voxact server"}
}

// Server is the object every connection and dimension ultimately answers
// to. Its state is guarded by mu rather than owned by an actor mailbox, and
// nothing limits a process to a single Server: each Builder.Build call
// creates a new one.
type Server struct {
	config   Config
	registry *registry.Container
	bus      *events.Bus

	mu         sync.RWMutex
	dimensions map[string]dimension.Handle
	defaultDim string
	connsByUUID map[uuid.UUID]connection.Handle
	connsByDim  map[string]map[uuid.UUID]connection.Handle

	joinOverride func(conn connection.Handle) (dimension.Handle, events.DVec3, error)

	listener net.Listener
	stopCh   chan struct{}
}

// DefaultDimension returns the registry key of the dimension new
// connections join by default, satisfying events.Server.
func (s *Server) DefaultDimension() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.defaultDim == "" {
		return "", fmt.Errorf("server: no default dimension configured")
	}
	return s.defaultDim, nil
}

// MaxPlayers satisfies connection.PeerBroadcaster.
func (s *Server) MaxPlayers() int { return s.config.MaxPlayers }

// Dimension returns the running dimension handle for key.
func (s *Server) Dimension(key string) (dimension.Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.dimensions[key]
	return h, ok
}

const blockUpdatePacketID int32 = 0x09

// BroadcastBlockChange fans a block update out to the wire via every
// Play-stage connection on the server — satisfies dimension.Broadcaster per
// the server-wide-broadcast-scope redesign (SPEC_FULL.md §9: block updates
// are visible to any player on the server, full stop, not scoped to whoever
// is watching the owning dimension). connsByUUID, not connsByDim, is the
// server-wide fan-out set this requires.
func (s *Server) BroadcastBlockChange(dimensionKey string, pos chunkstore.BlockPos, state blockstate.State) {
	stateID := s.registry.BlockStateID(state.Name, "")
	pkt := protocol.MarshalPacket(blockUpdatePacketID, func(w *bytes.Buffer) {
		protocol.WritePosition(w, pos.X, pos.Y, pos.Z)
		protocol.WriteVarInt(w, int32(stateID))
	})

	s.mu.RLock()
	targets := make([]connection.Handle, 0, len(s.connsByUUID))
	for _, conn := range s.connsByUUID {
		targets = append(targets, conn)
	}
	s.mu.RUnlock()

	slog.Debug("block change broadcast", "dimension", dimensionKey, "pos", pos, "peers", len(targets))
	for _, conn := range targets {
		if conn.InPlay() {
			conn.SendPacket(pkt)
		}
	}
}

// BroadcastToDimension fans pkt out to every connection in dimensionKey
// other than exclude, satisfying connection.PeerBroadcaster.
func (s *Server) BroadcastToDimension(dimensionKey string, exclude uuid.UUID, pkt *protocol.Packet) {
	s.mu.RLock()
	peers := s.connsByDim[dimensionKey]
	targets := make([]connection.Handle, 0, len(peers))
	for id, conn := range peers {
		if id != exclude {
			targets = append(targets, conn)
		}
	}
	s.mu.RUnlock()

	for _, conn := range targets {
		conn.SendPacket(pkt)
	}
}

func (s *Server) registerConnection(conn connection.Handle, dimKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connsByUUID[conn.UUID()] = conn
	if s.connsByDim[dimKey] == nil {
		s.connsByDim[dimKey] = make(map[uuid.UUID]connection.Handle)
	}
	s.connsByDim[dimKey][conn.UUID()] = conn
}

func (s *Server) unregisterConnection(id uuid.UUID, dimKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connsByUUID, id)
	delete(s.connsByDim[dimKey], id)
}

// Disconnected satisfies connection.PeerBroadcaster: a connection reports
// its own departure here so registerConnection's bookkeeping doesn't leak a
// connsByUUID/connsByDim entry for every player who ever disconnects
// (spec.md §7).
func (s *Server) Disconnected(id uuid.UUID, dimKey string) {
	s.unregisterConnection(id, dimKey)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				slog.Error("accept error", "error", err)
				continue
			}
		}
		connection.Accept(conn, s.bus, s.resolveJoin, s)
	}
}

func (s *Server) resolveJoin(conn connection.Handle) (dimension.Handle, events.DVec3, error) {
	if s.joinOverride != nil {
		dim, pos, err := s.joinOverride(conn)
		if err != nil {
			return dimension.Handle{}, events.DVec3{}, err
		}
		s.registerConnection(conn, dim.Key())
		return dim, pos, nil
	}

	key, err := s.DefaultDimension()
	if err != nil {
		return dimension.Handle{}, events.DVec3{}, err
	}
	dim, ok := s.Dimension(key)
	if !ok {
		return dimension.Handle{}, events.DVec3{}, fmt.Errorf("server: dimension %q not running", key)
	}
	s.registerConnection(conn, key)
	return dim, events.DVec3{X: 8, Y: 64, Z: 8}, nil
}

func (s *Server) tickLoop() {
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			events.Dispatch(s.bus, events.ServerTickEvent{Server: s})
		}
	}
}

// StopChan lets the CLI entrypoint select on an internally-triggered
// shutdown alongside an OS signal, mirroring the teacher's srv.StopChan().
func (s *Server) StopChan() <-chan struct{} { return s.stopCh }

// Stop closes the listener and signals every background loop to exit.
// Calling it again after it has returned does nothing.
func (s *Server) Stop() {
	select {
	case <-s.stopCh:
		return
	default:
	}
	close(s.stopCh)
	if s.listener != nil {
		s.listener.Close()
	}
}
