package connection

import (
	"bytes"
	"net"
	"testing"

	"github.com/voxact-mc/voxact/pkg/protocol"
)

func newTestConnection(t *testing.T) (Handle, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	st := &state{
		conn:         server,
		stage:        protocol.StageHandshake,
		loadedChunks: make(map[chunkPos]bool),
	}
	return Handle{s: st}, client
}

func TestHandshakeTransitionsToStatus(t *testing.T) {
	h, _ := newTestConnection(t)

	pkt := protocol.MarshalPacket(0x00, func(w *bytes.Buffer) {
		protocol.WriteVarInt(w, protocol.ProtocolVersion)
		protocol.WriteString(w, "localhost")
		protocol.WriteUint16(w, 25565)
		protocol.WriteVarInt(w, 1) // next state: status
	})
	h.dispatch(&protocol.Packet{ID: pkt.ID, Data: pkt.Data})

	if h.s.stage != protocol.StageStatus {
		t.Fatalf("stage after handshake(next=1) = %v, want StageStatus", h.s.stage)
	}
}

func TestHandshakeTransitionsToLogin(t *testing.T) {
	h, _ := newTestConnection(t)

	pkt := protocol.MarshalPacket(0x00, func(w *bytes.Buffer) {
		protocol.WriteVarInt(w, protocol.ProtocolVersion)
		protocol.WriteString(w, "localhost")
		protocol.WriteUint16(w, 25565)
		protocol.WriteVarInt(w, 2) // next state: login
	})
	h.dispatch(&protocol.Packet{ID: pkt.ID, Data: pkt.Data})

	if h.s.stage != protocol.StageLogin {
		t.Fatalf("stage after handshake(next=2) = %v, want StageLogin", h.s.stage)
	}
}

func TestOfflineUUIDIsDeterministic(t *testing.T) {
	a := offlineUUID("Steve")
	b := offlineUUID("Steve")
	if a != b {
		t.Fatalf("offlineUUID not deterministic: %v != %v", a, b)
	}
	if offlineUUID("Steve") == offlineUUID("Alex") {
		t.Fatal("offlineUUID collided for different usernames")
	}
}
