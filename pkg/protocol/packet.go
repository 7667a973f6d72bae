package protocol

import (
	"bytes"
	"fmt"
	"io"
)

// Stage is the protocol's per-connection finite state, per spec.md §3/§4.E:
// Handshake → (Status | Login → Configuration → Play). Packet ID namespaces
// are scoped per stage.
type Stage int

const (
	StageHandshake Stage = iota
	StageStatus
	StageLogin
	StageConfiguration
	StagePlay
)

func (s Stage) String() string {
	switch s {
	case StageHandshake:
		return "handshake"
	case StageStatus:
		return "status"
	case StageLogin:
		return "login"
	case StageConfiguration:
		return "configuration"
	case StagePlay:
		return "play"
	default:
		return "unknown"
	}
}

// ProtocolVersion pins the Java Edition protocol version this codec speaks.
// Bump when targeting a different snapshot/release.
const ProtocolVersion = 769

const maxPacketLength = 2097151 // max 3-byte VarInt

// Packet is a decoded frame: its packet ID (already stripped from Data) and
// payload bytes, scoped to whatever Stage it was read under.
type Packet struct {
	ID   int32
	Data []byte
}

// ReadPacket reads one length-prefixed, VarInt-ID-prefixed frame.
func ReadPacket(r io.Reader) (*Packet, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 1 {
		return nil, fmt.Errorf("protocol: packet length too small: %d", length)
	}
	if length > maxPacketLength {
		return nil, fmt.Errorf("protocol: packet length too large: %d", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	pr := bytes.NewReader(payload)
	packetID, idLen, err := ReadVarInt(pr)
	if err != nil {
		return nil, err
	}

	return &Packet{ID: packetID, Data: payload[idLen:]}, nil
}

// WritePacket frames and writes p in a single buffered write.
func WritePacket(w io.Writer, p *Packet) error {
	idSize := VarIntSize(p.ID)
	totalLen := int32(idSize + len(p.Data))

	buf := bytes.NewBuffer(make([]byte, 0, VarIntSize(totalLen)+int(totalLen)))
	WriteVarInt(buf, totalLen)
	WriteVarInt(buf, p.ID)
	buf.Write(p.Data)

	_, err := w.Write(buf.Bytes())
	return err
}

// MarshalPacket builds a Packet by running builder against a fresh buffer.
func MarshalPacket(id int32, builder func(w *bytes.Buffer)) *Packet {
	var buf bytes.Buffer
	builder(&buf)
	return &Packet{ID: id, Data: buf.Bytes()}
}

// Disconnect packet IDs differ by stage; only Login/Configuration/Play
// support a server-initiated disconnect with a reason.
const (
	PacketDisconnectLogin         int32 = 0x00
	PacketDisconnectConfiguration int32 = 0x02
	PacketDisconnectPlay          int32 = 0x1D
)

// DisconnectPacketID returns the packet ID for a Disconnect frame in stage,
// and false if that stage has no such packet (Handshake, Status).
func DisconnectPacketID(stage Stage) (int32, bool) {
	switch stage {
	case StageLogin:
		return PacketDisconnectLogin, true
	case StageConfiguration:
		return PacketDisconnectConfiguration, true
	case StagePlay:
		return PacketDisconnectPlay, true
	default:
		return 0, false
	}
}
