package protocol

import (
	"bytes"
	"testing"
)

func TestBitsForDirect(t *testing.T) {
	tests := []struct {
		max  uint32
		want byte
	}{
		{0, 4},
		{15, 4},
		{16, 5},
		{255, 8},
		{256, 9},
	}
	for _, tt := range tests {
		if got := bitsForDirect(tt.max); got != tt.want {
			t.Errorf("bitsForDirect(%d) = %d, want %d", tt.max, got, tt.want)
		}
	}
}

func TestPackDirectRoundTrip(t *testing.T) {
	values := make([]uint32, 4096)
	for i := range values {
		values[i] = uint32(i % 13)
	}
	bits := bitsForDirect(12)
	packed := packDirect(values, bits)

	perLong := 64 / int(bits)
	mask := uint64(1)<<uint(bits) - 1
	for i, want := range values {
		longIdx := i / perLong
		shift := uint(i%perLong) * uint(bits)
		got := uint32((packed[longIdx] >> shift) & mask)
		if got != want {
			t.Fatalf("packed value at index %d = %d, want %d", i, got, want)
		}
	}
}

func TestSingleValuedContainerWriteTo(t *testing.T) {
	c := NewSingleValuedContainer(7)
	var buf bytes.Buffer
	if err := c.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}

	r := bytes.NewReader(buf.Bytes())
	bits, err := ReadByte(r)
	if err != nil {
		t.Fatalf("ReadByte error: %v", err)
	}
	if bits != 0 {
		t.Fatalf("bitsPerEntry = %d, want 0", bits)
	}
	val, _, err := ReadVarInt(r)
	if err != nil {
		t.Fatalf("ReadVarInt error: %v", err)
	}
	if val != 7 {
		t.Fatalf("palette value = %d, want 7", val)
	}
}

func TestDirectBlockContainerWriteToHasDataLongs(t *testing.T) {
	ids := make([]uint32, 4096)
	c := NewDirectBlockContainer(ids, 15)
	var buf bytes.Buffer
	if err := c.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("WriteTo produced no bytes")
	}
}
