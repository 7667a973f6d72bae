package server

import (
	"testing"
	"time"

	"github.com/voxact-mc/voxact/pkg/events"
)

func TestBuilderRequiresAtLeastOneDimension(t *testing.T) {
	_, err := NewBuilder().Build()
	if err == nil {
		t.Fatal("expected Build to fail with no dimensions configured")
	}
}

func TestBuilderBuildStartsConfiguredDimensions(t *testing.T) {
	s, err := NewBuilder().Dimension("minecraft:overworld").Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if _, ok := s.Dimension("minecraft:overworld"); !ok {
		t.Fatal("expected overworld dimension to be running after Build")
	}
	got, err := s.DefaultDimension()
	if err != nil {
		t.Fatalf("DefaultDimension error: %v", err)
	}
	if got != "minecraft:overworld" {
		t.Fatalf("DefaultDimension = %q, want minecraft:overworld", got)
	}
}

func TestRunListensAndCanBeStopped(t *testing.T) {
	s, err := NewBuilder().
		Config(Config{Address: "127.0.0.1:0", MaxPlayers: 5}).
		Dimension("minecraft:overworld").
		Run()
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	defer s.Stop()

	if s.MaxPlayers() != 5 {
		t.Fatalf("MaxPlayers() = %d, want 5", s.MaxPlayers())
	}

	select {
	case <-s.StopChan():
		t.Fatal("StopChan closed before Stop was called")
	default:
	}

	s.Stop()
	select {
	case <-s.StopChan():
	default:
		t.Fatal("StopChan not closed after Stop")
	}
}

func TestEventHandlerReceivesServerStartEvent(t *testing.T) {
	received := make(chan struct{}, 1)
	b := NewBuilder().Dimension("minecraft:overworld")
	On(b, func(e *events.ServerStartEvent) error {
		select {
		case received <- struct{}{}:
		default:
		}
		return nil
	})

	s, err := b.Config(Config{Address: "127.0.0.1:0"}).Run()
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	defer s.Stop()

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("ServerStartEvent handler was never invoked")
	}
}
