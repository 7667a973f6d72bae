// Command voxactd runs a standalone voxact server with the bundled
// flatgen example world generator. Grounded on the teacher's
// cmd/server/main.go: flag-driven Config, log-and-wait-on-signal
// lifecycle, graceful Stop on shutdown.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxact-mc/voxact/examples/flatgen"
	"github.com/voxact-mc/voxact/pkg/registry"
	"github.com/voxact-mc/voxact/pkg/server"
)

func main() {
	address := flag.String("address", ":25565", "Address to listen on")
	maxPlayers := flag.Int("max-players", 20, "Maximum number of players")
	motd := flag.String("motd", "A voxact server", "Server MOTD (stored in the server Config; status responses show a fixed description)")
	seed := flag.Int64("seed", 0, "World seed for the bundled example generator (0 = time-based)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(*logLevel),
	})))

	reg := registry.Default()
	gen := flatgen.NewGenerator(resolveSeed(*seed), reg)

	b := server.NewBuilder().
		Config(server.Config{Address: *address, MaxPlayers: *maxPlayers, MOTD: *motd}).
		Registry(reg).
		Dimension("minecraft:overworld")

	srv, err := b.Run()
	if err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	if dim, ok := srv.Dimension("minecraft:overworld"); ok {
		if err := dim.SetChunkGenerator(gen.Func()); err != nil {
			slog.Error("failed to install chunk generator", "error", err)
		}
	}

	slog.Info("voxactd started", "address", *address, "max_players", *maxPlayers, "protocol", "modern")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case <-srv.StopChan():
		slog.Info("shutting down (internal)")
	}

	srv.Stop()
	slog.Info("server stopped")
}

func resolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
