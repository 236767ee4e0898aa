package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/leonardcser/ttl-cache/internal/cache"
	"github.com/leonardcser/ttl-cache/internal/config"
	"github.com/leonardcser/ttl-cache/internal/daemon"
	"github.com/leonardcser/ttl-cache/internal/logger"
	"github.com/leonardcser/ttl-cache/internal/ttl"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if cfg.LogPath != "" {
		err = logger.Init(cfg.LogPath, cfg.LogLevel)
	} else {
		err = logger.InitFromEnv()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Close()
	log := logger.L().Named("cache-server")

	store, closer, l, err := openAndListen(cfg)
	if err != nil {
		log.Fatal("startup", zap.String("socket", cfg.SocketPath), zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer closer.Close()

	c := cache.New(store,
		cache.WithLogger(log.Named("cache")),
		cache.WithPlugin(ttl.New(ttl.WithLogger(log.Named("ttl")))),
	)
	srv, err := daemon.NewServer(c, log)
	if err != nil {
		log.Fatal("create server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("serving", zap.String("socket", cfg.SocketPath), zap.String("backend", cfg.Backend))
	if err := srv.Serve(ctx, l); err != nil {
		log.Error("serve", zap.Error(err))
	}
	_ = os.Remove(cfg.SocketPath)
	log.Info("stopped")
}

// openAndListen opens the store before binding the socket so a bad backend
// leaves no socket file behind.
func openAndListen(cfg config.Config) (cache.Store, io.Closer, net.Listener, error) {
	store, closer, err := daemon.OpenStore(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	// Ensure socket dir exists and remove stale socket
	_ = os.MkdirAll(filepath.Dir(cfg.SocketPath), 0o755)
	_ = os.Remove(cfg.SocketPath)

	l, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		_ = closer.Close()
		return nil, nil, nil, fmt.Errorf("listen: %w", err)
	}
	_ = os.Chmod(cfg.SocketPath, 0o600)
	return store, closer, l, nil
}
