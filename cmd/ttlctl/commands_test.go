package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leonardcser/ttl-cache/internal/cache"
	"github.com/leonardcser/ttl-cache/internal/daemon"
	"github.com/leonardcser/ttl-cache/internal/ttl"
)

func startDaemon(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "ttlctl")
	if err != nil {
		t.Fatalf("MkdirTemp failed: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	sock := filepath.Join(dir, "s.sock")

	store, _ := cache.NewMemoryStore(0)
	srv, err := daemon.NewServer(cache.New(store, cache.WithPlugin(ttl.New())), nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, l)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return sock
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	sock := startDaemon(t)

	if _, err := run(t, "set", "--socket", sock, "plain", "v1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	out, err := run(t, "touch", "--socket", sock, "plain")
	if err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	if !strings.Contains(out, "has no TTL") {
		t.Errorf("Unexpected touch output %q", out)
	}

	if _, err := run(t, "set", "--socket", sock, "--ttl", "0", "k", "v"); err == nil {
		t.Error("Expected ttl=0 to be rejected")
	}
	if _, err := run(t, "set", "--socket", sock, "--ttl", "60", "k", "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	out, err = run(t, "get", "--socket", sock, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if out != "v" {
		t.Errorf("Expected v, got %q", out)
	}
	out, err = run(t, "touch", "--socket", sock, "k")
	if err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	if !strings.Contains(out, "ttl:        60s") {
		t.Errorf("Unexpected touch output %q", out)
	}

	out, _ = run(t, "has", "--socket", sock, "k")
	if strings.TrimSpace(out) != "true" {
		t.Errorf("Expected true, got %q", out)
	}
	if _, err := run(t, "del", "--socket", sock, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	out, _ = run(t, "has", "--socket", sock, "k")
	if strings.TrimSpace(out) != "false" {
		t.Errorf("Expected false, got %q", out)
	}
	if _, err := run(t, "get", "--socket", sock, "k"); err == nil {
		t.Error("Expected get of a deleted key to fail")
	}
}
