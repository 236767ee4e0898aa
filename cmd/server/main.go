package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/leonardcser/ttl-cache/internal/config"
	"github.com/leonardcser/ttl-cache/internal/daemon"
	"github.com/leonardcser/ttl-cache/internal/logger"
	tools "github.com/leonardcser/ttl-cache/internal/tools"
)

const daemonBinary = "ttl-cache-server"

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Infof("Starting TTL cache MCP server")

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("Invalid configuration: %v", err)
		panic(err)
	}

	// Connect to cache daemon; start it if needed, then connect.
	logger.Infof("Attempting to connect to cache daemon at %s", cfg.SocketPath)
	client := daemon.NewClient(cfg.SocketPath, cfg.DialTimeout)
	if err := client.Ping(); err != nil {
		logger.Warnf("Failed to connect to cache daemon: %v, attempting to start daemon", err)
		if startErr := startCacheDaemon(); startErr != nil {
			logger.Errorf("Failed to start cache daemon: %v", startErr)
		} else {
			logger.Infof("Cache daemon started successfully")
		}
		// wait for socket to appear
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if err = client.Ping(); err == nil {
				break
			}
			time.Sleep(200 * time.Millisecond)
		}
		if err != nil {
			logger.Errorf("Failed to connect to cache daemon after startup attempt: %v", err)
			panic(err)
		}
	}
	logger.Infof("Successfully connected to cache daemon")

	s := server.NewMCPServer(
		"TTL Cache MCP",
		"0.1.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	key := mcp.WithString("key", mcp.Required(), mcp.Description("The cache key"))

	s.AddTool(mcp.NewTool("cache-get",
		mcp.WithDescription(multiline(
			"Reads a value from the cache",
			"- Expired items are evicted on read and reported as not found",
			"- When the item has a TTL, its creation time and deadline are included",
		)),
		key,
	), tools.CacheGetHandler(client))

	s.AddTool(mcp.NewTool("cache-set",
		mcp.WithDescription(multiline(
			"Stores a value in the cache",
			"- ttl is an optional lifetime in whole seconds and must be greater than 0",
			"- Without ttl the item never expires",
		)),
		key,
		mcp.WithString("value", mcp.Required(), mcp.Description("The value to store")),
		mcp.WithNumber("ttl", mcp.Description("Lifetime in seconds")),
	), tools.CacheSetHandler(client))

	s.AddTool(mcp.NewTool("cache-has",
		mcp.WithDescription("Reports whether a non-expired item exists for the key"),
		key,
	), tools.CacheHasHandler(client))

	s.AddTool(mcp.NewTool("cache-touch",
		mcp.WithDescription(multiline(
			"Renews the deadline of an item that was stored with a TTL",
			"- The new deadline is now plus the original TTL",
			"- Items without a TTL are left unchanged",
		)),
		key,
	), tools.CacheTouchHandler(client))

	s.AddTool(mcp.NewTool("cache-delete",
		mcp.WithDescription("Removes an item from the cache"),
		key,
	), tools.CacheDeleteHandler(client))
	logger.Infof("Registered cache tools")

	logger.Infof("Starting MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
	}
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }

func startCacheDaemon() error {
	// 1) Try daemon binary next to this server executable
	if exePath, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exePath), daemonBinary)
		if _, statErr := os.Stat(sibling); statErr == nil {
			return spawn(sibling)
		}
	}
	// 2) Try PATH binary
	if path, err := exec.LookPath(daemonBinary); err == nil {
		return spawn(path)
	}
	return exec.ErrNotFound
}

func spawn(path string) error {
	cmd := exec.Command(path)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Env = os.Environ()
	return cmd.Start()
}
