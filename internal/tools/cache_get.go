package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/mo"

	"github.com/leonardcser/ttl-cache/internal/cache"
	"github.com/leonardcser/ttl-cache/internal/daemon"
	"github.com/leonardcser/ttl-cache/internal/ttl"
)

// Backend is the cache surface the tools drive. *daemon.Client implements it.
type Backend interface {
	Get(key string) (*daemon.Item, error)
	Has(key string) (bool, error)
	Set(key string, value []byte, extra cache.Extra) error
	Touch(key string) (mo.Option[ttl.Metadata], error)
	Delete(key string) error
}

type handlerFunc = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// CacheGetHandler returns the MCP tool handler for the "cache-get" tool.
func CacheGetHandler(b Backend) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		item, err := b.Get(key)
		if errors.Is(err, cache.ErrNotFound) {
			return mcp.NewToolResultText("Not found."), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatItem(key, item)), nil
	}
}

// CacheHasHandler returns the MCP tool handler for the "cache-has" tool.
func CacheHasHandler(b Backend) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		found, err := b.Has(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !found {
			return mcp.NewToolResultText("false"), nil
		}
		return mcp.NewToolResultText("true"), nil
	}
}

func formatItem(key string, item *daemon.Item) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(key)
	sb.WriteString("\n\n")
	if md, ok := item.TTL.Get(); ok {
		sb.WriteString(formatTTL(md))
		sb.WriteString("\n\n")
	}
	sb.Write(item.Value)
	return sb.String()
}

func formatTTL(md ttl.Metadata) string {
	return fmt.Sprintf("TTL: %ds, created %s, valid till %s",
		md.TTL(), md.Created().Format(time.RFC3339), md.ValidTill().Format(time.RFC3339))
}
