package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/ttl-cache/internal/cache"
	"github.com/leonardcser/ttl-cache/internal/ttl"
)

// CacheSetHandler returns the MCP tool handler for the "cache-set" tool.
// The optional "ttl" argument is handed to the TTL plugin as is, so its
// validation messages reach the caller unchanged.
func CacheSetHandler(b Backend) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var extra cache.Extra
		if v, ok := req.GetArguments()[ttl.KeyTTL]; ok && v != nil {
			extra = cache.Extra{ttl.KeyTTL: v}
		}
		if err := b.Set(key, []byte(value), extra); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Stored %q.", key)), nil
	}
}

// CacheTouchHandler returns the MCP tool handler for the "cache-touch" tool.
func CacheTouchHandler(b Backend) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := b.Touch(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		md, ok := res.Get()
		if !ok {
			return mcp.NewToolResultText(fmt.Sprintf("%q has no TTL; nothing to renew.", key)), nil
		}
		return mcp.NewToolResultText(formatTTL(md)), nil
	}
}

// CacheDeleteHandler returns the MCP tool handler for the "cache-delete" tool.
func CacheDeleteHandler(b Backend) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := b.Delete(key); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted %q.", key)), nil
	}
}
