package mcptools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calhighlight/internal/instrumentation"
	"github.com/teemow/calhighlight/internal/logging"
)

// toolHandler is a tool body that receives a resolved access token.
type toolHandler func(ctx context.Context, accessToken string, args map[string]any) (*mcp.CallToolResult, error)

// instrumented resolves the access token, then runs handler inside a tool
// span and records metrics and an audit entry for the call.
func (d *Deps) instrumented(toolName, operation string, handler toolHandler) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		start := time.Now()
		args := request.GetArguments()

		invocation := instrumentation.NewToolInvocation(toolName).
			WithProvider(d.Calendar.Name(), operation).
			WithSpanContext(ctx)
		if id, ok := args["eventId"].(string); ok {
			invocation.WithResource(id)
		}

		var (
			result *mcp.CallToolResult
			err    error
		)
		token, tokenErr := d.Tokens.AccessToken(ctx)
		if tokenErr != nil {
			result = mcp.NewToolResultError(fmt.Sprintf("Failed to obtain access token: %v", tokenErr))
		} else {
			invocation.WithSession(logging.Fingerprint(token))
			result, err = handler(ctx, token, args)
		}

		failure := err
		if failure == nil && tokenErr != nil {
			failure = tokenErr
		}
		if failure == nil && result != nil && result.IsError {
			failure = errToolResult
		}

		invocation.Complete(failure)
		instrumentation.EndSpan(span, failure)
		d.Metrics.RecordToolInvocation(ctx, toolName, invocation.Status(), invocation.Session, time.Since(start))
		d.Audit.LogToolInvocation(invocation)

		return result, err
	}
}
