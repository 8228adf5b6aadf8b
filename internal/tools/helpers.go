// Package tools holds the pieces every MCP tool handler shares: result
// builders, audit recording and the confirmation prompt.
package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// JSONResult renders v as two-space indented JSON. A value that cannot be
// marshaled yields an error result instead.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult reports msg to the model as a failed tool call. Failures are
// returned as results, never as handler errors, so the model can read them.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultError("error: " + msg)
}

// LogAudit records a call to toolName that began at start. Nothing is
// recorded when audit is nil.
func LogAudit(audit *safety.AuditLogger, toolName string, params map[string]any, result string, start time.Time) {
	if audit == nil {
		return
	}
	entry := safety.AuditEntry{
		Timestamp: start,
		Tool:      toolName,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	}
	_ = audit.Log(entry)
}

// ConfirmPrompt issues a token bound to toolName and resource and tells the
// caller to repeat the call with it.
func ConfirmPrompt(confirm *safety.ConfirmationTracker, toolName, resource, description string) *mcp.CallToolResult {
	token := confirm.RequestConfirmation(toolName, resource)
	prompt := fmt.Sprintf("Confirmation required for %s on %q.\n\n%s\n\n", toolName, resource, description) +
		fmt.Sprintf("To proceed, call %s again with confirmation_token=%q.", toolName, token)
	return mcp.NewToolResultText(prompt)
}
