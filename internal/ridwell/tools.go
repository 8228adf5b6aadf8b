package ridwell

import (
	"context"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/safety"
	"github.com/jamesprial/ridwell-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolNameDashboardURL = "ridwell_dashboard_url"
	toolNameWhoAmI       = "ridwell_whoami"
)

// Identity is what the signed-in session is known to be.
type Identity interface {
	UserID() string
	DashboardURL() string
	TokenExpiresAt() time.Time
}

// SessionTools returns tool registrations describing the signed-in session.
func SessionTools(id Identity, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolDashboardURL(id, audit),
		toolWhoAmI(id, audit),
	}
}

func toolDashboardURL(id Identity, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameDashboardURL,
		mcp.WithDescription("Return the Ridwell web dashboard URL of the signed-in user."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		tools.LogAudit(audit, toolNameDashboardURL, map[string]any{}, "ok", start)
		return mcp.NewToolResultText(id.DashboardURL()), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

type whoAmI struct {
	UserID         string     `json:"user_id"`
	DashboardURL   string     `json:"dashboard_url"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}

func toolWhoAmI(id Identity, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameWhoAmI,
		mcp.WithDescription("Describe the signed-in Ridwell user and when the session token expires."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		out := whoAmI{
			UserID:       id.UserID(),
			DashboardURL: id.DashboardURL(),
		}
		if exp := id.TokenExpiresAt(); !exp.IsZero() {
			out.TokenExpiresAt = &exp
		}
		tools.LogAudit(audit, toolNameWhoAmI, map[string]any{}, "ok", start)
		return tools.JSONResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
