package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/safety"
	"github.com/jamesprial/ridwell-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const toolNameGraphQL = "ridwell_graphql"

// GraphQLTools returns the tool registrations for the raw operation escape
// hatch. It exposes a single "ridwell_graphql" tool that sends a named
// operation through the authenticated pipeline.
func GraphQLTools(client Client, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolGraphQL(client, audit),
	}
}

// toolGraphQL constructs the ridwell_graphql Registration.
func toolGraphQL(client Client, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameGraphQL,
		mcp.WithDescription("Send a named GraphQL operation to the Ridwell API using the authenticated session. Use when the dedicated pickup tools do not cover a request."),
		mcp.WithString("operation_name",
			mcp.Required(),
			mcp.Description("The GraphQL operationName, e.g. upcomingSubscriptionPickups."),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The GraphQL query or mutation document."),
		),
		mcp.WithString("variables",
			mcp.Description("Optional JSON object string of variables to pass with the operation."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		name := req.GetString("operation_name", "")
		query := req.GetString("query", "")
		variablesStr := req.GetString("variables", "")

		params := map[string]any{
			"operation_name": name,
			"variables":      variablesStr,
		}

		if name == "" || query == "" {
			tools.LogAudit(audit, toolNameGraphQL, params, "error: missing arguments", start)
			return tools.ErrorResult("operation_name and query are required"), nil
		}

		var parsedVars map[string]any
		if variablesStr != "" {
			if err := json.Unmarshal([]byte(variablesStr), &parsedVars); err != nil {
				errMsg := fmt.Sprintf("parse variables JSON: %v", err)
				tools.LogAudit(audit, toolNameGraphQL, params, "error: "+errMsg, start)
				return tools.ErrorResult(errMsg), nil
			}
		}

		data, err := client.Execute(ctx, Operation{Name: name, Query: query, Variables: parsedVars})
		if err != nil {
			tools.LogAudit(audit, toolNameGraphQL, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		if len(data) == 0 {
			tools.LogAudit(audit, toolNameGraphQL, params, "ok: empty", start)
			return mcp.NewToolResultText("null"), nil
		}

		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			tools.LogAudit(audit, toolNameGraphQL, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNameGraphQL, params, "ok", start)
		return tools.JSONResult(parsed), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
