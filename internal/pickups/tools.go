package pickups

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/safety"
	"github.com/jamesprial/ridwell-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolNameAccounts     = "ridwell_accounts"
	toolNamePickupEvents = "ridwell_pickup_events"
	toolNameNextPickup   = "ridwell_next_pickup"
	toolNameEstimateCost = "ridwell_estimate_cost"
	toolNameOptIn        = "ridwell_opt_in"
	toolNameOptOut       = "ridwell_opt_out"
)

// DestructiveTools lists the pickup tools that require a confirmation token.
var DestructiveTools = []string{toolNameOptOut}

// PickupTools returns the tool registrations for account and pickup event
// operations. Account ids are checked against filter before any request is
// made.
func PickupTools(
	src AccountSource,
	filter *safety.Filter,
	confirm *safety.ConfirmationTracker,
	audit *safety.AuditLogger,
) []tools.Registration {
	return []tools.Registration{
		toolAccounts(src, filter, audit),
		toolPickupEvents(src, filter, audit),
		toolNextPickup(src, filter, audit),
		toolEstimateCost(src, filter, audit),
		toolOptIn(src, filter, audit),
		toolOptOut(src, filter, confirm, audit),
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func findAccount(ctx context.Context, src AccountSource, accountID string) (*Account, error) {
	accounts, err := src.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	acct, ok := accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, accountID)
	}
	return acct, nil
}

func findEvent(ctx context.Context, src AccountSource, accountID, eventID string) (*PickupEvent, error) {
	acct, err := findAccount(ctx, src, accountID)
	if err != nil {
		return nil, err
	}
	events, err := acct.PickupEvents(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.ID == eventID {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrEventNotFound, eventID)
}

// confirmResource names the account and event a confirmation token is bound to.
func confirmResource(accountID, eventID string) string {
	return accountID + "/" + eventID
}

func deniedResult(accountID string) *mcp.CallToolResult {
	return tools.ErrorResult(fmt.Sprintf("access to account %q is not allowed", accountID))
}

func accountIDOption() mcp.ToolOption {
	return mcp.WithString("account_id",
		mcp.Required(),
		mcp.Description("Ridwell account id, as returned by ridwell_accounts"),
	)
}

func eventIDOption() mcp.ToolOption {
	return mcp.WithString("event_id",
		mcp.Required(),
		mcp.Description("Pickup event id, as returned by ridwell_pickup_events"),
	)
}

// ---------------------------------------------------------------------------
// Read-only tools
// ---------------------------------------------------------------------------

func toolAccounts(src AccountSource, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameAccounts,
		mcp.WithDescription("List the Ridwell accounts of the signed-in user."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		accounts, err := src.Accounts(ctx)
		if err != nil {
			tools.LogAudit(audit, toolNameAccounts, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		visible := make([]*Account, 0, len(accounts))
		for id, acct := range accounts {
			if filter.IsAllowed(id) {
				visible = append(visible, acct)
			}
		}
		sort.Slice(visible, func(i, j int) bool { return visible[i].ID < visible[j].ID })

		tools.LogAudit(audit, toolNameAccounts, params, "ok", start)
		return tools.JSONResult(visible), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolPickupEvents(src AccountSource, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNamePickupEvents,
		mcp.WithDescription("List upcoming pickup events for an account, with their items and state."),
		accountIDOption(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		accountID := req.GetString("account_id", "")
		params := map[string]any{"account_id": accountID}

		if !filter.IsAllowed(accountID) {
			tools.LogAudit(audit, toolNamePickupEvents, params, "denied", start)
			return deniedResult(accountID), nil
		}

		acct, err := findAccount(ctx, src, accountID)
		if err != nil {
			tools.LogAudit(audit, toolNamePickupEvents, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		events, err := acct.PickupEvents(ctx)
		if err != nil {
			tools.LogAudit(audit, toolNamePickupEvents, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNamePickupEvents, params, "ok", start)
		return tools.JSONResult(events), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolNextPickup(src AccountSource, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameNextPickup,
		mcp.WithDescription("Return the next pickup event for an account dated today or later."),
		accountIDOption(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		accountID := req.GetString("account_id", "")
		params := map[string]any{"account_id": accountID}

		if !filter.IsAllowed(accountID) {
			tools.LogAudit(audit, toolNameNextPickup, params, "denied", start)
			return deniedResult(accountID), nil
		}

		acct, err := findAccount(ctx, src, accountID)
		if err != nil {
			tools.LogAudit(audit, toolNameNextPickup, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		event, err := acct.NextPickupEvent(ctx)
		if errors.Is(err, ErrNoUpcomingPickup) {
			tools.LogAudit(audit, toolNameNextPickup, params, "ok: none", start)
			return mcp.NewToolResultText(fmt.Sprintf("No upcoming pickup events for account %q.", accountID)), nil
		}
		if err != nil {
			tools.LogAudit(audit, toolNameNextPickup, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNameNextPickup, params, "ok", start)
		return tools.JSONResult(event), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// costEstimate is the ridwell_estimate_cost result.
type costEstimate struct {
	EventID             string  `json:"event_id"`
	TotalCents          int64   `json:"total_cents"`
	AddOnEstimatedCents int64   `json:"add_on_estimated_cents"`
	EstimatedCost       float64 `json:"estimated_cost"`
	EstimatedAddOnCost  float64 `json:"estimated_add_on_cost"`
}

func toolEstimateCost(src AccountSource, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameEstimateCost,
		mcp.WithDescription("Quote the cost in dollars of a pickup event's items."),
		accountIDOption(),
		eventIDOption(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		accountID := req.GetString("account_id", "")
		eventID := req.GetString("event_id", "")
		params := map[string]any{"account_id": accountID, "event_id": eventID}

		if !filter.IsAllowed(accountID) {
			tools.LogAudit(audit, toolNameEstimateCost, params, "denied", start)
			return deniedResult(accountID), nil
		}

		event, err := findEvent(ctx, src, accountID, eventID)
		if err != nil {
			tools.LogAudit(audit, toolNameEstimateCost, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		q, err := event.Quote(ctx)
		if err != nil {
			tools.LogAudit(audit, toolNameEstimateCost, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNameEstimateCost, params, "ok", start)
		return tools.JSONResult(costEstimate{
			EventID:             event.ID,
			TotalCents:          q.TotalCents,
			AddOnEstimatedCents: q.AddOnEstimatedCents,
			EstimatedCost:       centsToDollars(q.TotalCents),
			EstimatedAddOnCost:  centsToDollars(q.AddOnEstimatedCents),
		}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// ---------------------------------------------------------------------------
// State-changing tools
// ---------------------------------------------------------------------------

func toolOptIn(src AccountSource, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameOptIn,
		mcp.WithDescription("Opt in to a pickup event so it is scheduled. Returns the state the server confirmed."),
		accountIDOption(),
		eventIDOption(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		accountID := req.GetString("account_id", "")
		eventID := req.GetString("event_id", "")
		params := map[string]any{"account_id": accountID, "event_id": eventID}

		if !filter.IsAllowed(accountID) {
			tools.LogAudit(audit, toolNameOptIn, params, "denied", start)
			return deniedResult(accountID), nil
		}

		event, err := findEvent(ctx, src, accountID, eventID)
		if err != nil {
			tools.LogAudit(audit, toolNameOptIn, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		if err := event.OptIn(ctx); err != nil {
			tools.LogAudit(audit, toolNameOptIn, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNameOptIn, params, "ok", start)
		return tools.JSONResult(event), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolOptOut(src AccountSource, filter *safety.Filter, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameOptOut,
		mcp.WithDescription("Opt out of (skip) a pickup event. Requires confirmation."),
		accountIDOption(),
		eventIDOption(),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call to this tool"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		accountID := req.GetString("account_id", "")
		eventID := req.GetString("event_id", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"account_id": accountID, "event_id": eventID}

		if !filter.IsAllowed(accountID) {
			tools.LogAudit(audit, toolNameOptOut, params, "denied", start)
			return deniedResult(accountID), nil
		}

		resource := confirmResource(accountID, eventID)
		if !confirm.Confirm(token, toolNameOptOut, resource) {
			desc := fmt.Sprintf("This will skip pickup event %q for account %q.", eventID, accountID)
			return tools.ConfirmPrompt(confirm, toolNameOptOut, resource, desc), nil
		}

		event, err := findEvent(ctx, src, accountID, eventID)
		if err != nil {
			tools.LogAudit(audit, toolNameOptOut, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		if err := event.OptOut(ctx); err != nil {
			tools.LogAudit(audit, toolNameOptOut, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNameOptOut, params, "ok", start)
		return tools.JSONResult(event), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
