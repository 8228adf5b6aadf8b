package tools_test

import (
	"bytes"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/safety"
	"github.com/jamesprial/ridwell-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test helper: extract text from a *mcp.CallToolResult
// ---------------------------------------------------------------------------

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "Content[0] is %T, want TextContent", result.Content[0])
	return tc.Text
}

// ---------------------------------------------------------------------------
// JSONResult / ErrorResult
// ---------------------------------------------------------------------------

func Test_JSONResult_Cases(t *testing.T) {
	type quote struct {
		EventID string  `json:"event_id"`
		Cost    float64 `json:"estimated_cost"`
	}

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "struct is indented", input: quote{EventID: "pickup1", Cost: 22}, want: "{\n  \"event_id\": \"pickup1\",\n  \"estimated_cost\": 22\n}"},
		{name: "nil is null", input: nil, want: "null"},
		{name: "empty slice", input: []string{}, want: "[]"},
		{name: "unmarshalable value", input: make(chan int), want: "error marshaling result: json: unsupported type: chan int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resultText(t, tools.JSONResult(tt.input)))
		})
	}
}

func Test_ErrorResult_Prefix(t *testing.T) {
	res := tools.ErrorResult("account not found")
	assert.True(t, res.IsError)
	assert.Equal(t, "error: account not found", resultText(t, res))
	assert.Equal(t, "error: ", resultText(t, tools.ErrorResult("")))
}

func Test_JSONResult_IsNotError(t *testing.T) {
	assert.False(t, tools.JSONResult(map[string]int{"n": 1}).IsError)
	assert.True(t, tools.JSONResult(func() {}).IsError)
}

// ---------------------------------------------------------------------------
// LogAudit
// ---------------------------------------------------------------------------

func Test_LogAudit_NilLogger_NoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		tools.LogAudit(nil, "ridwell_accounts", nil, "ok", time.Now())
	})
}

func Test_LogAudit_WritesEntry(t *testing.T) {
	var buf bytes.Buffer
	start := time.Now().Add(-50 * time.Millisecond)

	tools.LogAudit(safety.NewAuditLogger(&buf), "ridwell_opt_in",
		map[string]any{"account_id": "account1", "event_id": "pickup1"}, "ok", start)

	var entry safety.AuditEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ridwell_opt_in", entry.Tool)
	assert.Equal(t, "ok", entry.Result)
	assert.Equal(t, map[string]any{"account_id": "account1", "event_id": "pickup1"}, entry.Params)
	assert.True(t, entry.Timestamp.Equal(start), "timestamp is the start time")
	assert.GreaterOrEqual(t, entry.Duration, 50*time.Millisecond)
}

// ---------------------------------------------------------------------------
// ConfirmPrompt
// ---------------------------------------------------------------------------

var tokenRe = regexp.MustCompile(`confirmation_token="([0-9a-f]{32})"`)

func Test_ConfirmPrompt_IssuesBoundToken(t *testing.T) {
	confirm := safety.NewConfirmationTracker([]string{"ridwell_opt_out"})

	text := resultText(t, tools.ConfirmPrompt(confirm, "ridwell_opt_out", "pickup1", "This will skip pickup1."))

	assert.Contains(t, text, `Confirmation required for ridwell_opt_out on "pickup1".`)
	assert.Contains(t, text, "This will skip pickup1.")
	m := tokenRe.FindStringSubmatch(text)
	require.Len(t, m, 2, "prompt: %s", text)

	assert.False(t, confirm.Confirm(m[1], "ridwell_opt_out", "pickup2"), "token is bound to its resource")

	text = resultText(t, tools.ConfirmPrompt(confirm, "ridwell_opt_out", "pickup1", ""))
	m = tokenRe.FindStringSubmatch(text)
	require.Len(t, m, 2)
	assert.True(t, confirm.Confirm(m[1], "ridwell_opt_out", "pickup1"))
}

func Test_ConfirmPrompt_TokensUnique(t *testing.T) {
	confirm := safety.NewConfirmationTracker(nil)
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		m := tokenRe.FindStringSubmatch(resultText(t, tools.ConfirmPrompt(confirm, "ridwell_opt_out", "pickup1", "")))
		require.Len(t, m, 2)
		assert.False(t, seen[m[1]], "duplicate token %s", m[1])
		seen[m[1]] = true
	}
}

// ---------------------------------------------------------------------------
// RegisterAll
// ---------------------------------------------------------------------------

func Test_RegisterAll_CountsAcrossGroups(t *testing.T) {
	s := server.NewMCPServer("test", "0.0.0", server.WithToolCapabilities(false))
	reg := func(name string) tools.Registration {
		return tools.Registration{
			Tool:    mcp.NewTool(name),
			Handler: nil,
		}
	}

	n := tools.RegisterAll(s,
		[]tools.Registration{reg("ridwell_accounts"), reg("ridwell_next_pickup")},
		[]tools.Registration{reg("ridwell_graphql")},
		nil,
	)
	assert.Equal(t, 3, n)
}

func Benchmark_JSONResult(b *testing.B) {
	v := map[string]any{"event_id": "pickup1", "state": "scheduled"}
	for i := 0; i < b.N; i++ {
		tools.JSONResult(v)
	}
}
