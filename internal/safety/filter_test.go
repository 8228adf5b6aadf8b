package safety

import (
	"testing"

	"github.com/jamesprial/ridwell-mcp/internal/config"
	"github.com/stretchr/testify/assert"
)

func Test_Filter_IsAllowed_Cases(t *testing.T) {
	tests := []struct {
		name      string
		allowlist []string
		denylist  []string
		id        string
		want      bool
	}{
		{name: "empty lists allow everything", id: "account1", want: true},
		{name: "in allowlist", allowlist: []string{"account1", "account2"}, id: "account1", want: true},
		{name: "not in allowlist", allowlist: []string{"account1"}, id: "account3", want: false},
		{name: "in denylist", denylist: []string{"account2"}, id: "account2", want: false},
		{name: "denylist wins over allowlist", allowlist: []string{"account*"}, denylist: []string{"account2"}, id: "account2", want: false},
		{name: "glob allowlist", allowlist: []string{"acct_*"}, id: "acct_42", want: true},
		{name: "glob allowlist miss", allowlist: []string{"acct_*"}, id: "account42", want: false},
		{name: "malformed pattern never matches", allowlist: []string{"[acct"}, id: "[acct", want: false},
		{name: "empty id with empty lists", id: "", want: true},
		{name: "empty id with allowlist", allowlist: []string{"account1"}, id: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.allowlist, tt.denylist)
			assert.Equal(t, tt.want, f.IsAllowed(tt.id))
		})
	}
}

func Test_Filter_NilAllowsEverything(t *testing.T) {
	var f *Filter
	assert.True(t, f.IsAllowed("account1"))
}

func Test_FilterFromConfig(t *testing.T) {
	f := FilterFromConfig(config.ResourceFilter{
		Allowlist: []string{"account*"},
		Denylist:  []string{"account9"},
	})

	assert.True(t, f.IsAllowed("account1"))
	assert.False(t, f.IsAllowed("account9"))
	assert.False(t, f.IsAllowed("other"))
}
