// Package safety gates MCP tool calls against Ridwell accounts: an
// allow/deny filter on account ids, single-use confirmation tokens for
// state-changing calls, and an audit trail of every invocation.
package safety

import (
	"path/filepath"

	"github.com/jamesprial/ridwell-mcp/internal/config"
)

// Filter controls access to account ids using an allowlist and a denylist.
// Glob patterns (as understood by filepath.Match) are supported in both lists.
//
// The denylist always wins. With a non-empty allowlist an id must match at
// least one allowlist pattern; with an empty one every id not denied passes.
// A nil *Filter allows everything.
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter from the provided allowlist and denylist
// pattern slices. Either or both may be nil or empty.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// FilterFromConfig builds a Filter from a configured resource filter.
func FilterFromConfig(rf config.ResourceFilter) *Filter {
	return NewFilter(rf.Allowlist, rf.Denylist)
}

// IsAllowed reports whether id is permitted by this filter.
func (f *Filter) IsAllowed(id string) bool {
	if f == nil {
		return true
	}
	if matchAny(f.denylist, id) {
		return false
	}
	return len(f.allowlist) == 0 || matchAny(f.allowlist, id)
}

// matchAny reports whether id matches one of patterns. Malformed patterns
// never match.
func matchAny(patterns []string, id string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, id); err == nil && ok {
			return true
		}
	}
	return false
}
