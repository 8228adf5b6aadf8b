package safety

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultTokenTTL is how long a confirmation token stays valid.
const DefaultTokenTTL = 5 * time.Minute

// pendingConfirmation is what a token was issued for.
type pendingConfirmation struct {
	tool      string
	resource  string
	createdAt time.Time
}

// ConfirmationTracker issues single-use, time-limited confirmation tokens.
// A token confirms only the tool and resource it was issued for, so a token
// obtained for one pickup event cannot skip another.
type ConfirmationTracker struct {
	destructive map[string]struct{}
	ttl         time.Duration
	now         func() time.Time

	mu     sync.Mutex
	tokens map[string]pendingConfirmation
}

// ConfirmOption configures a ConfirmationTracker.
type ConfirmOption func(*ConfirmationTracker)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) ConfirmOption {
	return func(ct *ConfirmationTracker) { ct.ttl = ttl }
}

// WithConfirmClock sets the clock used to age tokens.
func WithConfirmClock(now func() time.Time) ConfirmOption {
	return func(ct *ConfirmationTracker) { ct.now = now }
}

// NewConfirmationTracker returns a tracker for which the tools named in
// destructiveTools need confirmation.
func NewConfirmationTracker(destructiveTools []string, opts ...ConfirmOption) *ConfirmationTracker {
	ct := &ConfirmationTracker{
		destructive: make(map[string]struct{}, len(destructiveTools)),
		ttl:         DefaultTokenTTL,
		now:         time.Now,
		tokens:      make(map[string]pendingConfirmation),
	}
	for _, tool := range destructiveTools {
		ct.destructive[tool] = struct{}{}
	}
	for _, opt := range opts {
		opt(ct)
	}
	return ct
}

// NeedsConfirmation reports whether tool is in the destructive-tools set.
func (ct *ConfirmationTracker) NeedsConfirmation(tool string) bool {
	_, ok := ct.destructive[tool]
	return ok
}

// RequestConfirmation issues a token for tool acting on resource.
func (ct *ConfirmationTracker) RequestConfirmation(tool, resource string) string {
	token := generateToken()

	ct.mu.Lock()
	defer ct.mu.Unlock()
	now := ct.now()
	ct.sweepExpired(now)
	ct.tokens[token] = pendingConfirmation{tool: tool, resource: resource, createdAt: now}
	return token
}

// Confirm consumes token and reports whether it was issued for tool and
// resource and has not expired. A token is removed on first presentation
// even when it does not match.
func (ct *ConfirmationTracker) Confirm(token, tool, resource string) bool {
	if token == "" {
		return false
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	pending, ok := ct.tokens[token]
	if !ok {
		return false
	}
	delete(ct.tokens, token)

	if ct.now().Sub(pending.createdAt) > ct.ttl {
		return false
	}
	return pending.tool == tool && pending.resource == resource
}

// Pending returns the number of outstanding tokens.
func (ct *ConfirmationTracker) Pending() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return len(ct.tokens)
}

// sweepExpired drops tokens older than the TTL. The caller must hold ct.mu.
func (ct *ConfirmationTracker) sweepExpired(now time.Time) {
	for token, pending := range ct.tokens {
		if now.Sub(pending.createdAt) > ct.ttl {
			delete(ct.tokens, token)
		}
	}
}

func generateToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic("safety: crypto/rand: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
