package pickups

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/graphql"
	"github.com/rs/zerolog"
)

// GraphQLAccountManager fetches accounts through a GraphQL client.
type GraphQLAccountManager struct {
	client graphql.Client
	logger zerolog.Logger
	now    func() time.Time
}

// ManagerOption configures a GraphQLAccountManager.
type ManagerOption func(*GraphQLAccountManager)

// WithLogger sets the logger handed to accounts and events.
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *GraphQLAccountManager) { m.logger = logger }
}

// WithClock sets the function accounts use to decide which events are
// upcoming.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *GraphQLAccountManager) { m.now = now }
}

// NewGraphQLAccountManager returns a GraphQLAccountManager backed by client.
func NewGraphQLAccountManager(client graphql.Client, opts ...ManagerOption) *GraphQLAccountManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	m := &GraphQLAccountManager{
		client: client,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// userResponse is the data member of a user query response.
type userResponse struct {
	User *struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Accounts []struct {
			ID                 string  `json:"id"`
			Address            Address `json:"address"`
			ActiveSubscription *struct {
				ID    string `json:"id"`
				State string `json:"state"`
			} `json:"activeSubscription"`
		} `json:"accounts"`
	} `json:"user"`
}

// Accounts returns the accounts of userID keyed by account id.
func (m *GraphQLAccountManager) Accounts(ctx context.Context, userID string) (map[string]*Account, error) {
	data, err := m.client.Execute(ctx, graphql.Operation{
		Name:      OperationUser,
		Query:     queryUser,
		Variables: map[string]any{"id": userID},
	})
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}

	var resp userResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("accounts: parse response: %w", err)
	}
	if resp.User == nil {
		return nil, fmt.Errorf("accounts: user %q not found", userID)
	}

	accounts := make(map[string]*Account, len(resp.User.Accounts))
	for _, raw := range resp.User.Accounts {
		acct := &Account{
			ID:       raw.ID,
			Address:  raw.Address,
			Email:    resp.User.Email,
			FullName: resp.User.FullName,
			Phone:    resp.User.Phone,
			client:   m.client,
			logger:   m.logger,
			now:      m.now,
		}
		if sub := raw.ActiveSubscription; sub != nil {
			acct.SubscriptionID = sub.ID
			acct.SubscriptionActive = sub.State == "active"
		}
		accounts[acct.ID] = acct
	}
	return accounts, nil
}
