package pickups

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/graphql"
	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Mock Client
// ---------------------------------------------------------------------------

// mockClient answers operations by name from a table of canned data members
// and records every operation it receives.
type mockClient struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []graphql.Operation
}

func newMockClient() *mockClient {
	return &mockClient{
		responses: map[string]string{},
		errs:      map[string]error{},
	}
}

func (m *mockClient) Execute(_ context.Context, op graphql.Operation) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	if err, ok := m.errs[op.Name]; ok {
		return nil, err
	}
	data, ok := m.responses[op.Name]
	if !ok {
		return nil, fmt.Errorf("mockClient: no response for operation %q", op.Name)
	}
	return []byte(data), nil
}

func (m *mockClient) callsFor(name string) []graphql.Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []graphql.Operation
	for _, op := range m.calls {
		if op.Name == name {
			out = append(out, op)
		}
	}
	return out
}

var _ graphql.Client = (*mockClient)(nil)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

const userData = `{
  "user": {
    "fullName": "Jane Doe",
    "email": "user@email.com",
    "phone": "1234567890",
    "accounts": [
      {
        "id": "account1",
        "address": {
          "street1": "123 Main Street",
          "city": "Seattle",
          "subdivision": "WA",
          "postalCode": "98101"
        },
        "activeSubscription": {"id": "subscriptionId1", "state": "active"}
      },
      {
        "id": "account2",
        "address": {
          "street1": "1 Second Avenue",
          "city": "Seattle",
          "subdivision": "WA",
          "postalCode": "98104"
        },
        "activeSubscription": null
      }
    ]
  }
}`

const pickupsData = `{
  "upcomingSubscriptionPickups": [
    {
      "id": "pickup1",
      "type": "SubscriptionPickup",
      "state": "scheduled",
      "pickupOn": "2021-10-13",
      "pickupProductSelections": [
        {
          "pickupOfferPickupProduct": {
            "pickupOffer": {"id": "offer1", "priority": 1, "category": {"name": "Threads"}},
            "pickupProduct": {"id": "product1"}
          },
          "quantity": 1
        },
        {
          "pickupOfferPickupProduct": {
            "pickupOffer": {"id": "offer2", "priority": 1, "category": {"name": "beyond the bin"}},
            "pickupProduct": {"id": "product2"}
          },
          "quantity": 2
        },
        {
          "pickupOfferPickupProduct": {
            "pickupOffer": {"id": "offer3", "priority": 2, "category": {"name": "Chocolate"}},
            "pickupProduct": {"id": "product3"}
          },
          "quantity": 1
        }
      ]
    },
    {
      "id": "pickup2",
      "type": "SubscriptionPickup",
      "state": "initialized",
      "pickupOn": "2021-10-27",
      "pickupProductSelections": []
    }
  ]
}`

const quoteData = `{"subscriptionPickupQuote": {"totalCents": 2200, "addOnEstimatedCents": 1050}}`

func updateData(state string) string {
	return fmt.Sprintf(`{"updateSubscriptionPickup": {"subscriptionPickup": {"id": "pickup1", "state": %q, "pickupOn": "2021-10-13"}}}`, state)
}

// fixtureClient returns a mockClient answering the user and pickups queries.
func fixtureClient() *mockClient {
	m := newMockClient()
	m.responses[OperationUser] = userData
	m.responses[OperationUpcomingSubscriptionPickups] = pickupsData
	m.responses[OperationSubscriptionPickupQuote] = quoteData
	return m
}

// fixedClock returns a clock frozen at midday UTC of the given date.
func fixedClock(year int, month time.Month, day int) func() time.Time {
	t := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

// bufferLogger returns a logger that writes JSON lines into the returned buffer.
func bufferLogger() (zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return zerolog.New(&buf), &buf
}

// fixtureAccount returns account1 built by a manager over client.
func fixtureAccount(t *testing.T, client *mockClient, opts ...ManagerOption) *Account {
	t.Helper()
	accounts, err := NewGraphQLAccountManager(client, opts...).Accounts(context.Background(), "userId1")
	if err != nil {
		t.Fatalf("Accounts() unexpected error: %v", err)
	}
	acct, ok := accounts["account1"]
	if !ok {
		t.Fatal("account1 missing from fixture accounts")
	}
	return acct
}

// inputOf returns the "input" variable of op.
func inputOf(t *testing.T, op graphql.Operation) map[string]any {
	t.Helper()
	raw, err := json.Marshal(op.Variables["input"])
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	var input map[string]any
	if err := json.Unmarshal(raw, &input); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	return input
}
