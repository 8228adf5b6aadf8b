package pickups

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/graphql"
	"github.com/rs/zerolog"
)

// PickupEvent is one scheduled or potential pickup. Only its state changes
// after construction, and only through OptIn or OptOut.
type PickupEvent struct {
	ID      string
	Date    time.Time
	Pickups []Pickup

	state  atomic.Value // EventState
	client graphql.Client
	logger zerolog.Logger
}

func newPickupEvent(client graphql.Client, logger zerolog.Logger, id string, date time.Time, pickups []Pickup, state EventState) *PickupEvent {
	e := &PickupEvent{
		ID:      id,
		Date:    date,
		Pickups: pickups,
		client:  client,
		logger:  logger,
	}
	e.state.Store(state)
	return e
}

// State returns the last state confirmed by the server.
func (e *PickupEvent) State() EventState {
	s, _ := e.state.Load().(EventState)
	if s == "" {
		return StateUnknown
	}
	return s
}

// MarshalJSON includes the current state alongside the exported fields.
func (e *PickupEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string     `json:"event_id"`
		PickupDate string     `json:"pickup_date"`
		State      EventState `json:"state"`
		Pickups    []Pickup   `json:"pickups"`
	}{
		ID:         e.ID,
		PickupDate: e.Date.Format(pickupDateLayout),
		State:      e.State(),
		Pickups:    e.Pickups,
	})
}

// OptIn asks the server to schedule the event.
func (e *PickupEvent) OptIn(ctx context.Context) error {
	return e.transition(ctx, StateScheduled)
}

// OptOut asks the server to skip the event.
func (e *PickupEvent) OptOut(ctx context.Context) error {
	return e.transition(ctx, StateSkipped)
}

type updateSubscriptionPickupResponse struct {
	UpdateSubscriptionPickup *struct {
		SubscriptionPickup *struct {
			ID    string `json:"id"`
			State string `json:"state"`
		} `json:"subscriptionPickup"`
	} `json:"updateSubscriptionPickup"`
}

// transition requests target and then stores whatever state the server
// confirms, which may differ from target. On error the state is unchanged.
func (e *PickupEvent) transition(ctx context.Context, target EventState) error {
	data, err := e.client.Execute(ctx, graphql.Operation{
		Name:  OperationUpdateSubscriptionPickup,
		Query: queryUpdateSubscriptionPickup,
		Variables: map[string]any{
			"input": map[string]any{
				"subscriptionPickupId": e.ID,
				"state":                string(target),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("update pickup event %q: %w", e.ID, err)
	}

	var resp updateSubscriptionPickupResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("update pickup event %q: parse response: %w", e.ID, err)
	}
	if resp.UpdateSubscriptionPickup == nil || resp.UpdateSubscriptionPickup.SubscriptionPickup == nil {
		return fmt.Errorf("update pickup event %q: response has no subscription pickup", e.ID)
	}

	confirmed := parseEventState(e.logger, resp.UpdateSubscriptionPickup.SubscriptionPickup.State)
	e.state.Store(confirmed)
	if confirmed != target {
		e.logger.Info().
			Str("event_id", e.ID).
			Str("requested", string(target)).
			Str("confirmed", string(confirmed)).
			Msg("server confirmed a different pickup event state")
	}
	return nil
}

type quoteResponse struct {
	SubscriptionPickupQuote *Quote `json:"subscriptionPickupQuote"`
}

// Quote asks the server for the cost of the event's pickups. An event without
// pickups costs nothing and no request is made.
func (e *PickupEvent) Quote(ctx context.Context) (Quote, error) {
	if len(e.Pickups) == 0 {
		return Quote{}, nil
	}

	selections := make([]map[string]any, 0, len(e.Pickups))
	for _, p := range e.Pickups {
		selections = append(selections, map[string]any{
			"productId": p.ProductID,
			"offerId":   p.OfferID,
			"quantity":  p.Quantity,
		})
	}

	data, err := e.client.Execute(ctx, graphql.Operation{
		Name:  OperationSubscriptionPickupQuote,
		Query: querySubscriptionPickupQuote,
		Variables: map[string]any{
			"input": map[string]any{
				"subscriptionPickupId": e.ID,
				"addOnSelections":      selections,
			},
		},
	})
	if err != nil {
		return Quote{}, fmt.Errorf("quote pickup event %q: %w", e.ID, err)
	}

	var resp quoteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Quote{}, fmt.Errorf("quote pickup event %q: parse response: %w", e.ID, err)
	}
	if resp.SubscriptionPickupQuote == nil {
		return Quote{}, fmt.Errorf("quote pickup event %q: response has no quote", e.ID)
	}
	return *resp.SubscriptionPickupQuote, nil
}

// EstimatedCost returns the total quoted cost in dollars.
func (e *PickupEvent) EstimatedCost(ctx context.Context) (float64, error) {
	q, err := e.Quote(ctx)
	if err != nil {
		return 0, err
	}
	return centsToDollars(q.TotalCents), nil
}

// EstimatedAddOnCost returns the quoted add-on cost in dollars.
func (e *PickupEvent) EstimatedAddOnCost(ctx context.Context) (float64, error) {
	q, err := e.Quote(ctx)
	if err != nil {
		return 0, err
	}
	return centsToDollars(q.AddOnEstimatedCents), nil
}

func centsToDollars(cents int64) float64 {
	return float64(cents) / 100
}
