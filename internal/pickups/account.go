package pickups

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/graphql"
	"github.com/rs/zerolog"
)

// pickupDateLayout is the format of pickup dates on the wire.
const pickupDateLayout = "2006-01-02"

// Account is one subscription-holder account of the authenticated user.
// Accounts are built by GraphQLAccountManager and carry the GraphQL client
// they were fetched with, so they can fetch their own events.
type Account struct {
	ID                 string  `json:"account_id"`
	Address            Address `json:"address"`
	Email              string  `json:"email"`
	FullName           string  `json:"full_name"`
	Phone              string  `json:"phone"`
	SubscriptionID     string  `json:"subscription_id"`
	SubscriptionActive bool    `json:"subscription_active"`

	client graphql.Client
	logger zerolog.Logger
	now    func() time.Time
}

// pickupsResponse is the data member of an upcomingSubscriptionPickups
// response.
type pickupsResponse struct {
	UpcomingSubscriptionPickups *[]struct {
		ID                      string `json:"id"`
		State                   string `json:"state"`
		PickupOn                string `json:"pickupOn"`
		PickupProductSelections []struct {
			PickupOfferPickupProduct struct {
				PickupOffer struct {
					ID       string `json:"id"`
					Priority int    `json:"priority"`
					Category struct {
						Name string `json:"name"`
					} `json:"category"`
				} `json:"pickupOffer"`
				PickupProduct struct {
					ID string `json:"id"`
				} `json:"pickupProduct"`
			} `json:"pickupOfferPickupProduct"`
			Quantity int `json:"quantity"`
		} `json:"pickupProductSelections"`
	} `json:"upcomingSubscriptionPickups"`
}

// PickupEvents returns the upcoming pickup events of the account's
// subscription in the order the server returns them.
func (a *Account) PickupEvents(ctx context.Context) ([]*PickupEvent, error) {
	if a.SubscriptionID == "" {
		return nil, fmt.Errorf("pickup events for account %q: %w", a.ID, ErrNoSubscription)
	}

	data, err := a.client.Execute(ctx, graphql.Operation{
		Name:      OperationUpcomingSubscriptionPickups,
		Query:     queryUpcomingSubscriptionPickups,
		Variables: map[string]any{"subscriptionId": a.SubscriptionID},
	})
	if err != nil {
		return nil, fmt.Errorf("pickup events: %w", err)
	}

	var resp pickupsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("pickup events: parse response: %w", err)
	}
	if resp.UpcomingSubscriptionPickups == nil {
		return nil, fmt.Errorf("pickup events for account %q: response has no pickups list", a.ID)
	}

	raws := *resp.UpcomingSubscriptionPickups
	events := make([]*PickupEvent, 0, len(raws))
	for _, raw := range raws {
		date, err := time.Parse(pickupDateLayout, raw.PickupOn)
		if err != nil {
			return nil, fmt.Errorf("pickup events: event %q: parse date: %w", raw.ID, err)
		}

		pickups := make([]Pickup, 0, len(raw.PickupProductSelections))
		for _, sel := range raw.PickupProductSelections {
			offer := sel.PickupOfferPickupProduct.PickupOffer
			pickups = append(pickups, newPickup(
				a.logger,
				offer.Category.Name,
				offer.ID,
				offer.Priority,
				sel.PickupOfferPickupProduct.PickupProduct.ID,
				sel.Quantity,
			))
		}

		events = append(events, newPickupEvent(a.client, a.logger, raw.ID, date, pickups, parseEventState(a.logger, raw.State)))
	}
	return events, nil
}

// NextPickupEvent returns the first event, in server order, dated today or
// later. It returns ErrNoUpcomingPickup when there is none.
func (a *Account) NextPickupEvent(ctx context.Context) (*PickupEvent, error) {
	events, err := a.PickupEvents(ctx)
	if err != nil {
		return nil, err
	}

	now := a.now
	if now == nil {
		now = time.Now
	}
	today := dateOf(now())
	for _, e := range events {
		if !e.Date.Before(today) {
			return e, nil
		}
	}
	return nil, ErrNoUpcomingPickup
}

// dateOf returns the calendar date of t, in t's location, as midnight UTC so
// it compares directly with parsed pickup dates.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
