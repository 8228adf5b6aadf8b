// Package pickups models Ridwell accounts and their scheduled pickup events,
// and exposes them as MCP tools.
package pickups

import (
	"context"
	"errors"
)

var (
	// ErrNoUpcomingPickup is returned by Account.NextPickupEvent when no event
	// is dated today or later. It is an expected outcome, not a fault.
	ErrNoUpcomingPickup = errors.New("no pickup events found after today")

	// ErrNoSubscription is returned when an account has no active
	// subscription to query events for.
	ErrNoSubscription = errors.New("account has no active subscription")

	// ErrAccountNotFound is returned when an account id is not among the
	// user's accounts.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEventNotFound is returned when an event id is not among an
	// account's upcoming events.
	ErrEventNotFound = errors.New("pickup event not found")
)

// Category classifies a pickup item.
type Category string

const (
	CategoryStandard Category = "standard"
	CategoryAddOn    Category = "add_on"
	CategoryRotating Category = "rotating"
)

// EventState is the lifecycle state of a pickup event as reported by the
// server.
type EventState string

const (
	StateInitialized EventState = "initialized"
	StateNotified    EventState = "notified"
	StateScheduled   EventState = "scheduled"
	StateSkipped     EventState = "skipped"
	// StateUnknown stands in for any state string this package does not
	// recognise.
	StateUnknown EventState = "unknown"
)

// Address is the postal address of an account.
type Address struct {
	Street1     string `json:"street1"`
	City        string `json:"city"`
	Subdivision string `json:"subdivision"`
	PostalCode  string `json:"postalCode"`
}

// Pickup is one item within a pickup event.
type Pickup struct {
	Name      string   `json:"name"`
	OfferID   string   `json:"offer_id"`
	Priority  int      `json:"priority"`
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Category  Category `json:"category"`
}

// Quote is the server's cost estimate for a pickup event, in cents.
type Quote struct {
	TotalCents          int64 `json:"totalCents"`
	AddOnEstimatedCents int64 `json:"addOnEstimatedCents"`
}

// AccountSource returns the accounts of the authenticated user keyed by
// account id.
type AccountSource interface {
	Accounts(ctx context.Context) (map[string]*Account, error)
}
