// Package graphql provides the authenticated request pipeline for the Ridwell
// GraphQL API.
package graphql

import (
	"context"
	"net/http"
	"time"
)

// Operation is one named GraphQL request. Query is sent to the server as-is.
type Operation struct {
	Name      string
	Query     string
	Variables map[string]any
	// Header carries extra request headers, if any.
	Header http.Header
}

// GraphQLError represents a single error returned in a GraphQL response.
type GraphQLError struct {
	Message string `json:"message"`
}

// Client defines the interface for executing GraphQL operations. It is the
// only capability domain objects receive from the pipeline.
//
// Execute returns only the raw JSON of the response's "data" member. The
// "errors" member is turned into the returned error, and "extensions" or any
// other top-level member is dropped.
type Client interface {
	Execute(ctx context.Context, op Operation) ([]byte, error)
}

// HTTPDoer is the minimal network session the pipeline needs. *http.Client
// satisfies it.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Recorder receives pipeline activity for metrics.
type Recorder interface {
	RecordAttempt(operation string, d time.Duration)
	RecordRefresh(operation string)
	RecordFailure(operation, kind string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAttempt(string, time.Duration) {}
func (nopRecorder) RecordRefresh(string)                {}
func (nopRecorder) RecordFailure(string, string)        {}
