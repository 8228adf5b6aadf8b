package graphql

import (
	"context"
	"encoding/json"
)

// OperationCreateAuthentication is the login operation name.
const OperationCreateAuthentication = "createAuthentication"

const queryCreateAuthentication = `
mutation createAuthentication($input: CreateAuthenticationInput!) {
  createAuthentication(input: $input) {
    authenticationToken
  }
}
`

type createAuthenticationResponse struct {
	CreateAuthentication struct {
		AuthenticationToken string `json:"authenticationToken"`
	} `json:"createAuthentication"`
}

// Authenticate logs in with the session credentials and installs the
// returned token. A response without a token leaves the session unchanged
// and is not an error.
func (c *HTTPClient) Authenticate(ctx context.Context) error {
	doer, release := c.acquireDoer()
	defer release()

	if err := c.authenticate(ctx, doer); err != nil {
		c.recorder.RecordFailure(OperationCreateAuthentication, errorKind(err))
		return err
	}
	return nil
}

// authenticate sends a single login attempt without a bearer token. It does
// not go through the retry loop.
func (c *HTTPClient) authenticate(ctx context.Context, doer HTTPDoer) error {
	op := Operation{
		Name:  OperationCreateAuthentication,
		Query: queryCreateAuthentication,
		Variables: map[string]any{
			"input": map[string]any{
				"emailOrPhone": c.session.email,
				"password":     c.session.password,
			},
		},
	}

	data, err := c.attempt(ctx, doer, op, false)
	if err != nil {
		return err
	}

	var resp createAuthenticationResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Warn().Err(err).Msg("login response has unexpected shape; no token installed")
			return nil
		}
	}

	token := resp.CreateAuthentication.AuthenticationToken
	if token == "" {
		c.logger.Warn().Msg("login response carried no token")
		return nil
	}
	if err := c.session.Set(token); err != nil {
		return err
	}

	c.logger.Debug().Str("user_id", c.session.UserID()).Msg("authenticated")
	return nil
}
