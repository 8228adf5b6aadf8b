package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func Test_NewAuthMiddleware_Cases(t *testing.T) {
	const token = "correct-token"

	tests := []struct {
		name        string
		configToken string
		header      *string
		wantStatus  int
	}{
		{name: "valid token passes through", configToken: token, header: ptr("Bearer correct-token"), wantStatus: http.StatusOK},
		{name: "missing header", configToken: token, wantStatus: http.StatusUnauthorized},
		{name: "wrong token", configToken: token, header: ptr("Bearer wrong-token"), wantStatus: http.StatusUnauthorized},
		{name: "token prefix only", configToken: token, header: ptr("Bearer correct"), wantStatus: http.StatusUnauthorized},
		{name: "other scheme", configToken: token, header: ptr("Basic correct-token"), wantStatus: http.StatusUnauthorized},
		{name: "lowercase scheme", configToken: token, header: ptr("bearer correct-token"), wantStatus: http.StatusUnauthorized},
		{name: "extra space", configToken: token, header: ptr("Bearer  correct-token"), wantStatus: http.StatusUnauthorized},
		{name: "empty bearer value", configToken: token, header: ptr("Bearer "), wantStatus: http.StatusUnauthorized},
		{name: "empty header", configToken: token, header: ptr(""), wantStatus: http.StatusUnauthorized},
		{name: "auth disabled without header", configToken: "", wantStatus: http.StatusOK},
		{name: "auth disabled with any header", configToken: "", header: ptr("Bearer whatever"), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var logs bytes.Buffer
			h := NewAuthMiddleware(tt.configToken, zerolog.New(&logs))(okHandler(&called))

			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tt.header != nil {
				req.Header.Set("Authorization", *tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called, "next handler called")
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, `Bearer realm="ridwell-mcp"`, rec.Header().Get("WWW-Authenticate"))
				assert.Contains(t, logs.String(), "rejected unauthenticated request")
				assert.Contains(t, logs.String(), `"path":"/mcp"`)
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func Test_NewAuthMiddleware_PassesRequestThrough(t *testing.T) {
	var gotHeader string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusAccepted)
	})
	h := NewAuthMiddleware("tok", zerolog.Nop())(next)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("X-Request-Id", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "abc", gotHeader)
}

func ptr(s string) *string { return &s }
