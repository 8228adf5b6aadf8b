package graphql

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Session_StartsUnauthenticated(t *testing.T) {
	s := NewSession("user@email.com", "password")
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Empty(t, s.UserID())
	assert.True(t, s.ExpiresAt().IsZero())
}

func Test_Session_Set_Cases(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name       string
		token      func(t *testing.T) string
		wantErr    bool
		wantUserID string
	}{
		{
			name:       "valid token",
			token:      func(t *testing.T) string { return mintToken(t, "userId1", issued) },
			wantUserID: "userId1",
		},
		{
			name:    "missing user id claim",
			token:   func(t *testing.T) string { return mintToken(t, "", issued) },
			wantErr: true,
		},
		{
			name:    "not a token",
			token:   func(t *testing.T) string { return "definitely-not-a-jwt" },
			wantErr: true,
		},
		{
			name:    "empty string",
			token:   func(t *testing.T) string { return "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("user@email.com", "password")
			token := tt.token(t)

			err := s.Set(token)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrAuthDecode)
				assert.False(t, s.Authenticated(), "a failed Set must not install anything")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, token, s.Token())
			assert.Equal(t, tt.wantUserID, s.UserID())
			assert.Equal(t, issued.Add(14*24*time.Hour).Unix(), s.ExpiresAt().Unix())
		})
	}
}

func Test_Session_SetIgnoresSignature(t *testing.T) {
	token := mintToken(t, "userId1", time.Now())
	// Corrupt the signature segment; decoding must still succeed.
	tampered := token[:len(token)-4] + "AAAA"

	s := NewSession("", "")
	require.NoError(t, s.Set(tampered))
	assert.Equal(t, "userId1", s.UserID())
}

func Test_Session_FailedSetKeepsPreviousToken(t *testing.T) {
	s := NewSession("", "")
	first := mintToken(t, "userId1", time.Now())
	require.NoError(t, s.Set(first))

	require.Error(t, s.Set("garbage"))
	assert.Equal(t, first, s.Token())
	assert.Equal(t, "userId1", s.UserID())
}

func Test_Session_ConcurrentSetAndRead(t *testing.T) {
	s := NewSession("", "")
	tokens := map[string]string{
		mintToken(t, "userA", time.Now()): "userA",
		mintToken(t, "userB", time.Now()): "userB",
	}

	var wg sync.WaitGroup
	for token := range tokens {
		token := token
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = s.Set(token)
			}
		}()
	}
	wg.Wait()

	want, ok := tokens[s.Token()]
	require.True(t, ok)
	assert.Equal(t, want, s.UserID(), "token and user id must come from the same Set")
}
