package auth

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenStore_Save(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewTokenStore()
	store.now = func() time.Time { return now }

	store.Save("abc", time.Hour)
	assert.Equal(t, "abc", store.ValidToken())
	assert.Equal(t, now.Add(time.Hour), store.Expiry())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, "", store.ValidToken())
	assert.False(t, store.IsTokenValid())
	assert.True(t, store.Expiry().IsZero(), "expired token should be dropped")
}

func TestTokenStore_SaveWithoutExpiry(t *testing.T) {
	store := NewTokenStore()
	store.Save("forever", 0)

	assert.Equal(t, "forever", store.ValidToken())
	assert.True(t, store.Expiry().IsZero())
}

func TestTokenStore_SaveJWT(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name        string
		claims      jwt.RegisteredClaims
		expectError error
		valid       bool
	}{
		{
			name:   "Future expiry",
			claims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
			valid:  true,
		},
		{
			name:   "No expiry",
			claims: jwt.RegisteredClaims{Subject: "user-1"},
			valid:  true,
		},
		{
			name:        "Already expired",
			claims:      jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour))},
			expectError: ErrTokenExpired,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewTokenStore()
			token := signedToken(t, tc.claims)

			err := store.SaveJWT(token)
			if tc.expectError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.expectError))
				assert.Equal(t, "", store.ValidToken())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.valid, store.ValidToken() == token)
		})
	}
}

func TestTokenStore_SaveJWT_Malformed(t *testing.T) {
	store := NewTokenStore()
	err := store.SaveJWT("not-a-jwt")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token")
}

func TestTokenStore_Clear(t *testing.T) {
	store := NewTokenStore()
	store.Save("abc", time.Hour)
	store.Clear()

	assert.Equal(t, "", store.ValidToken())
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.RegisteredClaims{Subject: "device-admin", ExpiresAt: jwt.NewNumericDate(exp)})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "device-admin", claims.Subject)
	assert.True(t, exp.Equal(claims.ExpiresAt.Time))
}

func TestTokenStore_ConcurrentAccess(t *testing.T) {
	store := NewTokenStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Save("abc", time.Minute)
		}()
		go func() {
			defer wg.Done()
			store.ValidToken()
		}()
	}
	wg.Wait()

	assert.Equal(t, "abc", store.ValidToken())
}
