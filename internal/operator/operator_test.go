package operator

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licenseguard/licenseguard-backend/pkg/config"
	"github.com/licenseguard/licenseguard-backend/pkg/httputil"
	"github.com/licenseguard/licenseguard-backend/pkg/testutil"
)

func testCredentials(t *testing.T, password string) *Credentials {
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return NewCredentials(&config.OperatorConfig{
		Username:     "admin",
		PasswordHash: hash,
	})
}

func TestCredentials_Verify(t *testing.T) {
	creds := testCredentials(t, "correct horse battery staple")

	assert.NoError(t, creds.Verify("admin", "correct horse battery staple"))
	assert.Error(t, creds.Verify("admin", "wrong password"))
	assert.Error(t, creds.Verify("notadmin", "correct horse battery staple"))
	assert.Error(t, creds.Verify("admin", ""))
}

func TestCredentials_Verify_NoHashConfigured(t *testing.T) {
	creds := NewCredentials(&config.OperatorConfig{Username: "admin"})

	// No configured hash means no operator account, every attempt fails.
	assert.Error(t, creds.Verify("admin", "anything"))
	assert.Error(t, creds.Verify("admin", ""))
}

func newTestTokenManager(expiry time.Duration) *TokenManager {
	return NewTokenManager(&config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: expiry,
		Issuer:       "licenseguard-test",
	})
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)

	token, err := tm.Issue("admin")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)

	claims, err := tm.Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.NotEmpty(t, claims.OperatorID)
	assert.Equal(t, "licenseguard-test", claims.Issuer)
}

func TestTokenManager_Validate_Expired(t *testing.T) {
	tm := newTestTokenManager(-1 * time.Minute)

	token, err := tm.Issue("admin")
	require.NoError(t, err)

	_, err = tm.Validate(token.AccessToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenManager_Validate_WrongSecret(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)
	other := NewTokenManager(&config.JWTConfig{
		Secret:       "different-secret",
		AccessExpiry: 15 * time.Minute,
		Issuer:       "licenseguard-test",
	})

	token, err := other.Issue("admin")
	require.NoError(t, err)

	_, err = tm.Validate(token.AccessToken)
	require.Error(t, err)
}

func TestTokenManager_Validate_Garbage(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)

	_, err := tm.Validate("not.a.token")
	require.Error(t, err)
}

func TestRequireOperator(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)

	var gotOperatorID string
	handler := RequireOperator(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOperatorID = httputil.GetOperatorID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token passes", func(t *testing.T) {
		token, err := tm.Issue("admin")
		require.NoError(t, err)

		req := testutil.WithBearerToken(httptest.NewRequest(http.MethodPost, "/api/v1/licenses", nil), token.AccessToken)
		rr := testutil.ExecuteRequest(handler, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.NotEmpty(t, gotOperatorID)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/licenses", nil)
		rr := testutil.ExecuteRequest(handler, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/licenses", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rr := testutil.ExecuteRequest(handler, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		req := testutil.WithBearerToken(httptest.NewRequest(http.MethodPost, "/api/v1/licenses", nil), "bogus")
		rr := testutil.ExecuteRequest(handler, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		testutil.AssertBodyContains(t, rr, "TOKEN_INVALID")
	})
}
