package iamauth

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenExchange(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, apiKeyGrantType, r.PostFormValue("grant_type"))
		require.Equal(t, "secret-key", r.PostFormValue("apikey"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-abc","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	src, err := NewTokenSource(Options{TokenURL: srv.URL, APIKey: "secret-key"})
	require.NoError(t, err)

	tok, err := src.Token()
	require.NoError(t, err)
	require.Equal(t, "tok-abc", tok.AccessToken)
	require.True(t, tok.Valid())

	// Second read comes from the cache, not a fresh exchange.
	tok2, err := src.Token()
	require.NoError(t, err)
	require.Equal(t, tok.AccessToken, tok2.AccessToken)
	require.Equal(t, int64(1), calls.Load())
}

func TestTokenExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessage":"invalid api key"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	src, err := NewTokenSource(Options{TokenURL: srv.URL, APIKey: "bad-key"})
	require.NoError(t, err)

	_, err = src.Token()
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 400")
}

func TestOptionsValidation(t *testing.T) {
	_, err := NewTokenSource(Options{TokenURL: "https://iam.example.com"})
	require.Error(t, err)

	_, err = NewTokenSource(Options{APIKey: "k"})
	require.Error(t, err)
}
