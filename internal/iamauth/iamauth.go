// Package iamauth exchanges a provider api key for short-lived bearer tokens
// and exposes the result as an oauth2-backed HTTP client.
package iamauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const apiKeyGrantType = "urn:ibm:params:oauth:grant-type:apikey"

// expirySkew is subtracted from the reported lifetime so a token is refreshed
// before the provider stops accepting it.
const expirySkew = 60 * time.Second

// Options configure the token source.
type Options struct {
	TokenURL   string
	APIKey     string
	HTTPClient *http.Client
}

type tokenSource struct {
	tokenURL string
	apiKey   string
	client   *http.Client
}

// NewTokenSource returns a caching oauth2.TokenSource backed by the api-key
// grant. Tokens are reused until shortly before expiry.
func NewTokenSource(opts Options) (oauth2.TokenSource, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("iamauth: api key required")
	}
	if strings.TrimSpace(opts.TokenURL) == "" {
		return nil, errors.New("iamauth: token url required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	src := &tokenSource{
		tokenURL: opts.TokenURL,
		apiKey:   opts.APIKey,
		client:   client,
	}
	return oauth2.ReuseTokenSource(nil, src), nil
}

// NewClient returns an HTTP client that attaches a bearer token from the
// api-key grant to every request.
func NewClient(ctx context.Context, opts Options) (*http.Client, error) {
	src, err := NewTokenSource(opts)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, src), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("grant_type", apiKeyGrantType)
	form.Set("apikey", s.apiKey)

	req, err := http.NewRequest(http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iamauth: token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("iamauth: token exchange status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("iamauth: decode token response: %w", err)
	}
	if decoded.AccessToken == "" {
		return nil, errors.New("iamauth: token response missing access_token")
	}

	token := &oauth2.Token{
		AccessToken: decoded.AccessToken,
		TokenType:   decoded.TokenType,
	}
	if decoded.ExpiresIn > 0 {
		lifetime := time.Duration(decoded.ExpiresIn) * time.Second
		if lifetime > expirySkew {
			lifetime -= expirySkew
		}
		token.Expiry = time.Now().Add(lifetime)
	}
	return token, nil
}
