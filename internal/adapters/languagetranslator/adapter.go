// Package languagetranslator implements the translation provider adapter.
package languagetranslator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/echoverse/gateway/internal/models"
)

const apiVersion = "2023-10-24"

// Options configure the translation adapter.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
}

// Adapter shapes translation requests for the provider and extracts the
// first translation from its response.
type Adapter struct {
	client       *http.Client
	baseURL      string
	translateURL string
}

// New creates a translation adapter. The HTTP client is expected to carry
// provider credentials already.
func New(opts Options) (*Adapter, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("languagetranslator: endpoint required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	base := strings.TrimSuffix(strings.TrimSpace(opts.Endpoint), "/")
	return &Adapter{
		client:       client,
		baseURL:      base,
		translateURL: base + "/v3/translate?version=" + apiVersion,
	}, nil
}

type translateRequest struct {
	Text   []string `json:"text"`
	Source string   `json:"source"`
	Target string   `json:"target"`
}

type translateEntry struct {
	Translation string `json:"translation"`
}

type translateResponse struct {
	Translations   []translateEntry `json:"translations"`
	WordCount      int              `json:"word_count"`
	CharacterCount int              `json:"character_count"`
}

// Translate sends one text to the provider. A response without translations
// yields an empty result rather than an error.
func (a *Adapter) Translate(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error) {
	if req.Source == "" {
		return models.TranslationResult{}, errors.New("languagetranslator: source language required")
	}
	if req.Target == "" {
		return models.TranslationResult{}, errors.New("languagetranslator: target language required")
	}

	body, err := json.Marshal(translateRequest{
		Text:   []string{req.Text},
		Source: req.Source,
		Target: req.Target,
	})
	if err != nil {
		return models.TranslationResult{}, fmt.Errorf("languagetranslator encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.translateURL, bytes.NewReader(body))
	if err != nil {
		return models.TranslationResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return models.TranslationResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return models.TranslationResult{}, decodeAPIError(resp)
	}

	var decoded translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.TranslationResult{}, fmt.Errorf("languagetranslator decode response: %w", err)
	}

	translation := ""
	if len(decoded.Translations) > 0 {
		translation = decoded.Translations[0].Translation
	}
	return models.TranslationResult{Translation: translation}, nil
}

// HealthCheck probes the provider endpoint for reachability.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v3/identifiable_languages?version="+apiVersion, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("languagetranslator health check status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type apiError struct {
	Code            int    `json:"code"`
	Error           string `json:"error"`
	CodeDescription string `json:"code_description"`
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("languagetranslator api error %d (%s): %s", resp.StatusCode, apiErr.CodeDescription, apiErr.Error)
	}
	return fmt.Errorf("languagetranslator api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
