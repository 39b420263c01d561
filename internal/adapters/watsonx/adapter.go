// Package watsonx implements the text-generation provider adapter.
package watsonx

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

const apiVersion = "2024-05-31"

// Decoding parameters are fixed by policy; callers supply content only.
const (
	decodingMethod = "greedy"
	maxNewTokens   = 400
	temperature    = 0.2
)

// Options configure the generation adapter.
type Options struct {
	Endpoint   string
	ProjectID  string
	ModelID    string
	HTTPClient *http.Client
}

// Adapter shapes generation requests for the provider and normalizes its
// responses.
type Adapter struct {
	client      *http.Client
	projectID   string
	modelID     string
	baseURL     string
	generateURL string
}

// New creates a generation adapter. The HTTP client is expected to carry
// provider credentials already.
func New(opts Options) (*Adapter, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("watsonx: endpoint required")
	}
	if strings.TrimSpace(opts.ProjectID) == "" {
		return nil, errors.New("watsonx: project id required")
	}
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, errors.New("watsonx: model id required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	base := strings.TrimSuffix(strings.TrimSpace(opts.Endpoint), "/")
	return &Adapter{
		client:      client,
		projectID:   opts.ProjectID,
		modelID:     opts.ModelID,
		baseURL:     base,
		generateURL: base + "/ml/v1/text/generation?version=" + apiVersion,
	}, nil
}

// GenerateParams carry the provider-shaped generation inputs. The system
// instruction travels as its own field, never folded into Input.
type GenerateParams struct {
	Input             string
	SystemInstruction string
}

// Generate invokes the provider with fixed decoding parameters and extracts
// the generated text from its response.
func (a *Adapter) Generate(ctx context.Context, params GenerateParams) (models.GenerationResult, error) {
	payload := generateRequest{
		ModelID:           a.modelID,
		ProjectID:         a.projectID,
		Input:             params.Input,
		SystemInstruction: params.SystemInstruction,
		Parameters: generateParameters{
			DecodingMethod: decodingMethod,
			MaxNewTokens:   maxNewTokens,
			Temperature:    temperature,
		},
	}

	raw, err := a.postJSON(ctx, a.generateURL, payload)
	if err != nil {
		return models.GenerationResult{}, err
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.GenerationResult{}, fmt.Errorf("watsonx decode response: %w", err)
	}
	return models.GenerationResult{Text: extractText(resp, raw)}, nil
}

// extractText tries the known response fields in priority order and falls
// back to the raw body when none are present.
func extractText(resp generateResponse, raw []byte) string {
	if len(resp.Results) > 0 && resp.Results[0].GeneratedText != "" {
		return resp.Results[0].GeneratedText
	}
	if resp.GeneratedText != "" {
		return resp.GeneratedText
	}
	if len(resp.Results) > 0 && resp.Results[0].OutputText != "" {
		return resp.Results[0].OutputText
	}
	return strings.TrimSpace(string(raw))
}

// HealthCheck probes the provider endpoint for reachability.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
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
		return fmt.Errorf("watsonx health check status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (a *Adapter) postJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("watsonx encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("watsonx read response: %w", err)
	}
	return raw, nil
}
