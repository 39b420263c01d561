// Package texttospeech implements the speech-synthesis provider adapter.
package texttospeech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/echoverse/gateway/internal/models"
)

// Options configure the synthesis adapter.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
}

// Adapter shapes synthesis requests for the provider and returns audio bytes.
type Adapter struct {
	client        *http.Client
	baseURL       string
	synthesizeURL string
	voicesURL     string
}

// New creates a synthesis adapter. The HTTP client is expected to carry
// provider credentials already.
func New(opts Options) (*Adapter, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("texttospeech: endpoint required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	base := strings.TrimSuffix(strings.TrimSpace(opts.Endpoint), "/")
	return &Adapter{
		client:        client,
		baseURL:       base,
		synthesizeURL: base + "/v1/synthesize",
		voicesURL:     base + "/v1/voices",
	}, nil
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

// Synthesize returns audio for the given text. The provider streams WAV
// payloads with placeholder chunk sizes, so the result always passes through
// RepairHeader before being handed back.
func (a *Adapter) Synthesize(ctx context.Context, req models.SpeechRequest) (models.SpeechResult, error) {
	if req.Voice == "" {
		return models.SpeechResult{}, errors.New("texttospeech: voice required")
	}
	if req.Format == "" {
		return models.SpeechResult{}, errors.New("texttospeech: format required")
	}

	body, err := json.Marshal(synthesizeRequest{Text: req.Text})
	if err != nil {
		return models.SpeechResult{}, fmt.Errorf("texttospeech encode request: %w", err)
	}

	endpoint := a.synthesizeURL + "?voice=" + url.QueryEscape(req.Voice)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.SpeechResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", req.Format)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return models.SpeechResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return models.SpeechResult{}, decodeAPIError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.SpeechResult{}, fmt.Errorf("texttospeech read response: %w", err)
	}

	return models.SpeechResult{
		Audio:    RepairHeader(audio),
		MimeType: req.Format,
	}, nil
}

type voicesResponse struct {
	Voices []models.Voice `json:"voices"`
}

// Voices returns the provider's voice catalog.
func (a *Adapter) Voices(ctx context.Context) ([]models.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.voicesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}

	var decoded voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("texttospeech decode voices: %w", err)
	}
	return decoded.Voices, nil
}

// HealthCheck probes the provider endpoint for reachability.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.voicesURL, nil)
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
		return fmt.Errorf("texttospeech health check status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
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
		return fmt.Errorf("texttospeech api error %d (%s): %s", resp.StatusCode, apiErr.CodeDescription, apiErr.Error)
	}
	return fmt.Errorf("texttospeech api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
