// Package speechtotext implements the speech-recognition provider adapter.
package speechtotext

import (
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

// Options configure the recognition adapter.
type Options struct {
	Endpoint   string
	ModelID    string
	HTTPClient *http.Client
}

// Adapter streams audio to the provider and normalizes the recognized
// segments into one transcript.
type Adapter struct {
	client       *http.Client
	modelID      string
	baseURL      string
	recognizeURL string
}

// New creates a recognition adapter. The HTTP client is expected to carry
// provider credentials already.
func New(opts Options) (*Adapter, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("speechtotext: endpoint required")
	}
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, errors.New("speechtotext: model id required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	base := strings.TrimSuffix(strings.TrimSpace(opts.Endpoint), "/")
	return &Adapter{
		client:       client,
		modelID:      opts.ModelID,
		baseURL:      base,
		recognizeURL: base + "/v1/recognize",
	}, nil
}

// Transcribe sends the audio stream to the provider and joins the recognized
// segments into a single transcript.
func (a *Adapter) Transcribe(ctx context.Context, req models.TranscriptionRequest) (models.TranscriptionResult, error) {
	if req.Input.Reader == nil {
		return models.TranscriptionResult{}, errors.New("speechtotext: audio input required")
	}

	endpoint := a.recognizeURL + "?model=" + url.QueryEscape(a.modelID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, req.Input.Reader)
	if err != nil {
		return models.TranscriptionResult{}, err
	}
	contentType := strings.TrimSpace(req.Input.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if req.Input.Bytes > 0 {
		httpReq.ContentLength = req.Input.Bytes
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return models.TranscriptionResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return models.TranscriptionResult{}, decodeAPIError(resp)
	}

	var decoded recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.TranscriptionResult{}, fmt.Errorf("speechtotext decode response: %w", err)
	}
	return models.TranscriptionResult{Transcript: joinSegments(decoded.Results)}, nil
}

// joinSegments concatenates the top-ranked alternative of every segment in
// order, separated by a single space. A segment without alternatives
// contributes an empty token.
func joinSegments(results []recognizeResult) string {
	parts := make([]string, 0, len(results))
	for _, result := range results {
		if len(result.Alternatives) == 0 {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, result.Alternatives[0].Transcript)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// HealthCheck probes the provider endpoint for reachability.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/models", nil)
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
		return fmt.Errorf("speechtotext health check status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type recognizeAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type recognizeResult struct {
	Final        bool                   `json:"final"`
	Alternatives []recognizeAlternative `json:"alternatives"`
}

type recognizeResponse struct {
	ResultIndex int               `json:"result_index"`
	Results     []recognizeResult `json:"results"`
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
		return fmt.Errorf("speechtotext api error %d (%s): %s", resp.StatusCode, apiErr.CodeDescription, apiErr.Error)
	}
	return fmt.Errorf("speechtotext api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
