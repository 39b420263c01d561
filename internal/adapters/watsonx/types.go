package watsonx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type generateParameters struct {
	DecodingMethod string   `json:"decoding_method"`
	MaxNewTokens   int      `json:"max_new_tokens"`
	Temperature    float32  `json:"temperature"`
	StopSequences  []string `json:"stop_sequences,omitempty"`
}

type generateRequest struct {
	ModelID           string             `json:"model_id"`
	ProjectID         string             `json:"project_id"`
	Input             string             `json:"input"`
	SystemInstruction string             `json:"system_instruction,omitempty"`
	Parameters        generateParameters `json:"parameters"`
}

type generateResult struct {
	GeneratedText string `json:"generated_text"`
	OutputText    string `json:"output_text"`
	StopReason    string `json:"stop_reason"`
}

// generateResponse covers the response shapes observed across provider
// versions; older deployments put generated_text at the top level.
type generateResponse struct {
	ModelID       string           `json:"model_id"`
	Results       []generateResult `json:"results"`
	GeneratedText string           `json:"generated_text"`
}

type apiError struct {
	Trace  string `json:"trace"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	StatusCode int `json:"status_code"`
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
		first := apiErr.Errors[0]
		return fmt.Errorf("watsonx api error %d (%s): %s", resp.StatusCode, first.Code, first.Message)
	}
	return fmt.Errorf("watsonx api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
