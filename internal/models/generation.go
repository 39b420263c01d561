package models

// GenerationRequest captures a text-transformation request before it is
// shaped for the generation provider.
type GenerationRequest struct {
	Prompt string
	Task   string
	Tone   string
}

// GenerationResult is the normalized generation payload.
type GenerationResult struct {
	Text string
}
