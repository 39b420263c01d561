package models

import "io"

// AudioInput wraps the uploaded audio payload handed to the recognition
// provider.
type AudioInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Bytes       int64
}

// SpeechRequest drives text-to-speech synthesis.
type SpeechRequest struct {
	Text   string
	Voice  string
	Format string
}

// SpeechResult returns synthesized audio bytes tagged with their MIME type.
type SpeechResult struct {
	Audio    []byte
	MimeType string
}

// TranscriptionRequest captures speech-recognition parameters.
type TranscriptionRequest struct {
	Input AudioInput
}

// TranscriptionResult is a normalized transcription payload.
type TranscriptionResult struct {
	Transcript string
}

// Voice describes one entry of the synthesis provider's voice catalog.
type Voice struct {
	Name        string `json:"name"`
	Language    string `json:"language"`
	Gender      string `json:"gender"`
	Description string `json:"description"`
}
