// Package studio is the normalization layer between the HTTP surface and the
// upstream providers. It shapes generic requests for each provider, applies
// configured defaults, and collapses every upstream failure into one generic
// error per operation so provider internals never reach the caller.
package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/echoverse/gateway/internal/adapters/watsonx"
	"github.com/echoverse/gateway/internal/models"
	"github.com/echoverse/gateway/internal/observability"
	"github.com/echoverse/gateway/internal/uploads"
)

// One error kind per operation; upstream detail is logged, never returned.
var (
	ErrGenerationFailed    = errors.New("generation failed")
	ErrSynthesisFailed     = errors.New("speech synthesis failed")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrTranslationFailed   = errors.New("translation failed")
	ErrVoiceListingFailed  = errors.New("voice listing failed")
)

const (
	preambleFormat = "You are a writer. Task: %s. Tone: %s. Keep meaning intact. Output only the transformed text."
	defaultTask    = "rewrite"
	defaultTone    = "Neutral"
)

// Generator is the text-generation provider client.
type Generator interface {
	Generate(ctx context.Context, params watsonx.GenerateParams) (models.GenerationResult, error)
}

// Synthesizer is the speech-synthesis provider client.
type Synthesizer interface {
	Synthesize(ctx context.Context, req models.SpeechRequest) (models.SpeechResult, error)
	Voices(ctx context.Context) ([]models.Voice, error)
}

// Recognizer is the speech-recognition provider client.
type Recognizer interface {
	Transcribe(ctx context.Context, req models.TranscriptionRequest) (models.TranscriptionResult, error)
}

// Translator is the translation provider client.
type Translator interface {
	Translate(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error)
}

// Options configure the service.
type Options struct {
	Generator     Generator
	Synthesizer   Synthesizer
	Recognizer    Recognizer
	Translator    Translator
	Spool         *uploads.Spool
	DefaultVoice  string
	DefaultFormat string
	Logger        *slog.Logger
	Metrics       *observability.Provider
}

// Service holds the long-lived provider clients, shared read-only across
// requests.
type Service struct {
	generator     Generator
	synthesizer   Synthesizer
	recognizer    Recognizer
	translator    Translator
	spool         *uploads.Spool
	defaultVoice  string
	defaultFormat string
	logger        *slog.Logger
	metrics       *observability.Provider
}

// New validates the dependencies and returns the service.
func New(opts Options) (*Service, error) {
	if opts.Generator == nil {
		return nil, errors.New("studio: generator required")
	}
	if opts.Synthesizer == nil {
		return nil, errors.New("studio: synthesizer required")
	}
	if opts.Recognizer == nil {
		return nil, errors.New("studio: recognizer required")
	}
	if opts.Translator == nil {
		return nil, errors.New("studio: translator required")
	}
	if opts.Spool == nil {
		return nil, errors.New("studio: upload spool required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		generator:     opts.Generator,
		synthesizer:   opts.Synthesizer,
		recognizer:    opts.Recognizer,
		translator:    opts.Translator,
		spool:         opts.Spool,
		defaultVoice:  opts.DefaultVoice,
		defaultFormat: opts.DefaultFormat,
		logger:        logger,
		metrics:       opts.Metrics,
	}, nil
}

// Generate builds the instruction preamble and invokes the generation
// provider. The preamble travels as a system instruction next to the raw
// prompt, never concatenated into it.
func (s *Service) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	task := strings.TrimSpace(req.Task)
	if task == "" {
		task = defaultTask
	}
	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = defaultTone
	}

	params := watsonx.GenerateParams{
		Input:             req.Prompt,
		SystemInstruction: fmt.Sprintf(preambleFormat, task, tone),
	}

	start := time.Now()
	result, err := s.generator.Generate(ctx, params)
	s.metrics.RecordProviderRequest(ctx, "generation", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("generation request failed", "task", task, "tone", tone, "error", err)
		return models.GenerationResult{}, ErrGenerationFailed
	}
	return result, nil
}

// Synthesize fills in configured defaults and invokes the synthesis provider.
func (s *Service) Synthesize(ctx context.Context, req models.SpeechRequest) (models.SpeechResult, error) {
	if strings.TrimSpace(req.Voice) == "" {
		req.Voice = s.defaultVoice
	}
	if strings.TrimSpace(req.Format) == "" {
		req.Format = s.defaultFormat
	}

	start := time.Now()
	result, err := s.synthesizer.Synthesize(ctx, req)
	s.metrics.RecordProviderRequest(ctx, "synthesis", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("synthesis request failed", "voice", req.Voice, "format", req.Format, "error", err)
		return models.SpeechResult{}, ErrSynthesisFailed
	}
	return result, nil
}

// Transcribe spools the uploaded audio to disk, streams it to the recognition
// provider, and removes the spooled file once the call finishes, success or
// failure.
func (s *Service) Transcribe(ctx context.Context, src io.Reader, contentType, filename string) (models.TranscriptionResult, error) {
	artifact, err := s.spool.Stash(src, contentType)
	if err != nil {
		s.logger.Error("audio spool failed", "filename", filename, "error", err)
		return models.TranscriptionResult{}, ErrTranscriptionFailed
	}
	defer artifact.Remove()

	file, err := artifact.Open()
	if err != nil {
		s.logger.Error("audio spool open failed", "error", err)
		return models.TranscriptionResult{}, ErrTranscriptionFailed
	}
	defer file.Close()

	start := time.Now()
	result, err := s.recognizer.Transcribe(ctx, models.TranscriptionRequest{
		Input: models.AudioInput{
			Reader:      file,
			Filename:    filename,
			ContentType: artifact.ContentType,
			Bytes:       artifact.Size,
		},
	})
	s.metrics.RecordProviderRequest(ctx, "recognition", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("transcription request failed", "filename", filename, "content_type", contentType, "error", err)
		return models.TranscriptionResult{}, ErrTranscriptionFailed
	}
	return result, nil
}

// Translate invokes the translation provider. Source and target arrive as
// language codes already validated by the handler.
func (s *Service) Translate(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error) {
	start := time.Now()
	result, err := s.translator.Translate(ctx, req)
	s.metrics.RecordProviderRequest(ctx, "translation", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("translation request failed", "source", req.Source, "target", req.Target, "error", err)
		return models.TranslationResult{}, ErrTranslationFailed
	}
	return result, nil
}

// Voices proxies the synthesis provider's voice catalog.
func (s *Service) Voices(ctx context.Context) ([]models.Voice, error) {
	start := time.Now()
	voices, err := s.synthesizer.Voices(ctx)
	s.metrics.RecordProviderRequest(ctx, "synthesis", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("voice listing failed", "error", err)
		return nil, ErrVoiceListingFailed
	}
	return voices, nil
}
