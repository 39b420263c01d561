// Package app wires configuration into the long-lived dependency container.
package app

import (
	"context"
	"fmt"

	"github.com/echoverse/gateway/internal/adapters/languagetranslator"
	"github.com/echoverse/gateway/internal/adapters/speechtotext"
	"github.com/echoverse/gateway/internal/adapters/texttospeech"
	"github.com/echoverse/gateway/internal/adapters/watsonx"
	"github.com/echoverse/gateway/internal/config"
	"github.com/echoverse/gateway/internal/iamauth"
	"github.com/echoverse/gateway/internal/observability"
	"github.com/echoverse/gateway/internal/services/studio"
	"github.com/echoverse/gateway/internal/uploads"
)

// HealthChecker probes one provider for reachability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Container holds the process-wide dependencies. Everything here is built
// once at startup and shared read-only across requests.
type Container struct {
	Config        *config.Config
	Studio        *studio.Service
	Observability *observability.Provider
	HealthChecks  map[string]HealthChecker
}

// NewContainer constructs the provider clients and the services that
// depend on them.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	obs, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	genClient, err := iamauth.NewClient(ctx, iamauth.Options{
		TokenURL: cfg.IAM.TokenURL,
		APIKey:   cfg.Generation.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("generation credentials: %w", err)
	}
	ttsClient, err := iamauth.NewClient(ctx, iamauth.Options{
		TokenURL: cfg.IAM.TokenURL,
		APIKey:   cfg.TTS.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis credentials: %w", err)
	}
	sttClient, err := iamauth.NewClient(ctx, iamauth.Options{
		TokenURL: cfg.IAM.TokenURL,
		APIKey:   cfg.STT.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("recognition credentials: %w", err)
	}
	translationClient, err := iamauth.NewClient(ctx, iamauth.Options{
		TokenURL: cfg.IAM.TokenURL,
		APIKey:   cfg.Translation.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("translation credentials: %w", err)
	}

	generator, err := watsonx.New(watsonx.Options{
		Endpoint:   cfg.Generation.URL,
		ProjectID:  cfg.Generation.ProjectID,
		ModelID:    cfg.Generation.ModelID,
		HTTPClient: genClient,
	})
	if err != nil {
		return nil, fmt.Errorf("build generation adapter: %w", err)
	}
	synthesizer, err := texttospeech.New(texttospeech.Options{
		Endpoint:   cfg.TTS.URL,
		HTTPClient: ttsClient,
	})
	if err != nil {
		return nil, fmt.Errorf("build synthesis adapter: %w", err)
	}
	recognizer, err := speechtotext.New(speechtotext.Options{
		Endpoint:   cfg.STT.URL,
		ModelID:    cfg.STT.ModelID,
		HTTPClient: sttClient,
	})
	if err != nil {
		return nil, fmt.Errorf("build recognition adapter: %w", err)
	}
	translator, err := languagetranslator.New(languagetranslator.Options{
		Endpoint:   cfg.Translation.URL,
		HTTPClient: translationClient,
	})
	if err != nil {
		return nil, fmt.Errorf("build translation adapter: %w", err)
	}

	spool, err := uploads.NewSpool(cfg.Uploads.Dir)
	if err != nil {
		return nil, fmt.Errorf("build upload spool: %w", err)
	}

	svc, err := studio.New(studio.Options{
		Generator:     generator,
		Synthesizer:   synthesizer,
		Recognizer:    recognizer,
		Translator:    translator,
		Spool:         spool,
		DefaultVoice:  cfg.TTS.DefaultVoice,
		DefaultFormat: cfg.TTS.DefaultFormat,
		Metrics:       obs,
	})
	if err != nil {
		return nil, fmt.Errorf("build studio service: %w", err)
	}

	return &Container{
		Config:        cfg,
		Studio:        svc,
		Observability: obs,
		HealthChecks: map[string]HealthChecker{
			"generation":  generator,
			"synthesis":   synthesizer,
			"recognition": recognizer,
			"translation": translator,
		},
	}, nil
}
