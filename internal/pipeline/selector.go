// Package pipeline picks the matched transcription and scoring providers for one analysis run.
package pipeline

import (
	"net/http"

	"github.com/speakwell/analysis-pipeline/internal/config"
	"github.com/speakwell/analysis-pipeline/internal/errdefs"
	"github.com/speakwell/analysis-pipeline/internal/scoring"
	"github.com/speakwell/analysis-pipeline/internal/transcription"
)

// Variant names the provider pair used by a run.
type Variant string

const (
	// VariantStructured pairs hosted transcription with schema-constrained scoring.
	VariantStructured Variant = "structured"
	// VariantLegacy pairs placeholder or OpenAI-compatible transcription with narrative scoring.
	VariantLegacy Variant = "legacy"
)

// Providers is the pair handed to the orchestrator. Both members always come from the same Variant.
type Providers struct {
	Variant     Variant
	Transcriber transcription.Provider
	Scorer      scoring.Scorer
}

// Selector builds Providers from the credentials present at call time.
type Selector interface {
	Select() (*Providers, error)
}

type ProvidersLoader func() (*config.Providers, error)

type selector struct {
	load       ProvidersLoader
	httpClient *http.Client
}

// NewSelector returns a Selector that calls load on every Select, so a credential
// rotated between deployments is picked up by the next run.
func NewSelector(load ProvidersLoader, httpClient *http.Client) Selector {
	if load == nil {
		load = config.LoadProviders
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &selector{load: load, httpClient: httpClient}
}

func (s *selector) Select() (*Providers, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, errdefs.NewErrConfiguration("loading provider credentials: %v", err)
	}
	return Build(cfg, s.httpClient)
}

// Build maps a credential set onto a provider pair. It is a pure function of cfg.
// A Volcengine key without an ASR endpoint is a configuration error: the chat endpoint serves no transcription.
func Build(cfg *config.Providers, httpClient *http.Client) (*Providers, error) {
	if cfg.OpenAIAPIKey != "" {
		return &Providers{
			Variant: VariantStructured,
			Transcriber: transcription.NewWhisperProvider(
				transcription.WithAPIKey(cfg.OpenAIAPIKey),
				transcription.WithBaseURL(cfg.OpenAIBaseURL),
				transcription.WithModel(cfg.TranscriptionModel),
				transcription.WithHTTPClient(httpClient),
			),
			Scorer: scoring.NewStructuredScorer(
				scoring.WithAPIKey(cfg.OpenAIAPIKey),
				scoring.WithBaseURL(cfg.OpenAIBaseURL),
				scoring.WithModel(cfg.ScoringModel),
				scoring.WithHTTPClient(httpClient),
			),
		}, nil
	}

	p := &Providers{
		Variant:     VariantLegacy,
		Transcriber: transcription.NewPlaceholderProvider(),
		Scorer:      scoring.NewMockNarrativeScorer(),
	}
	if cfg.VolcengineAPIKey == "" {
		return p, nil
	}
	if cfg.VolcengineASRBaseURL == "" {
		return nil, errdefs.NewErrConfiguration("VOLCENGINE_ASR_BASE_URL is required when VOLCENGINE_API_KEY is set")
	}

	p.Scorer = scoring.NewNarrativeScorer(
		scoring.WithAPIKey(cfg.VolcengineAPIKey),
		scoring.WithBaseURL(cfg.VolcengineBaseURL),
		scoring.WithModel(cfg.VolcengineNarrativeModel),
		scoring.WithHTTPClient(httpClient),
	)
	p.Transcriber = transcription.NewWhisperProvider(
		transcription.WithAPIKey(cfg.VolcengineAPIKey),
		transcription.WithBaseURL(cfg.VolcengineASRBaseURL),
		transcription.WithModel(cfg.VolcengineASRModel),
		transcription.WithHTTPClient(httpClient),
	)
	return p, nil
}
