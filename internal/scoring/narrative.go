package scoring

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/speakwell/analysis-pipeline/internal/errdefs"
	"github.com/speakwell/analysis-pipeline/internal/report"
	"github.com/speakwell/analysis-pipeline/internal/transcription"
)

const (
	DefaultNarrativeModel = "doubao-1-5-pro-32k-250115"
	providerNarrative     = "narrative scorer"
)

type narrativeScorer struct {
	cfg    *clientConfig
	client *openai.Client
}

// NewNarrativeScorer returns the legacy free-text scorer.
func NewNarrativeScorer(opts ...Opts) Scorer {
	cfg := newClientConfig(DefaultNarrativeModel, opts...)
	return &narrativeScorer{cfg: cfg, client: cfg.client()}
}

func (n *narrativeScorer) Score(ctx context.Context, transcript *transcription.Result, question string) (*Outcome, error) {
	if n.cfg.apiKey == "" {
		return nil, errdefs.NewErrConfiguration("narrative scoring API key is not set")
	}

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.cfg.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: narrativeSystemPrompt(question)},
			{Role: openai.ChatMessageRoleUser, Content: transcriptText(transcript)},
		},
	})
	if err != nil {
		return nil, errdefs.NewErrUpstream(providerNarrative, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, errdefs.NewErrUpstream(providerNarrative, errors.New("empty completion"))
	}

	narrative := resp.Choices[0].Message.Content
	return &Outcome{Narrative: &narrative}, nil
}

type mockNarrativeScorer struct{}

// NewMockNarrativeScorer returns a deterministic scorer for local development.
func NewMockNarrativeScorer() Scorer {
	return &mockNarrativeScorer{}
}

func (m *mockNarrativeScorer) Score(_ context.Context, transcript *transcription.Result, question string) (*Outcome, error) {
	narrative := report.MockNarrative(transcriptText(transcript), question)
	return &Outcome{Narrative: &narrative}, nil
}

func transcriptText(t *transcription.Result) string {
	if t == nil {
		return ""
	}
	return t.Text
}
