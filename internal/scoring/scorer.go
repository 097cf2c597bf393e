// Package scoring grades a transcript against the speaking prompt.
package scoring

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/speakwell/analysis-pipeline/internal/report"
	"github.com/speakwell/analysis-pipeline/internal/transcription"
)

// Scorer is a pluggable scoring backend.
type Scorer interface {
	Score(ctx context.Context, transcript *transcription.Result, question string) (*Outcome, error)
}

// Outcome carries exactly one of a structured draft or a narrative.
type Outcome struct {
	Draft     *report.Draft
	Narrative *string
}

func (o *Outcome) Input() report.Input {
	return report.Input{Draft: o.Draft, Narrative: o.Narrative}
}

// FormatTranscript renders one "[start-end] text" line per segment.
func FormatTranscript(t *transcription.Result) string {
	if t == nil {
		return ""
	}
	if len(t.Segments) == 0 {
		return strings.TrimSpace(t.Text)
	}

	lines := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		lines = append(lines, fmt.Sprintf("[%.2f-%.2f] %s", s.Start, s.End, strings.TrimSpace(s.Text)))
	}
	return strings.Join(lines, "\n")
}

type Opts func(c *clientConfig)

type clientConfig struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func newClientConfig(defaultModel string, opts ...Opts) *clientConfig {
	cfg := &clientConfig{model: defaultModel, httpClient: http.DefaultClient}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

func (c *clientConfig) client() *openai.Client {
	clientCfg := openai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		clientCfg.BaseURL = c.baseURL
	}
	clientCfg.HTTPClient = c.httpClient
	return openai.NewClientWithConfig(clientCfg)
}

func WithAPIKey(apiKey string) Opts {
	return func(c *clientConfig) {
		c.apiKey = apiKey
	}
}

func WithBaseURL(baseURL string) Opts {
	return func(c *clientConfig) {
		c.baseURL = baseURL
	}
}

func WithModel(model string) Opts {
	return func(c *clientConfig) {
		if model != "" {
			c.model = model
		}
	}
}

func WithHTTPClient(client *http.Client) Opts {
	return func(c *clientConfig) {
		if client != nil {
			c.httpClient = client
		}
	}
}
