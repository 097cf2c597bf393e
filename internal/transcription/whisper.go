package transcription

import (
	"bytes"
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/speakwell/analysis-pipeline/internal/errdefs"
)

const providerWhisper = "whisper"

type WhisperOpts func(c *whisperConfig)

type whisperConfig struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// whisperProvider calls a hosted speech-to-text API speaking the OpenAI audio protocol.
type whisperProvider struct {
	cfg    *whisperConfig
	client *openai.Client
}

func NewWhisperProvider(opts ...WhisperOpts) Provider {
	cfg := &whisperConfig{
		model:      openai.Whisper1,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(cfg)
	}

	clientCfg := openai.DefaultConfig(cfg.apiKey)
	if cfg.baseURL != "" {
		clientCfg.BaseURL = cfg.baseURL
	}
	clientCfg.HTTPClient = cfg.httpClient

	return &whisperProvider{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}
}

func (w *whisperProvider) TranscribeBytes(ctx context.Context, audio []byte, filename string) (*Result, error) {
	if w.cfg.apiKey == "" {
		return nil, errdefs.NewErrConfiguration("transcription API key is not set")
	}
	if filename == "" {
		filename = DefaultFilename
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.cfg.model,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return nil, errdefs.NewErrUpstream(providerWhisper, err)
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}

	return &Result{Text: strings.TrimSpace(resp.Text), Segments: normalizeSegments(segments)}, nil
}

func (w *whisperProvider) TranscribeURL(ctx context.Context, audioURL string) (*Result, error) {
	if w.cfg.apiKey == "" {
		return nil, errdefs.NewErrConfiguration("transcription API key is not set")
	}
	return FromURL(ctx, w.cfg.httpClient, w, audioURL)
}

// normalizeSegments orders segments by start and removes overlaps.
func normalizeSegments(segments []Segment) []Segment {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	for i := 1; i < len(segments); i++ {
		prev := segments[i-1]
		if segments[i].Start < prev.End {
			segments[i].Start = prev.End
		}
		if segments[i].End < segments[i].Start {
			segments[i].End = segments[i].Start
		}
	}
	return segments
}

func WithAPIKey(apiKey string) WhisperOpts {
	return func(c *whisperConfig) {
		c.apiKey = apiKey
	}
}

func WithBaseURL(baseURL string) WhisperOpts {
	return func(c *whisperConfig) {
		c.baseURL = baseURL
	}
}

func WithModel(model string) WhisperOpts {
	return func(c *whisperConfig) {
		if model != "" {
			c.model = model
		}
	}
}

func WithHTTPClient(client *http.Client) WhisperOpts {
	return func(c *whisperConfig) {
		if client != nil {
			c.httpClient = client
		}
	}
}
