package scoring

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/sashabaranov/go-openai"

	"github.com/speakwell/analysis-pipeline/internal/errdefs"
	"github.com/speakwell/analysis-pipeline/internal/report"
	"github.com/speakwell/analysis-pipeline/internal/transcription"
)

const (
	DefaultStructuredModel = "gpt-4o-2024-08-06"
	providerStructured     = "structured scorer"
	schemaName             = "toefl_report"
)

//go:embed schema.json
var draftSchemaJSON []byte

// draftSchema is the compiled schema every structured response must satisfy.
var draftSchema = mustCompileSchema(draftSchemaJSON, "toefl_report.schema.json")

func mustCompileSchema(raw []byte, name string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

type structuredScorer struct {
	cfg    *clientConfig
	client *openai.Client
}

// NewStructuredScorer returns a scorer whose model output is constrained to the report schema.
func NewStructuredScorer(opts ...Opts) Scorer {
	cfg := newClientConfig(DefaultStructuredModel, opts...)
	return &structuredScorer{cfg: cfg, client: cfg.client()}
}

func (s *structuredScorer) Score(ctx context.Context, transcript *transcription.Result, question string) (*Outcome, error) {
	if s.cfg.apiKey == "" {
		return nil, errdefs.NewErrConfiguration("scoring API key is not set")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: structuredSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: structuredUserPrompt(question, FormatTranscript(transcript))},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: json.RawMessage(draftSchemaJSON),
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, errdefs.NewErrUpstream(providerStructured, err)
	}

	if len(resp.Choices) == 0 {
		return nil, errdefs.NewErrValidation(providerStructured, errors.New("response has no choices"))
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, errdefs.NewErrValidation(providerStructured, fmt.Errorf("model refused: %s", msg.Refusal))
	}

	draft, err := ParseDraft([]byte(msg.Content))
	if err != nil {
		return nil, errdefs.NewErrValidation(providerStructured, err)
	}
	return &Outcome{Draft: draft}, nil
}

// ParseDraft validates raw model output against the report schema and decodes it.
func ParseDraft(raw []byte) (*report.Draft, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w", err)
	}
	if err := draftSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var draft report.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return &draft, nil
}
