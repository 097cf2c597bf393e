package transcription

import (
	"context"
	"strings"
)

// PlaceholderTranscript is returned when no transcription credential is configured.
const PlaceholderTranscript = "[Mock Transcript] I believe taking a gap year is beneficial for students. " +
	"It allows them to gain real-world experience and achieve financial independence. " +
	"Additionally, they can gain career clarity before committing to a specific field of study. " +
	"So, I agree with this statement."

type placeholderProvider struct{}

// NewPlaceholderProvider returns a provider that never touches the network.
func NewPlaceholderProvider() Provider {
	return &placeholderProvider{}
}

func (p *placeholderProvider) TranscribeBytes(_ context.Context, _ []byte, _ string) (*Result, error) {
	return placeholderResult(), nil
}

func (p *placeholderProvider) TranscribeURL(_ context.Context, _ string) (*Result, error) {
	return placeholderResult(), nil
}

func placeholderResult() *Result {
	return &Result{
		Text: PlaceholderTranscript,
		Segments: []Segment{
			{Start: 0, End: float64(len(strings.Fields(PlaceholderTranscript))) * 0.4, Text: PlaceholderTranscript},
		},
	}
}
