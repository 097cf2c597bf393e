// Package transcription converts recorded audio into timestamped text.
package transcription

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/speakwell/analysis-pipeline/internal/errdefs"
)

const (
	DefaultFilename = "audio.mp3"
	// maxAudioBytes bounds the download of a single recording.
	maxAudioBytes = 64 << 20
)

// Segment is a span of the recording with its text. Times are in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Provider is a pluggable speech-to-text backend.
type Provider interface {
	TranscribeBytes(ctx context.Context, audio []byte, filename string) (*Result, error)
	TranscribeURL(ctx context.Context, audioURL string) (*Result, error)
}

// BytesTranscriber is the part of a Provider FromURL delegates to.
type BytesTranscriber interface {
	TranscribeBytes(ctx context.Context, audio []byte, filename string) (*Result, error)
}

// FromURL downloads the audio behind audioURL and hands it to t.
// It is the default TranscribeURL behaviour of the hosted providers.
func FromURL(ctx context.Context, client *http.Client, t BytesTranscriber, audioURL string) (*Result, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building audio request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errdefs.NewErrUpstream("audio download", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errdefs.NewErrUpstream("audio download", fmt.Errorf("unexpected status %s", resp.Status))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, errdefs.NewErrUpstream("audio download", err)
	}
	if len(audio) > maxAudioBytes {
		return nil, errdefs.NewErrUpstream("audio download", fmt.Errorf("audio exceeds %d bytes", maxAudioBytes))
	}

	return t.TranscribeBytes(ctx, audio, filenameFromURL(audioURL))
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return DefaultFilename
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || !strings.Contains(name, ".") {
		return DefaultFilename
	}
	return name
}
