package transcription_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/speakwell/analysis-pipeline/internal/errdefs"
	"github.com/speakwell/analysis-pipeline/internal/transcription"
)

const verboseResponse = `{
  "task": "transcribe",
  "language": "english",
  "duration": 4.5,
  "text": " I agree with this statement. It helps students.",
  "segments": [
    {"id": 1, "seek": 0, "start": 2.0, "end": 4.5, "text": " It helps students."},
    {"id": 0, "seek": 0, "start": 0.0, "end": 2.2, "text": " I agree with this statement."}
  ]
}`

var _ = Describe("whisper provider", func() {
	var (
		server       *httptest.Server
		audioServer  *httptest.Server
		receivedAuth atomic.Value
		receivedFile atomic.Value
		statusCode   int
	)

	BeforeEach(func() {
		statusCode = http.StatusOK
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/audio/transcriptions"))
			receivedAuth.Store(r.Header.Get("Authorization"))

			Expect(r.ParseMultipartForm(1 << 20)).To(Succeed())
			Expect(r.FormValue("response_format")).To(Equal("verbose_json"))
			_, header, err := r.FormFile("file")
			Expect(err).To(BeNil())
			receivedFile.Store(header.Filename)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statusCode)
			if statusCode != http.StatusOK {
				_, _ = io.WriteString(w, `{"error": {"message": "boom", "type": "server_error"}}`)
				return
			}
			_, _ = io.WriteString(w, verboseResponse)
		}))

		audioServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing.mp3" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte("ID3-fake-audio"))
		}))
	})

	AfterEach(func() {
		server.Close()
		audioServer.Close()
	})

	newProvider := func(apiKey string) transcription.Provider {
		return transcription.NewWhisperProvider(
			transcription.WithAPIKey(apiKey),
			transcription.WithBaseURL(server.URL+"/v1"),
			transcription.WithHTTPClient(server.Client()),
		)
	}

	It("returns ordered, non-overlapping segments", func() {
		res, err := newProvider("sk-test").TranscribeBytes(context.TODO(), []byte("audio"), "answer.mp3")
		Expect(err).To(BeNil())
		Expect(receivedAuth.Load()).To(Equal("Bearer sk-test"))
		Expect(receivedFile.Load()).To(Equal("answer.mp3"))

		Expect(res.Text).To(Equal("I agree with this statement. It helps students."))
		Expect(res.Segments).To(HaveLen(2))
		Expect(res.Segments[0]).To(Equal(transcription.Segment{Start: 0, End: 2.2, Text: "I agree with this statement."}))
		Expect(res.Segments[1].Start).To(BeNumerically("==", 2.2))
		Expect(res.Segments[1].End).To(BeNumerically("==", 4.5))
	})

	It("downloads the audio when given a url", func() {
		res, err := newProvider("sk-test").TranscribeURL(context.TODO(), audioServer.URL+"/recordings/42.webm?X-Amz-Signature=abc")
		Expect(err).To(BeNil())
		Expect(res.Segments).To(HaveLen(2))
		Expect(receivedFile.Load()).To(Equal("42.webm"))
	})

	It("fails with a configuration error without an api key", func() {
		_, err := newProvider("").TranscribeBytes(context.TODO(), []byte("audio"), "")
		Expect(errdefs.IsConfiguration(err)).To(BeTrue())

		_, err = newProvider("").TranscribeURL(context.TODO(), audioServer.URL+"/a.mp3")
		Expect(errdefs.IsConfiguration(err)).To(BeTrue())
	})

	It("fails with an upstream error on a non-success status", func() {
		statusCode = http.StatusInternalServerError
		_, err := newProvider("sk-test").TranscribeBytes(context.TODO(), []byte("audio"), "a.mp3")
		Expect(err).ToNot(BeNil())
		Expect(errdefs.IsUpstream(err)).To(BeTrue())
	})

	It("fails with an upstream error when the audio cannot be fetched", func() {
		_, err := newProvider("sk-test").TranscribeURL(context.TODO(), audioServer.URL+"/missing.mp3")
		Expect(errdefs.IsUpstream(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring(fmt.Sprint(http.StatusForbidden)))
	})
})

var _ = Describe("placeholder provider", func() {
	It("returns the canned transcript without network access", func() {
		p := transcription.NewPlaceholderProvider()
		res, err := p.TranscribeURL(context.TODO(), "http://127.0.0.1:1/unreachable.mp3")
		Expect(err).To(BeNil())
		Expect(res.Text).To(Equal(transcription.PlaceholderTranscript))
		Expect(res.Segments).To(HaveLen(1))
		Expect(res.Segments[0].Start).To(BeZero())
		Expect(res.Segments[0].End).To(BeNumerically(">", 0))
	})
})
