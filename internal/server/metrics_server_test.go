package server_test

import (
	"context"
	"io"
	"net"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/speakwell/analysis-pipeline/internal/server"
)

var _ = Describe("metrics server", func() {
	It("serves /metrics until the context is cancelled", func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).To(BeNil())
		addr := listener.Addr().String()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- server.NewMetricServer(addr, listener).Run(ctx)
		}()

		resp, err := http.Get("http://" + addr + "/metrics")
		Expect(err).To(BeNil())
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		Expect(err).To(BeNil())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("speaking_analysis_claim_rejections_total"))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})
