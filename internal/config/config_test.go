package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/speakwell/analysis-pipeline/internal/config"
)

var _ = Describe("config", func() {
	Context("Validate", func() {
		It("accepts the defaults", func() {
			Expect(config.NewDefault().Validate()).To(Succeed())
		})

		It("rejects an unknown database type", func() {
			cfg := config.NewDefault()
			cfg.Database.Type = "mysql"
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("Type")))
		})

		It("rejects an empty worker pool", func() {
			cfg := config.NewDefault()
			cfg.Queue.MaxWorkers = 0
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("MaxWorkers")))
		})

		It("rejects a visibility timeout shorter than the job timeout", func() {
			cfg := config.NewDefault()
			cfg.Queue.JobTimeout = 10 * time.Minute
			cfg.Queue.RescueAfter = 5 * time.Minute
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("RescueAfter")))
		})

		It("rejects a presign expiry above seven days", func() {
			cfg := config.NewDefault()
			cfg.S3.PresignExpiry = 8 * 24 * time.Hour
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("PresignExpiry")))
		})
	})

	Context("String", func() {
		It("redacts secrets", func() {
			cfg := config.NewDefault()
			cfg.S3.SecretKey = "minio-secret"
			cfg.Providers.OpenAIAPIKey = "sk-test"

			out := cfg.String()
			Expect(out).NotTo(ContainSubstring("minio-secret"))
			Expect(out).NotTo(ContainSubstring("sk-test"))
			Expect(out).To(ContainSubstring("*****"))
			Expect(cfg.S3.SecretKey).To(Equal("minio-secret"))
		})
	})

	Context("LoadProviders", func() {
		It("reads credentials from the environment on every call", func() {
			GinkgoT().Setenv("OPENAI_API_KEY", "")
			p, err := config.LoadProviders()
			Expect(err).To(BeNil())
			Expect(p.OpenAIAPIKey).To(BeEmpty())

			GinkgoT().Setenv("OPENAI_API_KEY", "sk-later")
			p, err = config.LoadProviders()
			Expect(err).To(BeNil())
			Expect(p.OpenAIAPIKey).To(Equal("sk-later"))
			Expect(p.TranscriptionModel).To(Equal("whisper-1"))
		})
	})
})
