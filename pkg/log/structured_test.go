package log_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/speakwell/analysis-pipeline/pkg/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ = Describe("structured logger", func() {
	var (
		logs    *observer.ObservedLogs
		restore func()
	)

	BeforeEach(func() {
		core, observed := observer.New(zapcore.DebugLevel)
		logs = observed
		restore = zap.ReplaceGlobals(zap.New(core))
	})

	AfterEach(func() {
		restore()
	})

	It("writes one record per step with the operation fields", func() {
		ctx := log.WithCorrelationID(context.TODO(), "corr-1")
		tracer := log.NewDebugLogger("analysis_service").WithContext(ctx).
			Operation("run_analysis").
			WithUint("task_id", 7).
			Build()

		tracer.Step("claimed").Log()
		tracer.Success().WithString("variant", "structured").Log()

		entries := logs.All()
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].LoggerName).To(Equal("analysis_service"))
		Expect(entries[0].Level).To(Equal(zapcore.DebugLevel))
		Expect(entries[0].ContextMap()).To(HaveKeyWithValue("step", "claimed"))
		Expect(entries[0].ContextMap()).To(HaveKeyWithValue("correlation_id", "corr-1"))
		Expect(entries[0].ContextMap()).To(HaveKeyWithValue("task_id", uint64(7)))
		Expect(entries[1].Level).To(Equal(zapcore.InfoLevel))
		Expect(entries[1].ContextMap()).To(HaveKeyWithValue("variant", "structured"))
	})

	It("logs errors at error level", func() {
		tracer := log.NewDebugLogger("worker").WithContext(context.TODO()).Operation("work").Build()
		tracer.Error(errors.New("boom")).Log()

		entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].ContextMap()).To(HaveKeyWithValue("error", "boom"))
		Expect(entries[0].ContextMap()).NotTo(HaveKey("correlation_id"))
	})

	It("falls back to info for an unknown level", func() {
		Expect(log.ParseLevel("nope").Level()).To(Equal(zapcore.InfoLevel))
		Expect(log.ParseLevel("debug").Level()).To(Equal(zapcore.DebugLevel))
	})
})
