package report_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/speakwell/analysis-pipeline/internal/report"
)

func newDraft(delivery, language, topic int) report.Draft {
	native := "I completely agree with this statement."
	return report.Draft{
		DeliveryScore:   delivery,
		DeliveryComment: "发音清晰",
		LanguageScore:   language,
		LanguageComment: "语法准确",
		TopicScore:      topic,
		TopicComment:    "观点明确 | 展开充分",
		OverallSummary:  "整体表现良好。",
		SentenceAnalyses: []report.SentenceAnalysis{
			{
				OriginalText:       "I agree with this statement.",
				Evaluation:         report.EvaluationImprovable,
				NativeVersion:      &native,
				GrammarFeedback:    "无语法错误",
				ExpressionFeedback: "可以更有力",
				SuggestionFeedback: "加强语气",
				StartTime:          0,
				EndTime:            2,
			},
		},
		ActionableTips: []string{"tip one", "tip two", "tip three"},
	}
}

var _ = Describe("level", func() {
	DescribeTable("band boundaries",
		func(total int, expected report.Level) {
			Expect(report.LevelFor(total)).To(Equal(expected))
		},
		Entry("30 is excellent", 30, report.LevelExcellent),
		Entry("26 is excellent", 26, report.LevelExcellent),
		Entry("25 is good", 25, report.LevelGood),
		Entry("18 is good", 18, report.LevelGood),
		Entry("17 is fair", 17, report.LevelFair),
		Entry("14 is fair", 14, report.LevelFair),
		Entry("13 is weak", 13, report.LevelWeak),
		Entry("3 is weak", 3, report.LevelWeak),
		Entry("0 is weak", 0, report.LevelWeak),
	)

	It("never maps a total of 26 or more to anything but excellent", func() {
		for total := 26; total <= report.MaxTotalScore; total++ {
			Expect(report.LevelFor(total)).To(Equal(report.LevelExcellent))
		}
		for total := 0; total < 26; total++ {
			Expect(report.LevelFor(total)).ToNot(Equal(report.LevelExcellent))
		}
	})
})

var _ = Describe("assembler", func() {
	Context("structured draft", func() {
		It("computes total and level", func() {
			draft := newDraft(7, 8, 8)
			out, err := report.Assemble(report.Input{Draft: &draft})
			Expect(err).To(BeNil())
			Expect(out.Structured).ToNot(BeNil())
			Expect(out.Structured.TotalScore).To(Equal(23))
			Expect(out.Structured.Level).To(Equal(report.LevelGood))
			Expect(out.Narrative).ToNot(BeNil())
			Expect(*out.Narrative).To(ContainSubstring("**Total score:** 23/30 (Good)"))
			Expect(*out.Narrative).To(ContainSubstring("[00:00.00-00:02.00] 可改进"))
			Expect(*out.Narrative).To(ContainSubstring(`观点明确 \| 展开充分`))
		})

		It("keeps the total within [0,30]", func() {
			for _, scores := range [][3]int{{0, 0, 0}, {10, 10, 10}, {5, 0, 10}} {
				draft := newDraft(scores[0], scores[1], scores[2])
				out, err := report.Assemble(report.Input{Draft: &draft})
				Expect(err).To(BeNil())
				Expect(out.Structured.TotalScore).To(Equal(scores[0] + scores[1] + scores[2]))
				Expect(out.Structured.TotalScore).To(BeNumerically(">=", 0))
				Expect(out.Structured.TotalScore).To(BeNumerically("<=", report.MaxTotalScore))
			}
		})

		It("is idempotent", func() {
			draft := newDraft(9, 9, 8)
			first, err := report.Assemble(report.Input{Draft: &draft})
			Expect(err).To(BeNil())
			second, err := report.Assemble(report.Input{Draft: &draft})
			Expect(err).To(BeNil())

			Expect(second.Structured.TotalScore).To(Equal(first.Structured.TotalScore))
			Expect(second.Structured.Level).To(Equal(first.Structured.Level))
			Expect(*second.Narrative).To(Equal(*first.Narrative))
		})

		It("does not share slices with the draft", func() {
			draft := newDraft(5, 5, 5)
			out, err := report.Assemble(report.Input{Draft: &draft})
			Expect(err).To(BeNil())

			draft.ActionableTips[0] = "changed"
			*draft.SentenceAnalyses[0].NativeVersion = "changed"
			Expect(out.Structured.ActionableTips[0]).To(Equal("tip one"))
			Expect(*out.Structured.SentenceAnalyses[0].NativeVersion).To(Equal("I completely agree with this statement."))
		})
	})

	Context("narrative", func() {
		It("keeps the narrative verbatim and leaves the structured report empty", func() {
			narrative := "## 整体评分\n- Delivery: 3/4\n"
			out, err := report.Assemble(report.Input{Narrative: &narrative})
			Expect(err).To(BeNil())
			Expect(out.Structured).To(BeNil())
			Expect(*out.Narrative).To(Equal(narrative))
		})

		It("mock narrative embeds the transcript and a question preview", func() {
			question := strings.Repeat("Do you agree or disagree? ", 10)
			md := report.MockNarrative("I agree with this statement.", question)
			Expect(md).To(ContainSubstring("I agree with this statement."))
			Expect(md).To(ContainSubstring("Do you agree or disagree?"))
			Expect(md).To(ContainSubstring("..."))
			Expect(report.MockNarrative("I agree with this statement.", question)).To(Equal(md))
		})
	})

	Context("invalid input", func() {
		It("rejects an empty input", func() {
			_, err := report.Assemble(report.Input{})
			Expect(err).To(MatchError(report.ErrEmptyInput))
		})

		It("rejects an input carrying both shapes", func() {
			draft := newDraft(1, 1, 1)
			narrative := "text"
			_, err := report.Assemble(report.Input{Draft: &draft, Narrative: &narrative})
			Expect(err).To(MatchError(report.ErrAmbiguousInput))
		})
	})
})

var _ = Describe("draft validation", func() {
	It("accepts a well formed draft", func() {
		Expect(newDraft(0, 10, 5).Validate()).To(Succeed())
	})

	It("rejects out of range scores", func() {
		err := newDraft(11, 5, -1).Validate()
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("delivery_score 11"))
		Expect(err.Error()).To(ContainSubstring("topic_score -1"))
	})

	It("rejects unknown evaluation labels and inverted spans", func() {
		draft := newDraft(5, 5, 5)
		draft.SentenceAnalyses[0].Evaluation = "great"
		draft.SentenceAnalyses[0].StartTime = 3
		err := draft.Validate()
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring(`unknown evaluation "great"`))
		Expect(err.Error()).To(ContainSubstring("end_time 2.00 before start_time 3.00"))
	})
})
