package report

import (
	"fmt"
	"strings"
)

const previewLength = 100

// RenderMarkdown renders the companion narrative of a structured report.
// The output depends only on the report fields.
func RenderMarkdown(r ScoreReport) string {
	var b strings.Builder

	b.WriteString("# TOEFL Speaking Report\n\n")
	fmt.Fprintf(&b, "**Total score:** %d/%d (%s)\n\n", r.TotalScore, MaxTotalScore, r.Level)

	b.WriteString("| Dimension | Score | Comment |\n")
	b.WriteString("|---|---|---|\n")
	fmt.Fprintf(&b, "| Delivery | %d/%d | %s |\n", r.DeliveryScore, MaxSubScore, tableCell(r.DeliveryComment))
	fmt.Fprintf(&b, "| Language Use | %d/%d | %s |\n", r.LanguageScore, MaxSubScore, tableCell(r.LanguageComment))
	fmt.Fprintf(&b, "| Topic Development | %d/%d | %s |\n\n", r.TopicScore, MaxSubScore, tableCell(r.TopicComment))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(r.OverallSummary))

	if len(r.SentenceAnalyses) > 0 {
		b.WriteString("## Sentence Analysis\n\n")
		for i, s := range r.SentenceAnalyses {
			fmt.Fprintf(&b, "### %d. [%s-%s] %s\n\n", i+1, timestamp(s.StartTime), timestamp(s.EndTime), s.Evaluation)
			fmt.Fprintf(&b, "> %s\n\n", strings.TrimSpace(s.OriginalText))
			if s.NativeVersion != nil && strings.TrimSpace(*s.NativeVersion) != "" {
				fmt.Fprintf(&b, "- Native version: %s\n", strings.TrimSpace(*s.NativeVersion))
			}
			fmt.Fprintf(&b, "- Grammar: %s\n", strings.TrimSpace(s.GrammarFeedback))
			fmt.Fprintf(&b, "- Expression: %s\n", strings.TrimSpace(s.ExpressionFeedback))
			fmt.Fprintf(&b, "- Suggestion: %s\n\n", strings.TrimSpace(s.SuggestionFeedback))
		}
	}

	if len(r.ActionableTips) > 0 {
		b.WriteString("## Actionable Tips\n\n")
		for i, tip := range r.ActionableTips {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(tip))
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// MockNarrative is the deterministic legacy report used when no remote scorer is configured.
// It embeds the full transcript so a reader can trace which recording produced it.
func MockNarrative(transcript, question string) string {
	var b strings.Builder

	b.WriteString("# TOEFL Speaking 分析报告 (Mock)\n\n")
	b.WriteString("## 题目\n\n")
	if q := preview(question); q != "" {
		fmt.Fprintf(&b, "%s\n\n", q)
	} else {
		b.WriteString("(无题目信息)\n\n")
	}
	fmt.Fprintf(&b, "## 转录预览\n\n%s\n\n", preview(transcript))
	b.WriteString("## 转录全文\n\n")
	fmt.Fprintf(&b, "%s\n\n", transcript)
	b.WriteString("## 整体评分\n\n")
	b.WriteString("- Delivery: 3/4\n")
	b.WriteString("- Language Use: 3/4\n")
	b.WriteString("- Topic Development: 3/4\n\n")
	b.WriteString("## 整体评价\n\n")
	b.WriteString("这是开发环境生成的模拟报告，未调用任何评分服务。\n")

	return b.String()
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength]) + "..."
}

func tableCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// timestamp renders seconds as mm:ss.cc.
func timestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	centis := int64(sec*100 + 0.5)
	m := centis / 6000
	s := (centis % 6000) / 100
	c := centis % 100
	return fmt.Sprintf("%02d:%02d.%02d", m, s, c)
}
