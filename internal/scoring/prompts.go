package scoring

import "fmt"

const structuredSystemPrompt = `
You are an expert TOEFL Speaking rater. Analyze the student's response.

**Inputs provided:**
1. Question Topic
2. Transcript with timestamps

**Your Task:**
1. Use Chinese for all comments and summaries.
2. Rate 3 dimensions (Delivery, Language, Topic) on a scale of 0-10.
3. Provide a brief summary.
4. Go through the transcript sentence-by-sentence.
   - For "evaluation", use exactly "优秀" for good sentences, or "可改进" / "需修正" for issues.
   - Provide specific feedback for Grammar, Expression, and Suggestions.
   - If improvement is needed, provide a "native_version".
   - IMPORTANT: Use the provided timestamps for start_time/end_time.
5. Give exactly 3 actionable tips.

**Output Format:**
Return ONLY valid JSON matching the schema.
`

func narrativeSystemPrompt(question string) string {
	return fmt.Sprintf(`托福口语评分专家，分析录音并评分。

问题：%s

评分标准（各0-4分，TOEFL官方标准）：
1. Delivery: 发音、流利度、语调
2. Language Use: 语法、词汇、句式
3. Topic Development: 内容相关性、逻辑

输出格式（中文markdown）：

## 整体评分
- Delivery: X/4
- Language Use: X/4
- Topic Development: X/4

## 整体评价
2-3句总结

## 详细分析
具体分析`, question)
}

func structuredUserPrompt(question, transcript string) string {
	return fmt.Sprintf("Question: %s\n\nTranscript:\n%s", question, transcript)
}
