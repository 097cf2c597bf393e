// Package report turns scoring provider output into the pair persisted on an analysis task.
// Everything in here is pure: no I/O, no clocks, no randomness.
package report

import "errors"

var (
	ErrEmptyInput     = errors.New("report input carries neither a draft nor a narrative")
	ErrAmbiguousInput = errors.New("report input carries both a draft and a narrative")
)

// Input is the scoring provider output. Exactly one field is set.
type Input struct {
	Draft     *Draft
	Narrative *string
}

// Assembled is written verbatim into the analysis task.
type Assembled struct {
	Structured *ScoreReport
	Narrative  *string
}

// Assemble normalizes either provider output shape into the persisted pair.
// A draft yields both fields; a narrative yields only the narrative.
func Assemble(in Input) (Assembled, error) {
	switch {
	case in.Draft != nil && in.Narrative != nil:
		return Assembled{}, ErrAmbiguousInput
	case in.Draft != nil:
		r := FromDraft(*in.Draft)
		md := RenderMarkdown(r)
		return Assembled{Structured: &r, Narrative: &md}, nil
	case in.Narrative != nil:
		narrative := *in.Narrative
		return Assembled{Narrative: &narrative}, nil
	default:
		return Assembled{}, ErrEmptyInput
	}
}

// FromDraft computes the derived fields. The draft's slices are copied.
func FromDraft(d Draft) ScoreReport {
	d.SentenceAnalyses = cloneAnalyses(d.SentenceAnalyses)
	d.ActionableTips = append([]string(nil), d.ActionableTips...)

	total := TotalScore(d)
	return ScoreReport{
		Draft:      d,
		TotalScore: total,
		Level:      LevelFor(total),
	}
}

func cloneAnalyses(in []SentenceAnalysis) []SentenceAnalysis {
	if in == nil {
		return nil
	}
	out := make([]SentenceAnalysis, len(in))
	for i, s := range in {
		if s.NativeVersion != nil {
			v := *s.NativeVersion
			s.NativeVersion = &v
		}
		out[i] = s
	}
	return out
}
