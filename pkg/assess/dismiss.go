package assess

// ScoreSnapshot captures the scores in force after a dismissal. The
// assessment object itself keeps its identity; only the snapshot values and
// the dismissal set change.
type ScoreSnapshot struct {
	OverallScore      int    `json:"overall_score"`
	CompletenessScore int    `json:"completeness_score"`
	QualityScore      int    `json:"quality_score"`
	Grade             string `json:"grade"`
}

// Snapshot returns the current scores.
func (r *AssessmentResult) Snapshot() ScoreSnapshot {
	return ScoreSnapshot{
		OverallScore:      r.OverallScore,
		CompletenessScore: r.CompletenessScore,
		QualityScore:      r.QualityScore,
		Grade:             r.Grade,
	}
}

// Dismiss excludes the given findings from the quality score and returns the
// recomputed snapshot. The dismissal set only grows: dismissing an already
// dismissed or unknown ID is a no-op, so the call is idempotent. The
// completeness score is never affected.
func (r *AssessmentResult) Dismiss(findingIDs ...string) ScoreSnapshot {
	if r.Dismissed == nil {
		r.Dismissed = make(map[string]bool)
	}
	known := make(map[string]bool, len(r.Findings))
	for _, f := range r.Findings {
		known[f.ID] = true
	}
	for _, id := range findingIDs {
		if known[id] {
			r.Dismissed[id] = true
		}
	}
	recompute(r)
	return r.Snapshot()
}
