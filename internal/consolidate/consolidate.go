// Package consolidate left-joins the roster against each course's completion
// output and enforces one row per unique email.
package consolidate

import (
	"completion-sync/internal/domain"
)

// duplicateSampleLimit caps how many colliding emails the report lists.
const duplicateSampleLimit = 5

// Report surfaces duplicate-email collisions for the operator. Duplicates are
// collapsed (first occurrence wins), never treated as fatal.
type Report struct {
	Total      int // rows after deduplication
	Duplicates int // roster rows dropped as duplicate emails
	Samples    []string
}

// Consolidate joins roster records with per-course completion records by
// email. The join is strictly roster-driven: emails present only in course
// data never appear in the output. Missing course data stays unknown.
func Consolidate(rosterRecs []domain.RosterRecord, courses []domain.Course, byCourse map[string][]domain.CompletionRecord) ([]domain.ConsolidatedRecord, Report) {
	// First occurrence wins on the course side too: a duplicate email in an
	// export must not override the percentage already taken.
	percents := make(map[string]map[string]domain.Percent, len(courses))
	for _, c := range courses {
		m := make(map[string]domain.Percent)
		for _, rec := range byCourse[c.ID] {
			if _, ok := m[rec.Email]; !ok {
				m[rec.Email] = rec.Percent
			}
		}
		percents[c.ID] = m
	}

	seen := make(map[string]bool, len(rosterRecs))
	var (
		out    []domain.ConsolidatedRecord
		report Report
	)
	for _, r := range rosterRecs {
		if seen[r.Email] {
			report.Duplicates++
			if len(report.Samples) < duplicateSampleLimit {
				report.Samples = append(report.Samples, r.Email)
			}
			continue
		}
		seen[r.Email] = true

		rec := domain.ConsolidatedRecord{
			RosterRecord: r,
			Completion:   make(map[string]domain.Percent, len(courses)),
		}
		for _, c := range courses {
			rec.Completion[c.ID] = percents[c.ID][r.Email]
		}
		out = append(out, rec)
	}
	report.Total = len(out)
	return out, report
}
