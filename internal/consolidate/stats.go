package consolidate

import "completion-sync/internal/domain"

// CourseStats is the per-course completion summary printed after a run.
// Only known percentages participate; unknown values are not zeros.
type CourseStats struct {
	Course   domain.Course
	WithData int
	Average  float64
	Full     int // students at exactly 100
	Zero     int // students at exactly 0
}

// Stats computes the summary for every tracked course.
func Stats(courses []domain.Course, recs []domain.ConsolidatedRecord) []CourseStats {
	out := make([]CourseStats, 0, len(courses))
	for _, c := range courses {
		s := CourseStats{Course: c}
		sum := 0.0
		for _, r := range recs {
			p := r.Completion[c.ID]
			if !p.Known {
				continue
			}
			s.WithData++
			sum += p.Value
			switch p.Value {
			case 100:
				s.Full++
			case 0:
				s.Zero++
			}
		}
		if s.WithData > 0 {
			s.Average = sum / float64(s.WithData)
		}
		out = append(out, s)
	}
	return out
}
