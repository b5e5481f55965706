// Package pipeline wires the stages together: load roster, extract one
// completion set per course, consolidate. Entirely synchronous; each run
// recomputes everything from the input files.
package pipeline

import (
	"errors"
	"fmt"
	"log"

	"completion-sync/internal/completion"
	"completion-sync/internal/consolidate"
	"completion-sync/internal/domain"
	"completion-sync/internal/roster"
	"completion-sync/internal/tabular"
)

// CourseInput pairs a tracked course with its export file. Courses without a
// path are skipped (they stay unknown in the output).
type CourseInput struct {
	Course domain.Course
	Path   string
}

type Options struct {
	RosterPath   string
	Courses      []CourseInput
	DomainMarker string

	// AllowMissing substitutes an all-unknown course column when extraction
	// finds no completion signal, instead of failing the run.
	AllowMissing bool
}

type Output struct {
	Courses      []domain.Course
	Roster       []domain.RosterRecord
	ByCourse     map[string][]domain.CompletionRecord
	Consolidated []domain.ConsolidatedRecord
	Report       consolidate.Report
	Stats        []consolidate.CourseStats
}

// Run executes the full pipeline and fails fast on the first unusable input
// file unless AllowMissing downgrades extraction failures.
func Run(opts Options) (*Output, error) {
	log.Printf("loading roster from %s", opts.RosterPath)
	rosterTable, err := tabular.Load(opts.RosterPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: roster: %w", err)
	}
	rosterRecs := roster.Load(rosterTable, opts.DomainMarker)
	log.Printf("loaded %d roster records", len(rosterRecs))

	courses := make([]domain.Course, 0, len(opts.Courses))
	byCourse := make(map[string][]domain.CompletionRecord, len(opts.Courses))
	for _, in := range opts.Courses {
		courses = append(courses, in.Course)
		if in.Path == "" {
			continue
		}

		table, err := tabular.Load(in.Path)
		if err != nil {
			return nil, fmt.Errorf("pipeline: course %s: %w", in.Course.Name, err)
		}
		res, err := completion.Extract(table, in.Course, opts.DomainMarker)
		if err != nil {
			if opts.AllowMissing && (errors.Is(err, completion.ErrNoSignal) || errors.Is(err, completion.ErrNoEmailColumn)) {
				log.Printf("WARN: course %s: %v (continuing with unknown values)", in.Course.Name, err)
				continue
			}
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		byCourse[in.Course.ID] = res.Records
		log.Printf("course %s: %d records via %s strategy (%d candidate columns, %d excluded)",
			in.Course.Name, len(res.Records), res.Strategy, res.Candidates, res.Excluded)
	}

	consolidated, report := consolidate.Consolidate(rosterRecs, courses, byCourse)
	if report.Duplicates > 0 {
		log.Printf("WARN: %d duplicate emails collapsed (first occurrence kept), e.g. %v",
			report.Duplicates, report.Samples)
	}
	log.Printf("consolidated %d records", report.Total)

	return &Output{
		Courses:      courses,
		Roster:       rosterRecs,
		ByCourse:     byCourse,
		Consolidated: consolidated,
		Report:       report,
		Stats:        consolidate.Stats(courses, consolidated),
	}, nil
}

// LogStats prints the per-course completion summary the way the legacy
// pipeline did after every run.
func LogStats(stats []consolidate.CourseStats) {
	for _, s := range stats {
		log.Printf("course %s: %d students with data, average %.2f%%, 100%%: %d, 0%%: %d",
			s.Course.Name, s.WithData, s.Average, s.Full, s.Zero)
	}
}
