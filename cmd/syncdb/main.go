package main

import (
	"context"
	"flag"
	"log"
	"time"

	"completion-sync/internal/config"
	"completion-sync/internal/domain"
	"completion-sync/internal/pipeline"
	"completion-sync/internal/roster"
	"completion-sync/internal/sink"
	"completion-sync/internal/tabular"
)

func main() {
	var (
		rosterPath   = flag.String("roster", "", "roster file (xlsx/xls/csv)")
		cgPath       = flag.String("cg", "", "Digital Literacy course export")
		pythonPath   = flag.String("python", "", "Python course export")
		analysisPath = flag.String("analysis", "", "Data Analysis course export")
		withStudents = flag.Bool("with-students", false, "also refresh the students table")
		studentsOnly = flag.Bool("students-only", false, "refresh the students table and skip course uploads")
		allowMissing = flag.Bool("allow-missing", false, "keep going with unknown values when a course export has no completion signal")
	)
	flag.Parse()

	if *rosterPath == "" {
		log.Fatal("missing -roster")
	}

	start := time.Now()
	err := run(runOptions{
		rosterPath:   *rosterPath,
		coursePaths:  [3]string{*cgPath, *pythonPath, *analysisPath},
		withStudents: *withStudents || *studentsOnly,
		studentsOnly: *studentsOnly,
		allowMissing: *allowMissing,
	})
	log.Printf("Execution finished in %s", time.Since(start))
	if err != nil {
		log.Fatalf("Job failed: %v", err)
	}
}

type runOptions struct {
	rosterPath   string
	coursePaths  [3]string
	withStudents bool
	studentsOnly bool
	allowMissing bool
}

func run(opts runOptions) error {
	cfg := config.Load()
	if cfg.PostgresDSN == "" {
		log.Fatal("missing env POSTGRES_DSN")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	// Connect before touching any file: authentication problems must surface
	// before processing starts.
	store, err := sink.OpenPostgres(ctx, cfg.PostgresDSN, cfg.BatchSize, sink.RetryPolicy{
		Attempts:  cfg.RetryAttempts,
		BaseDelay: cfg.RetryBaseDelay,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	courses := domain.DefaultCourses()
	if err := store.EnsureSchema(ctx, courses); err != nil {
		return err
	}

	if opts.studentsOnly {
		table, err := tabular.Load(opts.rosterPath)
		if err != nil {
			return err
		}
		recs := roster.Load(table, cfg.DomainMarker)
		log.Printf("loaded %d roster records", len(recs))
		if err := store.UpsertRoster(ctx, recs); err != nil {
			return err
		}
		log.Printf("students table refreshed")
		return nil
	}

	inputs := make([]pipeline.CourseInput, len(courses))
	for i, c := range courses {
		inputs[i] = pipeline.CourseInput{Course: c, Path: opts.coursePaths[i]}
	}

	out, err := pipeline.Run(pipeline.Options{
		RosterPath:   opts.rosterPath,
		Courses:      inputs,
		DomainMarker: cfg.DomainMarker,
		AllowMissing: opts.allowMissing,
	})
	if err != nil {
		return err
	}
	pipeline.LogStats(out.Stats)

	if opts.withStudents {
		if err := store.UpsertRoster(ctx, out.Roster); err != nil {
			return err
		}
		log.Printf("students table refreshed")
	}

	for _, c := range out.Courses {
		recs := out.ByCourse[c.ID]
		if len(recs) == 0 {
			log.Printf("course %s: nothing to upload", c.Name)
			continue
		}
		if err := store.UpsertCompletions(ctx, c, recs); err != nil {
			return err
		}
		log.Printf("course %s: uploaded %d records", c.Name, len(recs))
	}

	return nil
}
