package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"
	"time"

	"completion-sync/internal/config"
	"completion-sync/internal/domain"
	"completion-sync/internal/export"
	"completion-sync/internal/pipeline"
	"completion-sync/internal/sftpclient"
	"completion-sync/internal/sink"
)

func main() {
	var (
		rosterPath   = flag.String("roster", "", "roster file (xlsx/xls/csv)")
		cgPath       = flag.String("cg", "", "Digital Literacy course export")
		pythonPath   = flag.String("python", "", "Python course export")
		analysisPath = flag.String("analysis", "", "Data Analysis course export")
		outPath      = flag.String("out", "consolidated_course_data.csv", "output csv path")
		compress     = flag.Bool("compress", false, "also write a brotli-compressed copy")
		uploadSFTP   = flag.Bool("sftp", false, "upload the generated CSV via SFTP")
		storeSQLite  = flag.Bool("store", false, "upsert the consolidated table into the local SQLite store")
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
		outPath:      *outPath,
		compress:     *compress,
		uploadSFTP:   *uploadSFTP,
		storeSQLite:  *storeSQLite,
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
	outPath      string
	compress     bool
	uploadSFTP   bool
	storeSQLite  bool
	allowMissing bool
}

func run(opts runOptions) error {
	cfg := config.Load()

	courses := domain.DefaultCourses()
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

	if err := export.WriteConsolidatedFile(opts.outPath, out.Courses, out.Consolidated); err != nil {
		return err
	}
	log.Printf("wrote %d records to %s", len(out.Consolidated), opts.outPath)

	if opts.compress {
		brPath := opts.outPath + ".br"
		if err := export.CompressFile(opts.outPath, brPath); err != nil {
			return err
		}
		log.Printf("wrote compressed copy to %s", brPath)
	}

	if opts.storeSQLite {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		store, err := sink.OpenSQLite(ctx, cfg.SQLitePath, cfg.BatchSize, sink.RetryPolicy{
			Attempts:  cfg.RetryAttempts,
			BaseDelay: cfg.RetryBaseDelay,
		})
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx, out.Courses); err != nil {
			return err
		}
		if err := store.UpsertConsolidated(ctx, out.Courses, out.Consolidated); err != nil {
			return err
		}
		log.Printf("stored consolidated table in %s", cfg.SQLitePath)
	}

	if opts.uploadSFTP {
		upCtx, upCancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer upCancel()

		upCfg := sftpclient.Config{
			Host:                  cfg.SFTPHost,
			Port:                  cfg.SFTPPort,
			User:                  cfg.SFTPUser,
			Pass:                  cfg.SFTPPass,
			RemoteDir:             cfg.SFTPDir,
			InsecureIgnoreHostKey: cfg.SFTPInsecureIgnoreHostKey,
		}
		remoteName := filepath.Base(opts.outPath)
		if err := sftpclient.UploadFile(upCtx, upCfg, opts.outPath, remoteName); err != nil {
			return err
		}
		log.Printf("uploaded to sftp://%s:%d%s/%s", upCfg.Host, upCfg.Port, upCfg.RemoteDir, remoteName)
	}

	return nil
}
