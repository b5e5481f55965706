package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"completion-sync/internal/domain"
)

// SQLite is the single-wide-table store: the whole consolidated row lives in
// one local table, the spreadsheet-style variant of the sink.
type SQLite struct {
	db        *sql.DB
	batchSize int
	retry     RetryPolicy
}

func OpenSQLite(ctx context.Context, path string, batchSize int, retry RetryPolicy) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, wrap("open sqlite", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrap("ping sqlite", err)
	}
	return &SQLite{db: db, batchSize: batchSize, retry: retry}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// EnsureSchema creates the wide table with one percentage column per course.
func (s *SQLite) EnsureSchema(ctx context.Context, courses []domain.Course) error {
	cols := []string{
		"email TEXT PRIMARY KEY",
		"full_name TEXT",
		"campus TEXT",
		"faculty TEXT",
		"program TEXT",
		"program_version TEXT",
		"study_group TEXT",
		"year TEXT",
	}
	for _, c := range courses {
		cols = append(cols, percentColumn(c)+" REAL")
	}
	query := "CREATE TABLE IF NOT EXISTS consolidated (" + strings.Join(cols, ", ") + ")"
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return wrap("ensure schema", err)
	}
	return nil
}

// UpsertConsolidated writes whole consolidated rows in batches with the same
// preserve-on-null semantics as the split-tables store.
func (s *SQLite) UpsertConsolidated(ctx context.Context, courses []domain.Course, recs []domain.ConsolidatedRecord) error {
	if len(recs) == 0 {
		return nil
	}

	cols := wideColumns(courses)
	ranges := batches(len(recs), s.batchSize)
	for i, br := range ranges {
		batch := recs[br[0]:br[1]]
		query := wideUpsertSQL(courses, len(batch))
		args := make([]any, 0, len(batch)*len(cols))
		for _, r := range batch {
			args = append(args,
				r.Email,
				nullString(r.FullName),
				nullString(r.Campus),
				nullString(r.Faculty),
				nullString(r.Program),
				nullString(r.ProgramVersion),
				nullString(r.Group),
				nullString(r.Year),
			)
			for _, c := range courses {
				args = append(args, nullPercent(r.Completion[c.ID]))
			}
		}
		err := s.retry.Do(ctx, func() error {
			_, execErr := s.db.ExecContext(ctx, query, args...)
			return wrap("upsert consolidated", execErr)
		})
		if err != nil {
			return err
		}
		log.Printf("sink: consolidated batch %d/%d: %d records", i+1, len(ranges), len(batch))
	}
	return nil
}

func percentColumn(c domain.Course) string {
	return "percent_" + c.ID
}

func wideColumns(courses []domain.Course) []string {
	cols := []string{
		"email", "full_name", "campus", "faculty", "program", "program_version", "study_group", "year",
	}
	for _, c := range courses {
		cols = append(cols, percentColumn(c))
	}
	return cols
}

func wideUpsertSQL(courses []domain.Course, rows int) string {
	cols := wideColumns(courses)

	var b strings.Builder
	b.WriteString("INSERT INTO consolidated (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?" + strings.Repeat(", ?", len(cols)-1) + ")")
	}
	b.WriteString(" ON CONFLICT (email) DO UPDATE SET ")
	sets := make([]string, 0, len(cols)-1)
	for _, col := range cols[1:] {
		sets = append(sets, fmt.Sprintf("%s = COALESCE(excluded.%s, %s)", col, col, col))
	}
	b.WriteString(strings.Join(sets, ", "))
	return b.String()
}
