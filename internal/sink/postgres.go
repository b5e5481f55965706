package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/lib/pq"

	"completion-sync/internal/domain"
)

// Postgres is the split-tables store: one roster table keyed by email plus
// one narrow completion table per course.
type Postgres struct {
	db        *sql.DB
	batchSize int
	retry     RetryPolicy
}

// OpenPostgres connects and pings so authentication failures surface before
// any file is processed.
func OpenPostgres(ctx context.Context, dsn string, batchSize int, retry RetryPolicy) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, wrap("open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrap("ping postgres", err)
	}
	return &Postgres{db: db, batchSize: batchSize, retry: retry}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// EnsureSchema creates the students table and one table per tracked course.
func (p *Postgres) EnsureSchema(ctx context.Context, courses []domain.Course) error {
	stmts := []string{`
		CREATE TABLE IF NOT EXISTS students (
			email TEXT PRIMARY KEY,
			full_name TEXT,
			campus TEXT,
			faculty TEXT,
			program TEXT,
			program_version TEXT,
			study_group TEXT,
			year TEXT
		)`}
	for _, c := range courses {
		stmts = append(stmts, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			email TEXT PRIMARY KEY,
			completion_percent DOUBLE PRECISION
		)`, c.Table))
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return wrap("ensure schema", err)
		}
	}
	return nil
}

var studentColumns = []string{
	"email", "full_name", "campus", "faculty", "program", "program_version", "study_group", "year",
}

// UpsertRoster writes roster records in batches. Blank fields go in as NULL
// and never overwrite stored values.
func (p *Postgres) UpsertRoster(ctx context.Context, recs []domain.RosterRecord) error {
	recs = dedupeRoster(recs)
	if len(recs) == 0 {
		return nil
	}

	ranges := batches(len(recs), p.batchSize)
	for i, br := range ranges {
		batch := recs[br[0]:br[1]]
		query := studentsUpsertSQL(len(batch))
		args := make([]any, 0, len(batch)*len(studentColumns))
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
		}
		err := p.retry.Do(ctx, func() error {
			_, execErr := p.db.ExecContext(ctx, query, args...)
			return wrap("upsert students", execErr)
		})
		if err != nil {
			return err
		}
		log.Printf("sink: students batch %d/%d: %d records", i+1, len(ranges), len(batch))
	}
	return nil
}

// UpsertCompletions writes one course's percentages into its table. Unknown
// percentages go in as NULL and preserve whatever the store already has.
func (p *Postgres) UpsertCompletions(ctx context.Context, course domain.Course, recs []domain.CompletionRecord) error {
	recs = dedupeCompletions(recs)
	if len(recs) == 0 {
		return nil
	}

	ranges := batches(len(recs), p.batchSize)
	for i, br := range ranges {
		batch := recs[br[0]:br[1]]
		query := courseUpsertSQL(course.Table, len(batch))
		args := make([]any, 0, len(batch)*2)
		for _, r := range batch {
			args = append(args, r.Email, nullPercent(r.Percent))
		}
		err := p.retry.Do(ctx, func() error {
			_, execErr := p.db.ExecContext(ctx, query, args...)
			return wrap("upsert "+course.Table, execErr)
		})
		if err != nil {
			return err
		}
		log.Printf("sink: %s batch %d/%d: %d records", course.Table, i+1, len(ranges), len(batch))
	}
	return nil
}

// studentsUpsertSQL builds the multi-row students upsert. Every non-key
// column updates via COALESCE(EXCLUDED.col, col): new non-null wins, else the
// existing value stays.
func studentsUpsertSQL(rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO students (")
	b.WriteString(strings.Join(studentColumns, ", "))
	b.WriteString(") VALUES ")
	b.WriteString(placeholderRows(rows, len(studentColumns)))
	b.WriteString(" ON CONFLICT (email) DO UPDATE SET ")
	sets := make([]string, 0, len(studentColumns)-1)
	for _, col := range studentColumns[1:] {
		sets = append(sets, fmt.Sprintf("%s = COALESCE(EXCLUDED.%s, students.%s)", col, col, col))
	}
	b.WriteString(strings.Join(sets, ", "))
	return b.String()
}

func courseUpsertSQL(table string, rows int) string {
	return fmt.Sprintf(
		"INSERT INTO %s (email, completion_percent) VALUES %s"+
			" ON CONFLICT (email) DO UPDATE SET completion_percent ="+
			" COALESCE(EXCLUDED.completion_percent, %s.completion_percent)",
		table, placeholderRows(rows, 2), table)
}

// placeholderRows renders "($1, $2), ($3, $4), ..." for rows of width cols.
func placeholderRows(rows, cols int) string {
	var b strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteString(")")
	}
	return b.String()
}
