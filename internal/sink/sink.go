package sink

import (
	"database/sql"

	"completion-sync/internal/domain"
)

// Both stores upsert by email with field-level preserve semantics: a new
// non-null value wins, a null leaves the stored value alone.

// dedupeRoster keeps the first record per email. Required before a multi-row
// upsert: the same key twice in one statement is a driver error, and
// first-wins matches consolidation policy.
func dedupeRoster(recs []domain.RosterRecord) []domain.RosterRecord {
	seen := make(map[string]bool, len(recs))
	out := make([]domain.RosterRecord, 0, len(recs))
	for _, r := range recs {
		if r.Email == "" || seen[r.Email] {
			continue
		}
		seen[r.Email] = true
		out = append(out, r)
	}
	return out
}

func dedupeCompletions(recs []domain.CompletionRecord) []domain.CompletionRecord {
	seen := make(map[string]bool, len(recs))
	out := make([]domain.CompletionRecord, 0, len(recs))
	for _, r := range recs {
		if r.Email == "" || seen[r.Email] {
			continue
		}
		seen[r.Email] = true
		out = append(out, r)
	}
	return out
}

// nullString maps empty roster fields to SQL NULL so the preserve-on-null
// upsert never wipes existing data with blanks.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullPercent(p domain.Percent) sql.NullFloat64 {
	return sql.NullFloat64{Float64: p.Value, Valid: p.Known}
}

func batches(n, size int) [][2]int {
	if size <= 0 {
		size = 200
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
