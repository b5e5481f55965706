// Package completion turns one course's raw export into a completion
// percentage per qualifying student email. Three strategies are tried in
// priority order and never combined: timestamp-presence over auto-named
// columns, done/not-done status labels over named columns, then a literal
// percentage column as the last resort.
package completion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"completion-sync/internal/domain"
	"completion-sync/internal/tabular"
)

var (
	// ErrNoEmailColumn means none of the known email headers is present.
	ErrNoEmailColumn = errors.New("completion: no email column found")
	// ErrNoSignal means no strategy found qualifying columns. The caller
	// decides whether that aborts the run or yields an all-unknown course.
	ErrNoSignal = errors.New("completion: no qualifying completion columns found")
)

// emailColumnNames are matched against headers exactly (after trimming),
// in priority order.
var emailColumnNames = []string{
	"Адрес электронной почты",
	"Корпоративная почта",
	"Email",
	"Почта",
	"E-mail",
}

// percentColumnNames are the direct-percentage fallback headers, exact match.
var percentColumnNames = []string{
	"Процент завершения",
	"Completion",
	"Progress",
	"Прогресс",
	"Завершение",
}

// metadataHeaders are never candidate activity columns.
var metadataHeaders = map[string]bool{
	"Unnamed: 0":            true,
	"Данные о пользователе": true,
	"User information":      true,
	"Страна":                true,
}

// timestampYears is the fixed recent-year token set a cell must contain
// (together with a colon) to count as a completion timestamp.
var timestampYears = []string{"2020", "2021", "2022", "2023", "2024"}

const (
	statusSampleSize    = 100
	timestampSampleSize = 20

	doneToken   = "выполнено"
	notDoneText = "не выполнено"
)

// Strategy identifies which detection path produced a Result.
type Strategy int

const (
	StrategyTimestamps Strategy = iota + 1
	StrategyStatuses
	StrategyDirect
)

func (s Strategy) String() string {
	switch s {
	case StrategyTimestamps:
		return "timestamps"
	case StrategyStatuses:
		return "statuses"
	case StrategyDirect:
		return "direct"
	}
	return "none"
}

// Result is one course's extraction output plus the operator-facing counters
// the legacy pipeline printed.
type Result struct {
	Records    []domain.CompletionRecord
	Strategy   Strategy
	Candidates int // activity columns the winning strategy used
	Excluded   int // columns removed by the course denylist
}

// Extract computes completion percentages for every row whose email contains
// domainMarker. Emails are lowercased and trimmed. Returns ErrNoEmailColumn
// or ErrNoSignal (wrapped with the course name) when the file does not
// qualify under any strategy.
func Extract(t *tabular.Table, course domain.Course, domainMarker string) (*Result, error) {
	emailIdx := findEmailColumn(t)
	if emailIdx < 0 {
		return nil, fmt.Errorf("%w: course %s, expected one of %s",
			ErrNoEmailColumn, course.Name, strings.Join(emailColumnNames, ", "))
	}

	var (
		statusCols    []int
		timestampCols []int
		excluded      int
	)

	for i, h := range t.Headers {
		if i == emailIdx {
			continue
		}
		header := strings.TrimSpace(h)
		if metadataHeaders[header] {
			continue
		}
		if i == 0 && tabular.AutoNamed(header) {
			// system index column
			continue
		}
		if containsAny(strings.ToLower(header), course.ExcludedColumns) {
			excluded++
			continue
		}

		if tabular.AutoNamed(header) {
			samples := sampleColumn(t, i, timestampSampleSize)
			for _, v := range samples {
				if looksLikeTimestamp(v) {
					timestampCols = append(timestampCols, i)
					break
				}
			}
			continue
		}

		samples := sampleColumn(t, i, statusSampleSize)
		if hasDoneToken(samples) && !allNotDone(samples) {
			statusCols = append(statusCols, i)
		}
	}

	marker := strings.ToLower(domainMarker)

	switch {
	case len(timestampCols) > 0:
		return &Result{
			Records:    extractByTimestamps(t, emailIdx, timestampCols, marker),
			Strategy:   StrategyTimestamps,
			Candidates: len(timestampCols),
			Excluded:   excluded,
		}, nil
	case len(statusCols) > 0:
		return &Result{
			Records:    extractByStatuses(t, emailIdx, statusCols, marker),
			Strategy:   StrategyStatuses,
			Candidates: len(statusCols),
			Excluded:   excluded,
		}, nil
	}

	percentIdx := findColumn(t, percentColumnNames)
	if percentIdx < 0 {
		return nil, fmt.Errorf("%w: course %s", ErrNoSignal, course.Name)
	}
	return &Result{
		Records:    extractDirect(t, emailIdx, percentIdx, marker),
		Strategy:   StrategyDirect,
		Candidates: 1,
		Excluded:   excluded,
	}, nil
}

// extractByTimestamps counts, per student, how many candidate columns hold a
// timestamp-shaped value. The denominator is the full candidate set.
func extractByTimestamps(t *tabular.Table, emailIdx int, cols []int, marker string) []domain.CompletionRecord {
	var out []domain.CompletionRecord
	for _, row := range t.Rows {
		email, ok := qualifyingEmail(t.Value(row, emailIdx), marker)
		if !ok {
			continue
		}
		completed := 0
		for _, c := range cols {
			if looksLikeTimestamp(t.Value(row, c)) {
				completed++
			}
		}
		pct := float64(completed) / float64(len(cols)) * 100
		out = append(out, domain.CompletionRecord{Email: email, Percent: domain.KnownPercent(pct)})
	}
	return out
}

// extractByStatuses counts done vs attempted. Columns empty for a given
// student stay out of that student's denominator; a student who attempted
// nothing scores 0, not a division error.
func extractByStatuses(t *tabular.Table, emailIdx int, cols []int, marker string) []domain.CompletionRecord {
	var out []domain.CompletionRecord
	for _, row := range t.Rows {
		email, ok := qualifyingEmail(t.Value(row, emailIdx), marker)
		if !ok {
			continue
		}
		done, attempted := 0, 0
		for _, c := range cols {
			v := strings.TrimSpace(t.Value(row, c))
			if v == "" {
				continue
			}
			attempted++
			if isDone(v) {
				done++
			}
		}
		pct := 0.0
		if attempted > 0 {
			pct = float64(done) / float64(attempted) * 100
		}
		out = append(out, domain.CompletionRecord{Email: email, Percent: domain.KnownPercent(pct)})
	}
	return out
}

func extractDirect(t *tabular.Table, emailIdx, percentIdx int, marker string) []domain.CompletionRecord {
	var out []domain.CompletionRecord
	for _, row := range t.Rows {
		email, ok := qualifyingEmail(t.Value(row, emailIdx), marker)
		if !ok {
			continue
		}
		out = append(out, domain.CompletionRecord{
			Email:   email,
			Percent: parsePercent(t.Value(row, percentIdx)),
		})
	}
	return out
}

func qualifyingEmail(raw, marker string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !strings.Contains(email, marker) {
		return "", false
	}
	return email, true
}

// parsePercent reads a direct-percentage cell. Anything unparsable stays
// unknown rather than becoming zero.
func parsePercent(raw string) domain.Percent {
	v := strings.TrimSpace(raw)
	if v == "" {
		return domain.Percent{}
	}
	v = strings.ReplaceAll(v, ",", ".")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return domain.Percent{}
	}
	return domain.KnownPercent(f)
}

func findEmailColumn(t *tabular.Table) int {
	return findColumn(t, emailColumnNames)
}

func findColumn(t *tabular.Table, names []string) int {
	for _, name := range names {
		if idx := t.Column(name); idx >= 0 {
			return idx
		}
	}
	return -1
}

// sampleColumn returns up to limit non-empty values from a column.
func sampleColumn(t *tabular.Table, col, limit int) []string {
	var out []string
	for _, row := range t.Rows {
		v := strings.TrimSpace(t.Value(row, col))
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func looksLikeTimestamp(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || !strings.Contains(v, ":") {
		return false
	}
	return containsAny(v, timestampYears)
}

// hasDoneToken reports whether any sample mentions the done token at all;
// columns of pure "not done" values are filtered out separately so that
// reference columns nobody ever completed do not qualify.
func hasDoneToken(samples []string) bool {
	for _, v := range samples {
		if strings.Contains(strings.ToLower(v), doneToken) {
			return true
		}
	}
	return false
}

func allNotDone(samples []string) bool {
	for _, v := range samples {
		if !strings.EqualFold(strings.TrimSpace(v), notDoneText) {
			return false
		}
	}
	return len(samples) > 0
}

// isDone treats "Выполнено" (in any casing, possibly with a suffix) as done
// and "Не выполнено" as attempted-but-not-done.
func isDone(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return strings.Contains(lv, doneToken) && !strings.Contains(lv, notDoneText)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
