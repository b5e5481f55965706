package sink

import (
	"reflect"
	"strings"
	"testing"

	"completion-sync/internal/domain"
)

func TestDedupeRoster(t *testing.T) {
	recs := []domain.RosterRecord{
		{FullName: "Первый", Email: "a@edu.hse.ru"},
		{FullName: "Второй", Email: "a@edu.hse.ru"},
		{FullName: "Без почты", Email: ""},
		{FullName: "Другой", Email: "b@edu.hse.ru"},
	}

	out := dedupeRoster(recs)
	if len(out) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(out))
	}
	if out[0].FullName != "Первый" {
		t.Errorf("Expected first occurrence kept, got %q", out[0].FullName)
	}
	if out[1].Email != "b@edu.hse.ru" {
		t.Errorf("Unexpected second record: %+v", out[1])
	}
}

func TestNullString(t *testing.T) {
	if v := nullString(""); v.Valid {
		t.Error("Empty string must map to NULL")
	}
	if v := nullString("ФКН"); !v.Valid || v.String != "ФКН" {
		t.Errorf("Unexpected NullString: %+v", v)
	}
}

func TestNullPercent(t *testing.T) {
	if v := nullPercent(domain.Percent{}); v.Valid {
		t.Error("Unknown percentage must map to NULL")
	}
	if v := nullPercent(domain.KnownPercent(0)); !v.Valid || v.Float64 != 0 {
		t.Errorf("Known zero must stay a real zero, got %+v", v)
	}
}

func TestBatches(t *testing.T) {
	got := batches(5, 2)
	expected := [][2]int{{0, 2}, {2, 4}, {4, 5}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("batches(5, 2) = %v, want %v", got, expected)
	}

	if got := batches(0, 2); got != nil {
		t.Errorf("batches(0, 2) = %v, want nil", got)
	}

	// Non-positive size falls back to the default of 200.
	if got := batches(250, 0); len(got) != 2 || got[0] != [2]int{0, 200} {
		t.Errorf("batches(250, 0) = %v", got)
	}
}

func TestStudentsUpsertSQL(t *testing.T) {
	query := studentsUpsertSQL(2)

	if !strings.HasPrefix(query, "INSERT INTO students (email, full_name, campus, faculty, program, program_version, study_group, year) VALUES ") {
		t.Errorf("Unexpected prefix: %s", query)
	}
	if !strings.Contains(query, "($1, $2, $3, $4, $5, $6, $7, $8), ($9, $10, $11, $12, $13, $14, $15, $16)") {
		t.Errorf("Unexpected placeholders: %s", query)
	}
	if !strings.Contains(query, "ON CONFLICT (email) DO UPDATE SET") {
		t.Errorf("Missing conflict clause: %s", query)
	}
	if !strings.Contains(query, "full_name = COALESCE(EXCLUDED.full_name, students.full_name)") {
		t.Errorf("Missing preserve-on-null update: %s", query)
	}
	// The key column must never be in the update list.
	if strings.Contains(query, "email = COALESCE") {
		t.Errorf("Key column must not be updated: %s", query)
	}
}

func TestCourseUpsertSQL(t *testing.T) {
	query := courseUpsertSQL("course_python", 2)

	expected := "INSERT INTO course_python (email, completion_percent) VALUES ($1, $2), ($3, $4)" +
		" ON CONFLICT (email) DO UPDATE SET completion_percent =" +
		" COALESCE(EXCLUDED.completion_percent, course_python.completion_percent)"
	if query != expected {
		t.Errorf("Unexpected query:\ngot  %s\nwant %s", query, expected)
	}
}

func TestPlaceholderRows(t *testing.T) {
	if got := placeholderRows(1, 3); got != "($1, $2, $3)" {
		t.Errorf("placeholderRows(1, 3) = %q", got)
	}
	if got := placeholderRows(2, 2); got != "($1, $2), ($3, $4)" {
		t.Errorf("placeholderRows(2, 2) = %q", got)
	}
}

func TestWideUpsertSQL(t *testing.T) {
	courses := []domain.Course{
		{ID: "cg", Name: "ЦГ", Table: "course_cg"},
		{ID: "python", Name: "Питон", Table: "course_python"},
	}
	query := wideUpsertSQL(courses, 1)

	if !strings.Contains(query, "percent_cg, percent_python") {
		t.Errorf("Missing percentage columns: %s", query)
	}
	if !strings.Contains(query, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)") {
		t.Errorf("Unexpected placeholders: %s", query)
	}
	if !strings.Contains(query, "percent_cg = COALESCE(excluded.percent_cg, percent_cg)") {
		t.Errorf("Missing preserve-on-null update: %s", query)
	}
	if strings.Contains(query, "email = COALESCE") {
		t.Errorf("Key column must not be updated: %s", query)
	}
}
