package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"completion-sync/internal/completion"
	"completion-sync/internal/domain"
)

const marker = "@edu.hse.ru"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	rosterPath := writeFile(t, dir, "roster.csv",
		"ФИО,Корпоративная почта,Факультет\n"+
			"Иванов Иван,ivanov@edu.hse.ru,ФКН\n"+
			"Петров Пётр,petrov@edu.hse.ru,МИЭМ\n"+
			"Посторонний,someone@gmail.com,ФКН\n")
	pythonPath := writeFile(t, dir, "python.csv",
		"Email,Задача 1,Задача 2\n"+
			"ivanov@edu.hse.ru,Выполнено,Не выполнено\n"+
			"petrov@edu.hse.ru,Выполнено,Выполнено\n")

	course := domain.Course{ID: "python", Name: "Питон", Table: "course_python"}
	out, err := Run(Options{
		RosterPath:   rosterPath,
		Courses:      []CourseInput{{Course: course, Path: pythonPath}},
		DomainMarker: marker,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(out.Roster) != 2 {
		t.Errorf("Expected 2 roster records, got %d", len(out.Roster))
	}
	if len(out.Consolidated) != 2 {
		t.Fatalf("Expected 2 consolidated records, got %d", len(out.Consolidated))
	}

	byEmail := make(map[string]domain.ConsolidatedRecord)
	for _, r := range out.Consolidated {
		byEmail[r.Email] = r
	}
	if p := byEmail["ivanov@edu.hse.ru"].Completion["python"]; !p.Known || p.Value != 50 {
		t.Errorf("Expected 50 for ivanov, got %+v", p)
	}
	if p := byEmail["petrov@edu.hse.ru"].Completion["python"]; !p.Known || p.Value != 100 {
		t.Errorf("Expected 100 for petrov, got %+v", p)
	}

	if len(out.Stats) != 1 || out.Stats[0].WithData != 2 {
		t.Errorf("Unexpected stats: %+v", out.Stats)
	}
}

func TestRunCourseWithoutPathStaysUnknown(t *testing.T) {
	dir := t.TempDir()
	rosterPath := writeFile(t, dir, "roster.csv",
		"ФИО,Email\nИванов,a@edu.hse.ru\n")

	course := domain.Course{ID: "python", Name: "Питон"}
	out, err := Run(Options{
		RosterPath:   rosterPath,
		Courses:      []CourseInput{{Course: course}},
		DomainMarker: marker,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if p := out.Consolidated[0].Completion["python"]; p.Known {
		t.Errorf("Expected unknown percentage, got %+v", p)
	}
}

func TestRunFailsFastOnNoSignal(t *testing.T) {
	dir := t.TempDir()
	rosterPath := writeFile(t, dir, "roster.csv",
		"ФИО,Email\nИванов,a@edu.hse.ru\n")
	coursePath := writeFile(t, dir, "course.csv",
		"Email,Комментарий\na@edu.hse.ru,привет\n")

	course := domain.Course{ID: "python", Name: "Питон"}
	_, err := Run(Options{
		RosterPath:   rosterPath,
		Courses:      []CourseInput{{Course: course, Path: coursePath}},
		DomainMarker: marker,
	})
	if !errors.Is(err, completion.ErrNoSignal) {
		t.Errorf("Expected ErrNoSignal, got %v", err)
	}
}

func TestRunAllowMissingDowngradesNoSignal(t *testing.T) {
	dir := t.TempDir()
	rosterPath := writeFile(t, dir, "roster.csv",
		"ФИО,Email\nИванов,a@edu.hse.ru\n")
	coursePath := writeFile(t, dir, "course.csv",
		"Email,Комментарий\na@edu.hse.ru,привет\n")

	course := domain.Course{ID: "python", Name: "Питон"}
	out, err := Run(Options{
		RosterPath:   rosterPath,
		Courses:      []CourseInput{{Course: course, Path: coursePath}},
		DomainMarker: marker,
		AllowMissing: true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if p := out.Consolidated[0].Completion["python"]; p.Known {
		t.Errorf("Expected unknown percentage after downgrade, got %+v", p)
	}
}

func TestRunMissingRosterFile(t *testing.T) {
	_, err := Run(Options{
		RosterPath:   filepath.Join(t.TempDir(), "absent.csv"),
		DomainMarker: marker,
	})
	if err == nil {
		t.Error("Expected error for missing roster file")
	}
}
