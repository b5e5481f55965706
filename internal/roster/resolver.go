// Package roster maps human-authored roster files onto the canonical student
// schema. Headers arrive in Russian or English with uneven casing and spacing,
// so resolution is substring matching against a priority-ordered synonym
// table rather than exact names.
package roster

import (
	"strings"

	"completion-sync/internal/tabular"
)

// Field identifies one canonical roster column.
type Field int

const (
	FieldFullName Field = iota
	FieldEmail
	FieldCampus
	FieldFaculty
	FieldProgram
	FieldProgramVersion
	FieldGroup
	FieldYear
	numFields
)

// CanonicalHeaders are the legacy output column names, in export order.
var CanonicalHeaders = []string{
	"ФИО",
	"Корпоративная почта",
	"Филиал (кампус)",
	"Факультет",
	"Образовательная программа",
	"Версия образовательной программы",
	"Группа",
	"Курс",
}

// synonyms maps each canonical field to lowercase substrings tried in
// priority order. Order matters twice: fields are resolved top to bottom and,
// within a field, the first header containing any synonym wins.
var synonyms = [numFields][]string{
	FieldFullName:       {"фио", "имя", "name"},
	FieldEmail:          {"адрес электронной почты", "корпоративная почта", "email", "почта", "e-mail"},
	FieldCampus:         {"филиал", "кампус", "campus"},
	FieldFaculty:        {"факультет", "faculty"},
	FieldProgram:        {"образовательная программа", "программа", "educational program"},
	FieldProgramVersion: {"версия образовательной программы", "версия программы", "program version", "version"},
	FieldGroup:          {"группа", "group"},
	FieldYear:           {"курс", "course"},
}

// UserInfoHeader is the composite column some exports carry instead of (or in
// addition to) separate organizational columns. Its semicolon-separated parts
// are positional: faculty; program; course level; group.
const UserInfoHeader = "Данные о пользователе"

// Resolve maps every canonical field to a header index, or -1 when no header
// matches. The output always covers all fields so downstream code sees a
// fixed schema regardless of input shape.
func Resolve(headers []string) [numFields]int {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var out [numFields]int
	for f := Field(0); f < numFields; f++ {
		out[f] = -1
		for i, h := range lowered {
			if containsAny(h, synonyms[f]) {
				out[f] = i
				break
			}
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// userInfoColumn returns the composite column index, or -1. The legacy files
// name it exactly; match after trimming only.
func userInfoColumn(t *tabular.Table) int {
	return t.Column(UserInfoHeader)
}
