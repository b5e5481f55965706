package roster

import (
	"strings"

	"completion-sync/internal/domain"
	"completion-sync/internal/tabular"
)

// Load resolves the table's columns and returns the retained roster records.
// Rows whose email does not contain domainMarker (case-insensitive) are
// dropped here and never travel downstream. Retained emails are lowercased
// and trimmed.
func Load(t *tabular.Table, domainMarker string) []domain.RosterRecord {
	cols := Resolve(t.Headers)
	userInfo := userInfoColumn(t)
	marker := strings.ToLower(domainMarker)

	var out []domain.RosterRecord
	for _, row := range t.Rows {
		rec := domain.RosterRecord{
			FullName:       strings.TrimSpace(t.Value(row, cols[FieldFullName])),
			Email:          t.Value(row, cols[FieldEmail]),
			Campus:         strings.TrimSpace(t.Value(row, cols[FieldCampus])),
			Faculty:        strings.TrimSpace(t.Value(row, cols[FieldFaculty])),
			Program:        strings.TrimSpace(t.Value(row, cols[FieldProgram])),
			ProgramVersion: strings.TrimSpace(t.Value(row, cols[FieldProgramVersion])),
			Group:          strings.TrimSpace(t.Value(row, cols[FieldGroup])),
			Year:           strings.TrimSpace(t.Value(row, cols[FieldYear])),
		}

		// Composite user-info parsing takes precedence over synonym-matched
		// columns for the four positional fields.
		if userInfo >= 0 {
			if parts := strings.Split(t.Value(row, userInfo), ";"); len(parts) >= 4 {
				rec.Faculty = strings.TrimSpace(parts[0])
				rec.Program = strings.TrimSpace(parts[1])
				rec.Year = strings.TrimSpace(parts[2])
				rec.Group = strings.TrimSpace(parts[3])
			}
		}

		email := strings.ToLower(strings.TrimSpace(rec.Email))
		if !strings.Contains(email, marker) {
			continue
		}
		rec.Email = email
		out = append(out, rec)
	}
	return out
}
