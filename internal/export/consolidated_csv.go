package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"completion-sync/internal/domain"
	"completion-sync/internal/roster"
)

// WriteConsolidatedCSV writes the consolidated table as UTF-8 CSV.
// Keep header order EXACT: the roster columns in canonical order, then one
// percentage column per tracked course. Unknown percentages render as empty
// cells, not zeros.
func WriteConsolidatedCSV(w io.Writer, courses []domain.Course, recs []domain.ConsolidatedRecord) error {
	cw := csv.NewWriter(w)

	header := append([]string{}, roster.CanonicalHeaders...)
	for _, c := range courses {
		header = append(header, c.PercentHeader())
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range recs {
		row := []string{
			r.FullName,
			r.Email,
			r.Campus,
			r.Faculty,
			r.Program,
			r.ProgramVersion,
			r.Group,
			r.Year,
		}
		for _, c := range courses {
			row = append(row, r.Completion[c.ID].String())
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteConsolidatedFile writes the CSV artifact to path.
func WriteConsolidatedFile(path string, courses []domain.Course, recs []domain.ConsolidatedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := WriteConsolidatedCSV(f, courses, recs); err != nil {
		f.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}
