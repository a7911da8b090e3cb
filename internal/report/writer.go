package report

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// Row is one line of the price report.
type Row []string

// Header returns the column header row written once per output file.
func Header() Row {
	return Row{"CARD NAME", "QTY", "SET", "LOW (ea.)", "MID (ea.)", "HI (ea.)", "LOW", "MID", "HI"}
}

// WriteCSV writes rows to path in the excel CSV dialect, truncating when
// overwrite is set and appending otherwise. The header goes in first only
// when the file is empty at write time, so appending to an existing report
// never repeats it. Rows are written as-is, whatever their width.
func WriteCSV(path string, rows []Row, overwrite bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("checking report size: %w", err)
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true

	if info.Size() == 0 {
		if err := w.Write(Header()); err != nil {
			return fmt.Errorf("writing report header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	log.Debug().
		Str("path", path).
		Int("rows", len(rows)).
		Msg("Wrote report")

	return nil
}
