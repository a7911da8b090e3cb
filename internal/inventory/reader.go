// Package inventory reads the user's card list from a delimited export
// file and resolves each row to a canonical catalog card.
package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"mtg_card_prices/internal/catalog"
	"mtg_card_prices/internal/setcodes"

	"github.com/rs/zerolog/log"
)

// ErrEmptyResult is returned when an inventory file yields zero resolved
// lines. Scraping is pointless in that case, so the pipeline treats it as
// fatal while still writing a best-effort report.
var ErrEmptyResult = errors.New("no inventory lines resolved")

// Line is one resolved inventory row: a catalog card and how many copies
// the user holds.
type Line struct {
	Quantity int
	Card     catalog.Card
}

// Miss records a row that could not be resolved, kept for failure
// accounting and the run summary. SetCode is the raw code from the export
// file, not a canonical code.
type Miss struct {
	Name    string
	SetCode string
}

// Format names the column layout of an inventory export and the set-code
// vocabulary its set column speaks. Column indexes are zero-based
// positions in each CSV record.
type Format struct {
	Name        string
	QuantityCol int
	NameCol     int
	SetCol      int
	SetVocab    setcodes.Vocabulary
}

// Deckstats is the layout of a deckstats.net CSV export:
// amount, card_name, is_foil, is_pinned, set_id.
var Deckstats = Format{
	Name:        "deckstats",
	QuantityCol: 0,
	NameCol:     1,
	SetCol:      4,
	SetVocab:    setcodes.VocabDeckstats,
}

// FormatByName resolves a configured read-format name.
func FormatByName(name string) (Format, error) {
	switch name {
	case Deckstats.Name:
		return Deckstats, nil
	default:
		return Format{}, fmt.Errorf("unknown inventory format %q", name)
	}
}

// columns reports the highest column index the format reads.
func (f Format) columns() int {
	max := f.QuantityCol
	if f.NameCol > max {
		max = f.NameCol
	}
	if f.SetCol > max {
		max = f.SetCol
	}
	return max + 1
}

// Reader resolves inventory rows against the set code table and card
// catalog.
type Reader struct {
	table   *setcodes.Table
	catalog *catalog.Catalog
	format  Format
}

// NewReader builds a Reader. The format decides which columns carry the
// quantity, card name, and export set code.
func NewReader(table *setcodes.Table, cat *catalog.Catalog, format Format) *Reader {
	return &Reader{table: table, catalog: cat, format: format}
}

// ReadInventory parses the export file at path and splits its rows into
// resolved lines and misses. A row resolves when its export set code
// translates to a canonical code and the catalog has an exact (name, set)
// entry. Misses never abort the read; they are returned for accounting.
// The error is ErrEmptyResult when nothing resolved, or a wrapped file
// error when the path cannot be read. Misses are valid in both cases.
func (r *Reader) ReadInventory(path string) ([]Line, []Miss, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening inventory: %w", err)
	}
	defer f.Close()

	log.Debug().Str("path", path).Str("format", r.format.Name).Msg("Reading inventory")

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading inventory %s: %w", path, err)
	}

	if len(records) > 0 && r.looksLikeHeader(records[0]) {
		log.Debug().Str("path", path).Msg("Skipping inventory header row")
		records = records[1:]
	}

	var lines []Line
	var misses []Miss
	for i, rec := range records {
		line, miss, ok := r.resolveRecord(rec)
		if !ok {
			log.Debug().
				Int("row", i+1).
				Str("card", miss.Name).
				Str("set", miss.SetCode).
				Msg("Could not match inventory row")
			misses = append(misses, miss)
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, misses, fmt.Errorf("%w: %s", ErrEmptyResult, path)
	}

	log.Debug().
		Int("resolved", len(lines)).
		Int("missed", len(misses)).
		Msg("Finished reading inventory")

	return lines, misses, nil
}

// resolveRecord turns one CSV record into a resolved Line or a Miss.
func (r *Reader) resolveRecord(rec []string) (Line, Miss, bool) {
	name := fieldAt(rec, r.format.NameCol)
	rawSet := fieldAt(rec, r.format.SetCol)
	miss := Miss{Name: name, SetCode: rawSet}

	if len(rec) < r.format.columns() {
		return Line{}, miss, false
	}

	qty, err := strconv.Atoi(fieldAt(rec, r.format.QuantityCol))
	if err != nil || qty <= 0 {
		return Line{}, miss, false
	}

	setCode, err := r.table.Translate(rawSet, r.format.SetVocab, setcodes.VocabCanonical)
	if err != nil {
		// Unreachable with the fixed vocabulary arguments, but a
		// translation failure must never turn into a silent hit.
		return Line{}, miss, false
	}

	card, ok := r.catalog.FindCard(name, setCode)
	if !ok {
		return Line{}, miss, false
	}
	return Line{Quantity: qty, Card: card}, Miss{}, true
}

// looksLikeHeader reports whether the first record is a column header.
// Data rows carry a number in the quantity column; header rows do not.
func (r *Reader) looksLikeHeader(rec []string) bool {
	raw := fieldAt(rec, r.format.QuantityCol)
	if raw == "" {
		return true
	}
	_, err := strconv.Atoi(raw)
	return err != nil
}

func fieldAt(rec []string, i int) string {
	if i >= 0 && i < len(rec) {
		return rec[i]
	}
	return ""
}
