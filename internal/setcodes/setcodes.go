// Package setcodes translates Magic set identifiers between the competing
// code vocabularies (canonical set code, Gatherer, pre-Exodus codes, the
// price site's codes, and deckstats export codes) using a reference table
// loaded from a CSV file.
package setcodes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrInvalidVocabulary is returned when a translation names a vocabulary
// outside the fixed set.
var ErrInvalidVocabulary = errors.New("invalid set code vocabulary")

// Vocabulary identifies one of the set-code naming systems carried by the
// reference table. The zero value is VocabName.
type Vocabulary int

const (
	// VocabName is the human-readable set name ("Limited Edition Alpha").
	VocabName Vocabulary = iota
	// VocabCanonical is the authoritative set code ("LEA"), the join key
	// between all other vocabularies.
	VocabCanonical
	// VocabGatherer is the code used by Gatherer.
	VocabGatherer
	// VocabOldCode is the legacy pre-Gatherer code.
	VocabOldCode
	// VocabSite is the code used by the price site in its URLs.
	VocabSite
	// VocabDeckstats is the set_id column of a deckstats inventory export.
	VocabDeckstats

	vocabularyCount
)

var vocabularyNames = [...]string{
	VocabName:      "name",
	VocabCanonical: "canonical",
	VocabGatherer:  "gatherer",
	VocabOldCode:   "old",
	VocabSite:      "site",
	VocabDeckstats: "deckstats",
}

func (v Vocabulary) String() string {
	if v < 0 || v >= vocabularyCount {
		return fmt.Sprintf("Vocabulary(%d)", int(v))
	}
	return vocabularyNames[v]
}

// ParseVocabulary converts a config-level vocabulary name into its
// Vocabulary value.
func ParseVocabulary(name string) (Vocabulary, error) {
	for v, n := range vocabularyNames {
		if n == name {
			return Vocabulary(v), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidVocabulary, name)
}

// Row is one set's identifiers across every vocabulary. Fields other than
// Canonical may be blank when the set has no code in that vocabulary.
type Row struct {
	Name      string
	Canonical string
	Gatherer  string
	OldCode   string
	Site      string
	Deckstats string
}

func (r Row) field(v Vocabulary) string {
	switch v {
	case VocabName:
		return r.Name
	case VocabCanonical:
		return r.Canonical
	case VocabGatherer:
		return r.Gatherer
	case VocabOldCode:
		return r.OldCode
	case VocabSite:
		return r.Site
	case VocabDeckstats:
		return r.Deckstats
	}
	return ""
}

// Table holds the set definition rows in file order. It is read-only after
// LoadTable.
type Table struct {
	rows []Row
}

// NewTable builds a table from rows already in memory. Tests and callers
// with non-CSV sources use this directly.
func NewTable(rows []Row) *Table {
	return &Table{rows: rows}
}

// LoadTable reads the set definition CSV at path. A leading header row is
// detected heuristically and skipped. Short records are padded with blank
// fields rather than rejected.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening set definitions: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading set definitions %s: %w", path, err)
	}

	if len(records) > 0 && looksLikeHeader(records[0]) {
		log.Debug().Str("path", path).Msg("Skipping set definition header row")
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row{
			Name:      fieldAt(rec, 0),
			Canonical: fieldAt(rec, 1),
			Gatherer:  fieldAt(rec, 2),
			OldCode:   fieldAt(rec, 3),
			Site:      fieldAt(rec, 4),
			Deckstats: fieldAt(rec, 5),
		})
	}

	log.Debug().
		Str("path", path).
		Int("sets", len(rows)).
		Msg("Loaded set definitions")

	return NewTable(rows), nil
}

// Translate maps code from one vocabulary to another. The scan is linear
// and the first row whose from-field equals code wins; duplicate codes in
// the table are resolved by file order, not corrected. The result is ""
// when no row matches or when the matching row has no code in the target
// vocabulary.
func (t *Table) Translate(code string, from, to Vocabulary) (string, error) {
	if from < 0 || from >= vocabularyCount {
		return "", fmt.Errorf("%w: from %s", ErrInvalidVocabulary, from)
	}
	if to < 0 || to >= vocabularyCount {
		return "", fmt.Errorf("%w: to %s", ErrInvalidVocabulary, to)
	}

	for _, row := range t.rows {
		if row.field(from) == code {
			return row.field(to), nil
		}
	}
	return "", nil
}

// Len reports the number of sets in the table.
func (t *Table) Len() int {
	return len(t.rows)
}

// looksLikeHeader reports whether a record names the table's columns
// instead of carrying set data. The first two columns of a real header are
// fixed, so those are what the sniff checks.
func looksLikeHeader(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	first := strings.TrimSpace(rec[0])
	second := strings.ReplaceAll(strings.TrimSpace(rec[1]), " ", "")
	return strings.EqualFold(first, "name") && strings.Contains(strings.ToLower(second), "code")
}

func fieldAt(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}
