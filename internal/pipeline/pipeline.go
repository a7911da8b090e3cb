// Package pipeline sequences the full price run: read the inventory,
// scrape quotes for every resolved line, write the report, and account
// for what was found and what was not.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"mtg_card_prices/internal/inventory"
	"mtg_card_prices/internal/notify"
	"mtg_card_prices/internal/report"
	"mtg_card_prices/internal/scrape"

	"github.com/antzucaro/matchr"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

// suggestionThreshold is the minimum Jaro-Winkler similarity before a
// catalog name is offered as the likely intended spelling of a miss.
const suggestionThreshold = 0.85

// Pipeline owns one run's counters. Not safe for concurrent runs.
type Pipeline struct {
	reader   *inventory.Reader
	scraper  *scrape.Scraper
	sink     *report.SheetsSink
	notifier *notify.Client
	names    []string

	found  int
	missed []inventory.Miss
}

// New wires a Pipeline. sink and notifier may be nil. names feeds the
// summary's near-miss suggestions and may be empty.
func New(reader *inventory.Reader, scraper *scrape.Scraper, sink *report.SheetsSink, notifier *notify.Client, names []string) *Pipeline {
	return &Pipeline{
		reader:   reader,
		scraper:  scraper,
		sink:     sink,
		notifier: notifier,
		names:    names,
	}
}

// Run reads the inventory at inputPath, scrapes prices for it, and writes
// the report to outputPath. The write step always executes, whatever
// happened upstream, so partial results survive failed or interrupted
// runs. The first upstream error is returned after the write attempt.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string, overwrite bool) error {
	p.found = 0
	p.missed = nil

	var rows []report.Row

	lines, misses, readErr := p.reader.ReadInventory(inputPath)
	p.missed = append(p.missed, misses...)
	if readErr != nil {
		log.Error().Err(readErr).Str("path", inputPath).Msg("Reading inventory failed")
	}

	var scrapeErr error
	if readErr == nil {
		res, err := p.scraper.Scrape(ctx, lines)
		scrapeErr = err
		rows = res.Rows
		p.found = res.Hits
		p.missed = append(p.missed, res.Failed...)
		if scrapeErr != nil {
			log.Error().Err(scrapeErr).Msg("Scrape stopped early")
		}
	}

	writeErr := report.WriteCSV(outputPath, rows, overwrite)
	if writeErr != nil {
		log.Error().Err(writeErr).Str("path", outputPath).Msg("Writing report failed")
	} else {
		log.Info().Str("path", outputPath).Msg("Wrote report")
		if p.sink != nil {
			p.sink.Append(ctx, rows)
		}
	}

	if p.notifier != nil {
		p.notifier.NotifyRunComplete(ctx, p.Summary())
	}

	if readErr != nil {
		return readErr
	}
	if scrapeErr != nil {
		return scrapeErr
	}
	return writeErr
}

// Summary reports the last run: found count, missed count, and one line
// per miss. Misses cover both unresolved inventory rows and cards whose
// pages carried no recognizable prices.
func (p *Pipeline) Summary() string {
	found := color.GreenString("Found:  %d card(s).", p.found)

	if len(p.missed) == 0 {
		if p.found > 0 {
			return found
		}
		return "No cards searched for."
	}

	var sb strings.Builder
	sb.WriteString(color.RedString("Missed: %d card(s):", len(p.missed)))
	for _, miss := range p.missed {
		fmt.Fprintf(&sb, "\n  '%s' ('%s')", miss.Name, miss.SetCode)
		if name, ok := p.closestName(miss.Name); ok {
			fmt.Fprintf(&sb, " (closest: '%s')", name)
		}
	}

	if p.found > 0 {
		return found + "\n" + sb.String()
	}
	return sb.String()
}

// closestName finds the catalog name most similar to name, when one is
// similar enough to be worth suggesting. Diagnostic only; resolution
// stays exact-match.
func (p *Pipeline) closestName(name string) (string, bool) {
	best := ""
	bestSimilarity := 0.0
	for _, candidate := range p.names {
		if candidate == name {
			continue
		}
		similarity := matchr.JaroWinkler(name, candidate, false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = candidate
		}
	}
	if bestSimilarity >= suggestionThreshold {
		return best, true
	}
	return "", false
}
