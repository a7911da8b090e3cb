package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"mtg_card_prices/internal/inventory"
	"mtg_card_prices/internal/render"
	"mtg_card_prices/internal/report"
	"mtg_card_prices/internal/setcodes"

	"github.com/rs/zerolog/log"
)

// ErrInterrupted marks a scrape cut short by the user. The partial result
// returned with it is still good output.
var ErrInterrupted = errors.New("scrape interrupted")

// Result accumulates the rows and counters of one scrape run. The trailing
// TOTAL row is appended when the run exits, however it exits.
type Result struct {
	Rows     []report.Row
	Lines    int
	Quantity int
	Hits     int
	Misses   int
	Failed   []inventory.Miss

	totalLow  float64
	totalMid  float64
	totalHigh float64
}

func (r *Result) finalize() {
	r.Rows = append(r.Rows, report.Row{
		"TOTAL",
		strconv.Itoa(r.Quantity),
		"", "", "", "",
		formatPrice(r.totalLow),
		formatPrice(r.totalMid),
		formatPrice(r.totalHigh),
	})
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Scraper fetches one rendered page per resolved inventory line and pulls
// price quotes out of it.
type Scraper struct {
	table     *setcodes.Table
	client    *render.Client
	extractor Extractor
	source    Source
	progress  io.Writer
}

// NewScraper builds a Scraper. progress receives the interactive fetch
// counter; pass nil to silence it.
func NewScraper(table *setcodes.Table, client *render.Client, extractor Extractor, source Source, progress io.Writer) *Scraper {
	if progress == nil {
		progress = io.Discard
	}
	return &Scraper{
		table:     table,
		client:    client,
		extractor: extractor,
		source:    source,
		progress:  progress,
	}
}

// Scrape processes lines in input order, one blocking page render per
// line. Pattern misses are recorded and the loop continues; renderer
// failures and cancellation stop the loop. Whatever the exit path, the
// returned Result carries every row produced so far plus the TOTAL row.
func (s *Scraper) Scrape(ctx context.Context, lines []inventory.Line) (*Result, error) {
	res := &Result{Lines: len(lines)}
	defer res.finalize()

	fmt.Fprint(s.progress, "Fetching...")
	defer fmt.Fprintln(s.progress)

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%w after %d of %d cards", ErrInterrupted, i, len(lines))
		}

		// Quantity counts toward the total whether or not the page
		// yields prices.
		res.Quantity += line.Quantity

		siteCode, err := s.table.Translate(line.Card.SetCode, setcodes.VocabCanonical, setcodes.VocabSite)
		if err != nil {
			return res, fmt.Errorf("translating set code %q: %w", line.Card.SetCode, err)
		}
		url := s.source.URLFor(line.Card, siteCode)

		text, err := s.client.GetPage(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return res, fmt.Errorf("%w after %d of %d cards", ErrInterrupted, i, len(lines))
			}
			return res, fmt.Errorf("fetching prices for %q: %w", line.Card.Name, err)
		}

		quote, hit := s.extractor.Extract(text)
		if hit {
			res.Hits++
			res.Rows = append(res.Rows, res.hitRow(line, quote))
		} else {
			res.Misses++
			res.Failed = append(res.Failed, inventory.Miss{Name: line.Card.Name, SetCode: line.Card.SetCode})
			res.Rows = append(res.Rows, report.Row{
				line.Card.Name,
				strconv.Itoa(line.Quantity),
				line.Card.SetCode,
			})
		}

		fmt.Fprintf(s.progress, "\rFetching... (%d/%d)", i+1, len(lines))

		log.Debug().
			Int("line", i+1).
			Int("total", len(lines)).
			Bool("hit", hit).
			Str("card", line.Card.Name).
			Str("set", line.Card.SetCode).
			Str("url", url).
			Msg("Scraped card")
	}

	return res, nil
}

func (r *Result) hitRow(line inventory.Line, quote Quote) report.Row {
	low, mid, high := quote.Values()
	qty := float64(line.Quantity)
	lineLow, lineMid, lineHigh := low*qty, mid*qty, high*qty

	r.totalLow += lineLow
	r.totalMid += lineMid
	r.totalHigh += lineHigh

	return report.Row{
		line.Card.Name,
		strconv.Itoa(line.Quantity),
		line.Card.SetCode,
		quote.Low,
		quote.Mid,
		quote.High,
		formatPrice(lineLow),
		formatPrice(lineMid),
		formatPrice(lineHigh),
	}
}
