package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"mtg_card_prices/internal/catalog"
	"mtg_card_prices/internal/inventory"
	"mtg_card_prices/internal/notify"
	"mtg_card_prices/internal/pipeline"
	"mtg_card_prices/internal/render"
	"mtg_card_prices/internal/report"
	"mtg_card_prices/internal/scrape"
	"mtg_card_prices/internal/setcodes"
	"mtg_card_prices/internal/sheets"

	"github.com/rs/zerolog/log"
)

// Components holds the wired pipeline and the handles the command layer
// needs after a run: the render client for its fetch counter, and the
// teardown for whatever the renderer holds open.
type Components struct {
	Pipeline *pipeline.Pipeline
	Render   *render.Client

	closers []func()
}

// Close releases renderer resources. Safe to call more than once.
func (c *Components) Close() {
	for _, fn := range c.closers {
		fn()
	}
	c.closers = nil
}

// InitializePipeline loads the reference data and builds every pipeline
// component per cfg. The returned Components must be closed after the run.
func InitializePipeline(ctx context.Context, cfg Config) (*Components, error) {
	log.Debug().Msg("Initializing pipeline")

	table, err := setcodes.LoadTable(cfg.Files.SetDefs)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(cfg.Files.SetData)
	if err != nil {
		return nil, err
	}

	format, err := inventory.FormatByName(cfg.Format.Read)
	if err != nil {
		return nil, err
	}
	reader := inventory.NewReader(table, cat, format)

	comps := &Components{}

	var renderer render.Renderer
	switch cfg.Site.Renderer {
	case "http":
		renderer = render.NewHTTPRenderer(time.Duration(cfg.Site.TimeoutSeconds) * time.Second)
	default:
		chrome := render.NewChromeRenderer(ctx)
		comps.closers = append(comps.closers, chrome.Close)
		renderer = chrome
	}
	client := render.NewClient(renderer)
	comps.Render = client

	extractor, err := newExtractor(cfg.Site)
	if err != nil {
		comps.Close()
		return nil, err
	}

	source := scrape.Source{
		Name:    cfg.Site.Name,
		BaseURL: cfg.Site.BaseURL,
		Pattern: cfg.Site.Pattern,
	}
	scraper := scrape.NewScraper(table, client, extractor, source, os.Stdout)

	var sink *report.SheetsSink
	if cfg.Sheets.Enabled {
		sheetsClient, err := sheets.NewClient(ctx, cfg.Sheets.Credentials)
		if err != nil {
			comps.Close()
			return nil, fmt.Errorf("creating sheets client: %w", err)
		}
		sink = report.NewSheetsSink(sheetsClient, cfg.Sheets.SpreadsheetID, cfg.Sheets.Range, DefaultSheetRetry)
		log.Info().Str("spreadsheet_id", cfg.Sheets.SpreadsheetID).Msg("Sheet mirror enabled")
	}

	notifier := notify.NewClient(cfg.Notify.URL, cfg.Notify.Topic, cfg.Notify.Enabled)
	if cfg.Notify.Enabled {
		log.Info().Str("topic", cfg.Notify.Topic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}

	comps.Pipeline = pipeline.New(reader, scraper, sink, notifier, cat.Names())

	log.Debug().
		Int("sets", table.Len()).
		Int("printings", cat.Len()).
		Str("renderer", cfg.Site.Renderer).
		Msg("Pipeline initialized")

	return comps, nil
}

// newExtractor picks the price extractor the site config asks for.
func newExtractor(site SiteConfig) (scrape.Extractor, error) {
	if site.Selectors.enabled() {
		return &scrape.SelectorExtractor{
			LowSelector:  site.Selectors.Low,
			MidSelector:  site.Selectors.Mid,
			HighSelector: site.Selectors.High,
		}, nil
	}
	return scrape.NewRegexExtractor(site.Pattern)
}
