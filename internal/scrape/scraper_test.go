package scrape

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"mtg_card_prices/internal/catalog"
	"mtg_card_prices/internal/inventory"
	"mtg_card_prices/internal/render"
	"mtg_card_prices/internal/report"
	"mtg_card_prices/internal/setcodes"

	"github.com/google/go-cmp/cmp"
)

func testTable() *setcodes.Table {
	return setcodes.NewTable([]setcodes.Row{
		{Name: "Limited Edition Alpha", Canonical: "LEA", Site: "le", Deckstats: "lea"},
		{Name: "Portal", Canonical: "POR", Site: "po", Deckstats: "por"},
		{Name: "Ghost Set", Canonical: "GST", Deckstats: "gst"},
	})
}

func newTestScraper(t *testing.T, renderer render.Renderer, progress io.Writer) (*Scraper, *render.Client) {
	t.Helper()
	extractor, err := NewRegexExtractor(DefaultPattern)
	if err != nil {
		t.Fatal(err)
	}
	client := render.NewClient(renderer)
	return NewScraper(testTable(), client, extractor, DefaultSource(), progress), client
}

func bolt(qty int) inventory.Line {
	return inventory.Line{
		Quantity: qty,
		Card:     catalog.Card{Name: "Lightning Bolt", SetCode: "LEA"},
	}
}

func TestScrapeHit(t *testing.T) {
	var fetched []string
	renderer := render.RendererFunc(func(ctx context.Context, url string) (string, error) {
		fetched = append(fetched, url)
		return pricedPage, nil
	})
	scraper, _ := newTestScraper(t, renderer, nil)

	res, err := scraper.Scrape(context.Background(), []inventory.Line{bolt(2)})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	wantURL := `http://magiccards.info/query?q="Lightning Bolt" e:le/en`
	if len(fetched) != 1 || fetched[0] != wantURL {
		t.Errorf("fetched %v, want exactly [%s]", fetched, wantURL)
	}

	wantRows := []report.Row{
		{"Lightning Bolt", "2", "LEA", "0.50", "0.75", "1.00", "1.00", "1.50", "2.00"},
		{"TOTAL", "2", "", "", "", "", "1.00", "1.50", "2.00"},
	}
	if diff := cmp.Diff(wantRows, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if res.Hits != 1 || res.Misses != 0 || res.Quantity != 2 {
		t.Errorf("counters = hits %d misses %d quantity %d", res.Hits, res.Misses, res.Quantity)
	}
}

func TestScrapeMiss(t *testing.T) {
	renderer := render.RendererFunc(func(ctx context.Context, url string) (string, error) {
		return "<html><body>Your query did not match any cards.</body></html>", nil
	})
	scraper, _ := newTestScraper(t, renderer, nil)

	res, err := scraper.Scrape(context.Background(), []inventory.Line{bolt(2)})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	wantRows := []report.Row{
		{"Lightning Bolt", "2", "LEA"},
		{"TOTAL", "2", "", "", "", "", "0.00", "0.00", "0.00"},
	}
	if diff := cmp.Diff(wantRows, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if res.Misses != 1 {
		t.Errorf("misses = %d, want 1", res.Misses)
	}
	wantFailed := []inventory.Miss{{Name: "Lightning Bolt", SetCode: "LEA"}}
	if diff := cmp.Diff(wantFailed, res.Failed); diff != "" {
		t.Errorf("failed list mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeDirectURLForNumberedCard(t *testing.T) {
	var fetched string
	renderer := render.RendererFunc(func(ctx context.Context, url string) (string, error) {
		fetched = url
		return pricedPage, nil
	})
	scraper, _ := newTestScraper(t, renderer, nil)

	line := inventory.Line{
		Quantity: 1,
		Card:     catalog.Card{Name: "Lightning Bolt", SetCode: "LEA", Number: "161"},
	}
	if _, err := scraper.Scrape(context.Background(), []inventory.Line{line}); err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	if want := "http://magiccards.info/le/en/161.html"; fetched != want {
		t.Errorf("fetched %q, want %q", fetched, want)
	}
}

func TestScrapeUnknownSiteCodeFallsBackToNameQuery(t *testing.T) {
	var fetched string
	renderer := render.RendererFunc(func(ctx context.Context, url string) (string, error) {
		fetched = url
		return pricedPage, nil
	})
	scraper, _ := newTestScraper(t, renderer, nil)

	// GST has no site code in the table.
	line := inventory.Line{
		Quantity: 1,
		Card:     catalog.Card{Name: "Spectral Cat", SetCode: "GST", Number: "7"},
	}
	if _, err := scraper.Scrape(context.Background(), []inventory.Line{line}); err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	if want := `http://magiccards.info/query?q="Spectral Cat"`; fetched != want {
		t.Errorf("fetched %q, want %q", fetched, want)
	}
}

func TestScrapeInterruptKeepsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	renderer := render.RendererFunc(func(ctx context.Context, url string) (string, error) {
		cancel() // interrupt lands while the first page is being rendered
		return pricedPage, nil
	})
	scraper, _ := newTestScraper(t, renderer, nil)

	lines := []inventory.Line{bolt(2), {Quantity: 1, Card: catalog.Card{Name: "Black Lotus", SetCode: "LEA"}}}
	res, err := scraper.Scrape(ctx, lines)

	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("err = %v, want ErrInterrupted", err)
	}
	wantRows := []report.Row{
		{"Lightning Bolt", "2", "LEA", "0.50", "0.75", "1.00", "1.00", "1.50", "2.00"},
		{"TOTAL", "2", "", "", "", "", "1.00", "1.50", "2.00"},
	}
	if diff := cmp.Diff(wantRows, res.Rows); diff != "" {
		t.Errorf("partial rows mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeRendererFailureKeepsPartialResult(t *testing.T) {
	calls := 0
	renderer := render.RendererFunc(func(ctx context.Context, url string) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("connection reset")
		}
		return pricedPage, nil
	})
	scraper, _ := newTestScraper(t, renderer, nil)

	lines := []inventory.Line{bolt(2), {Quantity: 1, Card: catalog.Card{Name: "Black Lotus", SetCode: "LEA"}}}
	res, err := scraper.Scrape(context.Background(), lines)

	if err == nil || errors.Is(err, ErrInterrupted) {
		t.Fatalf("err = %v, want a wrapped renderer error", err)
	}
	// The first line's row survives; the failed line's quantity already
	// counted toward the total.
	wantRows := []report.Row{
		{"Lightning Bolt", "2", "LEA", "0.50", "0.75", "1.00", "1.00", "1.50", "2.00"},
		{"TOTAL", "3", "", "", "", "", "1.00", "1.50", "2.00"},
	}
	if diff := cmp.Diff(wantRows, res.Rows); diff != "" {
		t.Errorf("partial rows mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeDuplicateLinesHitCache(t *testing.T) {
	renders := 0
	renderer := render.RendererFunc(func(ctx context.Context, url string) (string, error) {
		renders++
		return pricedPage, nil
	})
	scraper, client := newTestScraper(t, renderer, nil)

	res, err := scraper.Scrape(context.Background(), []inventory.Line{bolt(2), bolt(3)})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	if renders != 1 {
		t.Errorf("rendered %d times, want 1 (second line must hit the cache)", renders)
	}
	if got := client.GetFetchCount(); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
	if res.Hits != 2 || res.Quantity != 5 {
		t.Errorf("hits = %d quantity = %d, want 2 and 5", res.Hits, res.Quantity)
	}
}

func TestScrapeProgress(t *testing.T) {
	renderer := render.RendererFunc(func(ctx context.Context, url string) (string, error) {
		return pricedPage, nil
	})
	var progress bytes.Buffer
	scraper, _ := newTestScraper(t, renderer, &progress)

	lines := []inventory.Line{bolt(1), {Quantity: 1, Card: catalog.Card{Name: "Black Lotus", SetCode: "LEA"}}}
	if _, err := scraper.Scrape(context.Background(), lines); err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	out := progress.String()
	if !strings.HasPrefix(out, "Fetching...") {
		t.Errorf("progress should open with the fetch banner, got %q", out)
	}
	for _, marker := range []string{"\rFetching... (1/2)", "\rFetching... (2/2)"} {
		if !strings.Contains(out, marker) {
			t.Errorf("progress missing %q in %q", marker, out)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("progress should end with a newline, got %q", out)
	}
}

func TestScrapeNoLines(t *testing.T) {
	renderer := render.RendererFunc(func(ctx context.Context, url string) (string, error) {
		t.Error("renderer must not be called for an empty line set")
		return "", nil
	})
	scraper, _ := newTestScraper(t, renderer, nil)

	res, err := scraper.Scrape(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	wantRows := []report.Row{{"TOTAL", "0", "", "", "", "", "0.00", "0.00", "0.00"}}
	if diff := cmp.Diff(wantRows, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}
