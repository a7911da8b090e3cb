package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultPattern matches the three TCGPlayer price tiers on a rendered
// magiccards.info card page: low, mid, and high in that order, each a
// dollar amount with two decimals. Lazy quantifiers keep the match on the
// first price block in document order.
const DefaultPattern = `(?s)TCGPPriceLow".*?\$(\d*\.\d\d).*?TCGPPriceMid.*?\$(\d*\.\d\d).*?TCGPPriceHigh[^$]*\$(\d*\.\d\d)`

// Quote holds the three price tiers exactly as they appeared on the page,
// two decimals each.
type Quote struct {
	Low  string
	Mid  string
	High string
}

// Values parses the three tiers as floats for line-total arithmetic.
// Extractors only produce strings in \d*.\d\d form, so parsing cannot
// fail on a Quote they returned.
func (q Quote) Values() (low, mid, high float64) {
	low, _ = strconv.ParseFloat(q.Low, 64)
	mid, _ = strconv.ParseFloat(q.Mid, 64)
	high, _ = strconv.ParseFloat(q.High, 64)
	return low, mid, high
}

// Extractor pulls a price quote out of rendered page text. The boolean is
// false when the page carries no recognizable prices; that is a miss, not
// an error.
type Extractor interface {
	Extract(text string) (Quote, bool)
}

// RegexExtractor extracts prices with a single pattern whose first three
// capture groups are the low, mid, and high amounts.
type RegexExtractor struct {
	re *regexp.Regexp
}

func NewRegexExtractor(pattern string) (*RegexExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling price pattern: %w", err)
	}
	if re.NumSubexp() < 3 {
		return nil, fmt.Errorf("price pattern needs 3 capture groups, has %d", re.NumSubexp())
	}
	return &RegexExtractor{re: re}, nil
}

func (e *RegexExtractor) Extract(text string) (Quote, bool) {
	groups := e.re.FindStringSubmatch(text)
	if groups == nil {
		return Quote{}, false
	}
	return Quote{Low: groups[1], Mid: groups[2], High: groups[3]}, true
}

var amountRe = regexp.MustCompile(`\$(\d*\.\d\d)`)

// SelectorExtractor extracts prices from sources that serve each tier in
// its own element, addressed by CSS selector. The selector's first node
// must contain a dollar amount.
type SelectorExtractor struct {
	LowSelector  string
	MidSelector  string
	HighSelector string
}

func (e *SelectorExtractor) Extract(text string) (Quote, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return Quote{}, false
	}

	low, ok := selectAmount(doc, e.LowSelector)
	if !ok {
		return Quote{}, false
	}
	mid, ok := selectAmount(doc, e.MidSelector)
	if !ok {
		return Quote{}, false
	}
	high, ok := selectAmount(doc, e.HighSelector)
	if !ok {
		return Quote{}, false
	}
	return Quote{Low: low, Mid: mid, High: high}, true
}

func selectAmount(doc *goquery.Document, selector string) (string, bool) {
	text := doc.Find(selector).First().Text()
	groups := amountRe.FindStringSubmatch(text)
	if groups == nil {
		return "", false
	}
	return groups[1], true
}
