package scrape

import "mtg_card_prices/internal/catalog"

// Source names a price site and how to reach and read it. The URL shapes
// below reproduce what the site actually accepts; its query parser wants
// the quotes and spaces raw, so none of the pieces are URL-escaped.
type Source struct {
	Name    string
	BaseURL string
	Pattern string
}

// DefaultSource is the magiccards.info card index with TCGPlayer prices.
func DefaultSource() Source {
	return Source{
		Name:    "magiccards.info",
		BaseURL: "http://magiccards.info",
		Pattern: DefaultPattern,
	}
}

// CardURL addresses a card page directly by site set code and collector
// number.
func (s Source) CardURL(siteCode, number string) string {
	return s.BaseURL + "/" + siteCode + "/en/" + number + ".html"
}

// ScopedQueryURL searches for a card name within one set.
func (s Source) ScopedQueryURL(name, siteCode string) string {
	return s.BaseURL + `/query?q="` + name + `" e:` + siteCode + "/en"
}

// QueryURL searches for a card name across all sets.
func (s Source) QueryURL(name string) string {
	return s.BaseURL + `/query?q="` + name + `"`
}

// URLFor picks the most specific URL the card's identifiers allow: direct
// page when the collector number is known, set-scoped query when only the
// set is, name query otherwise.
func (s Source) URLFor(card catalog.Card, siteCode string) string {
	if siteCode != "" {
		if card.Number != "" {
			return s.CardURL(siteCode, card.Number)
		}
		return s.ScopedQueryURL(card.Name, siteCode)
	}
	return s.QueryURL(card.Name)
}
