// Package catalog holds the canonical card reference data the resolver
// matches inventory rows against. The on-disk source is an MTGJSON
// AllSets-style file: a JSON object keyed by canonical set code, each set
// carrying its card list.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
)

// Card is the canonical identity of one printing. Number is the collector
// number and may be blank; printings without one have to be looked up by
// name+set query instead of a direct page.
type Card struct {
	Name    string
	SetCode string
	Number  string
}

type setEntry struct {
	Name  string      `json:"name"`
	Cards []cardEntry `json:"cards"`
}

type cardEntry struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Catalog is an in-memory index of every known (name, set) printing. It is
// read-only after Load.
type Catalog struct {
	cards map[cardKey]Card
	names []string
}

type cardKey struct {
	name    string
	setCode string
}

// Load parses the card reference file at path and indexes it for lookup.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening card data: %w", err)
	}

	var sets map[string]setEntry
	if err := json.Unmarshal(raw, &sets); err != nil {
		return nil, fmt.Errorf("parsing card data %s: %w", path, err)
	}

	c := &Catalog{cards: make(map[cardKey]Card)}
	seenNames := make(map[string]struct{})
	for code, set := range sets {
		for _, card := range set.Cards {
			key := cardKey{name: card.Name, setCode: code}
			// Duplicate printings within a set (basic lands and the
			// like) keep the first entry, matching the scan order a
			// flat table would have.
			if _, ok := c.cards[key]; ok {
				continue
			}
			c.cards[key] = Card{Name: card.Name, SetCode: code, Number: card.Number}
			if _, ok := seenNames[card.Name]; !ok {
				seenNames[card.Name] = struct{}{}
				c.names = append(c.names, card.Name)
			}
		}
	}
	sort.Strings(c.names)

	log.Debug().
		Str("path", path).
		Int("sets", len(sets)).
		Int("printings", len(c.cards)).
		Msg("Loaded card catalog")

	return c, nil
}

// NewCatalog indexes cards supplied directly, for callers that do not load
// from disk.
func NewCatalog(cards []Card) *Catalog {
	c := &Catalog{cards: make(map[cardKey]Card, len(cards))}
	seenNames := make(map[string]struct{})
	for _, card := range cards {
		key := cardKey{name: card.Name, setCode: card.SetCode}
		if _, ok := c.cards[key]; ok {
			continue
		}
		c.cards[key] = card
		if _, ok := seenNames[card.Name]; !ok {
			seenNames[card.Name] = struct{}{}
			c.names = append(c.names, card.Name)
		}
	}
	sort.Strings(c.names)
	return c
}

// FindCard looks up a card by exact, case-sensitive name and canonical set
// code. There is no partial or fuzzy fallback: a near miss is a miss.
func (c *Catalog) FindCard(name, setCode string) (Card, bool) {
	card, ok := c.cards[cardKey{name: name, setCode: setCode}]
	return card, ok
}

// Names returns every distinct card name in the catalog, sorted. The
// slice is shared; callers must not modify it.
func (c *Catalog) Names() []string {
	return c.names
}

// Len reports the number of distinct printings indexed.
func (c *Catalog) Len() int {
	return len(c.cards)
}
