package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"mtg_card_prices/internal/inventory"
	"mtg_card_prices/internal/retry"
	"mtg_card_prices/internal/scrape"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

// DefaultConfigPath is where the config file lives unless the --config
// flag or MTGPRICES_CONFIG says otherwise.
const DefaultConfigPath = "conf/conf.toml"

// Config is the whole config file. Every field has a default, so a missing
// file or a sparse one still yields a runnable setup.
type Config struct {
	Files  FilesConfig  `toml:"files"`
	Format FormatConfig `toml:"format"`
	Site   SiteConfig   `toml:"site"`
	Sheets SheetsConfig `toml:"sheets"`
	Notify NotifyConfig `toml:"notify"`
}

// FilesConfig locates the reference data and the debug log.
type FilesConfig struct {
	SetDefs string `toml:"set_defs"`
	SetData string `toml:"set_data"`
	Debug   string `toml:"debug"`
}

// FormatConfig names the inventory layout to read and the report dialect
// to write.
type FormatConfig struct {
	Read  string `toml:"read"`
	Write string `toml:"write"`
}

// SiteConfig describes the price site: where it is, how to fetch its pages,
// and how to pull prices out of them. Pattern drives the default regex
// extractor; filling in Selectors switches to CSS-selector extraction for
// sites that serve each tier in its own element.
type SiteConfig struct {
	Name           string          `toml:"name"`
	BaseURL        string          `toml:"base_url"`
	Pattern        string          `toml:"pattern"`
	Renderer       string          `toml:"renderer"`
	TimeoutSeconds int             `toml:"timeout_seconds"`
	Selectors      SelectorsConfig `toml:"selectors"`
}

// SelectorsConfig holds one CSS selector per price tier.
type SelectorsConfig struct {
	Low  string `toml:"low"`
	Mid  string `toml:"mid"`
	High string `toml:"high"`
}

func (s SelectorsConfig) enabled() bool {
	return s.Low != "" || s.Mid != "" || s.High != ""
}

func (s SelectorsConfig) complete() bool {
	return s.Low != "" && s.Mid != "" && s.High != ""
}

// SheetsConfig controls the optional spreadsheet mirror of the report.
type SheetsConfig struct {
	Enabled       bool   `toml:"enabled"`
	Credentials   string `toml:"credentials"`
	SpreadsheetID string `toml:"spreadsheet_id"`
	Range         string `toml:"range"`
}

// NotifyConfig controls the optional run-completion push.
type NotifyConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Topic   string `toml:"topic"`
}

// DefaultSheetRetry is the retry budget for sheet API calls.
var DefaultSheetRetry = retry.Policy{
	MaxAttempts:    3,
	BaseDelay:      2 * time.Second,
	MaxDelay:       30 * time.Second,
	AttemptTimeout: 15 * time.Second,
}

// DefaultConfig returns the configuration used when no file overrides it:
// reference data under conf/, deckstats inventories in, excel-dialect CSV
// out, pages rendered in headless Chrome, no sheet mirror, no push.
func DefaultConfig() Config {
	src := scrape.DefaultSource()
	return Config{
		Files: FilesConfig{
			SetDefs: "conf/set_defs.csv",
			SetData: "conf/AllSets.json",
			Debug:   "conf/debug.log",
		},
		Format: FormatConfig{
			Read:  inventory.Deckstats.Name,
			Write: "excel",
		},
		Site: SiteConfig{
			Name:           src.Name,
			BaseURL:        src.BaseURL,
			Pattern:        src.Pattern,
			Renderer:       "chrome",
			TimeoutSeconds: 30,
		},
		Sheets: SheetsConfig{
			Credentials: "credentials.json",
			Range:       "Prices!A1",
		},
		Notify: NotifyConfig{
			URL:   "https://ntfy.sh",
			Topic: "mtg-card-prices",
		},
	}
}

// LoadConfig reads the TOML config at path on top of the defaults. A
// missing file is not an error; the tool runs out of the box on defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", path).Msg("No config file found, using defaults")
		return cfg, cfg.Validate()
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decoding config %s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("Loaded config file")
	return cfg, cfg.Validate()
}

// Validate rejects configurations the pipeline cannot be built from.
func (c Config) Validate() error {
	if _, err := inventory.FormatByName(c.Format.Read); err != nil {
		return err
	}
	if c.Format.Write != "excel" {
		return fmt.Errorf("unknown report format %q", c.Format.Write)
	}
	switch c.Site.Renderer {
	case "chrome", "http":
	default:
		return fmt.Errorf("unknown renderer %q (want chrome or http)", c.Site.Renderer)
	}
	if c.Site.Selectors.enabled() && !c.Site.Selectors.complete() {
		return fmt.Errorf("site selectors need all of low, mid, and high")
	}
	return nil
}
