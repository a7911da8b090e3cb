// Package cmd holds the mtgprices command line interface.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mtg_card_prices/internal/app"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	overwrite  bool
	debug      bool
	configPath string
)

// RootCmd runs one full price lookup: read the inventory, scrape the price
// site for every resolved card, write the report.
var RootCmd = &cobra.Command{
	Use:   "mtgprices [flags] <input> <output>",
	Short: "Fetch current market prices for a Magic card inventory",
	Long: `mtgprices reads a card inventory export, resolves each row against the
local card catalog, scrapes the price site for low/mid/high quotes, and
writes a CSV report with per-card and total prices.

The report is written even when the run fails partway through, so an
interrupted scrape still leaves the rows it got.`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		app.SetupEnvironment()

		path := configPath
		if !cmd.Flags().Changed("config") {
			path = app.GetEnvWithDefault("MTGPRICES_CONFIG", configPath)
		}
		cfg, err := app.LoadConfig(path)
		if err != nil {
			return err
		}

		if debug {
			if err := app.EnableDebugLog(cfg.Files.Debug); err != nil {
				log.Warn().Err(err).Msg("Debug log unavailable, continuing without it")
			}
		}

		// An interrupt cancels the scrape loop; the pipeline still writes
		// whatever it has before the command returns.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		comps, err := app.InitializePipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer comps.Close()

		runErr := comps.Pipeline.Run(ctx, args[0], args[1], overwrite)

		log.Debug().
			Int64("fetches", comps.Render.GetFetchCount()).
			Msg("Remote fetches this run")

		fmt.Println(comps.Pipeline.Summary())
		return runErr
	},
}

func init() {
	RootCmd.Flags().BoolVarP(&overwrite, "overwrite", "w", false, "overwrite the output file instead of appending")
	RootCmd.Flags().BoolVar(&debug, "debug", false, "log debug detail and mirror it to the debug file")
	RootCmd.Flags().StringVar(&configPath, "config", app.DefaultConfigPath, "path to the config file")
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
