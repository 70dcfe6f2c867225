package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/resttree/bootstrap"
	"github.com/artpar/resttree/config"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the resttree HTTP server.

The server will:
  - Load configuration from resttree.yaml (or --config)
  - Or load configuration from RESTTREE_* environment variables
  - Create a table and a resource for every model under models.dir
  - Seal the resource tree and serve it

Only logging.level is applied on reload (file change or SIGHUP); the
resource tree stays as assembled at startup.

Examples:
  resttree serve
  resttree serve --config /etc/resttree/config.yaml
  RESTTREE_DEMO_ENABLED=true resttree serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	var holder *config.Holder
	var cfg *config.Config

	_, statErr := os.Stat(cfgFile)
	hasConfigFile := statErr == nil

	if hasConfigFile && hotReload {
		h, err := config.NewHolder(cfgFile, bootLogger())
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		holder, cfg = h, h.Get()
	} else {
		var err error
		if cfg, err = loadConfig(); err != nil {
			return err
		}
	}

	logger, err := bootstrap.NewLogger(cfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	logger.Info().Str("version", version).Msg("starting resttree")

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	if holder != nil {
		app.Watch(holder)
		if err := holder.WatchFile(); err != nil {
			logger.Warn().Err(err).Msg("config file watch disabled")
		}
		holder.WatchSignals()
	}

	return app.Run(cmd.Context())
}
