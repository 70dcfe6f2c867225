package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/resttree/bootstrap"
	"github.com/artpar/resttree/config"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "resttree",
	Short: "REST resources assembled from service signatures",
	Long: `resttree builds a tree of REST resources from the shape of service
calls and YAML model definitions, and serves it over HTTP.

Quick start:
  resttree serve      # Start the HTTP server
  resttree routes     # Print the assembled resource tree
  resttree call get / # Dispatch one request without a server
  resttree openapi    # Print an OpenAPI description of the tree
  resttree validate   # Check configuration and models`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "resttree.yaml", "config file path")
}

// loadConfig reads the config file, or the environment when it is absent.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// assemble builds the application quietly, for commands that inspect the
// tree without serving it. Warnings still reach w.
func assemble(cfg *config.Config, w io.Writer) (*bootstrap.App, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).Level(zerolog.WarnLevel)
	return bootstrap.New(cfg, logger)
}

// bootLogger logs until the configured logger exists.
func bootLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
