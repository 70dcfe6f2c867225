package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/resttree/core/formatter"
)

var (
	routesOutput  string
	routesColumns string
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the assembled resource tree",
	Long: `Assemble the configured services and print one line per verb slot
of the resource tree.

Examples:
  resttree routes
  resttree routes -o json
  resttree routes --columns path,verb`,
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)

	routesCmd.Flags().StringVarP(&routesOutput, "output", "o", "table", "output format: table, json, yaml")
	routesCmd.Flags().StringVar(&routesColumns, "columns", "", "comma separated columns to show")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	f, err := formatter.NewRegistry().Get(routesOutput)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := assemble(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Shutdown(context.Background())

	var opts formatter.FormatOptions
	if routesColumns != "" {
		opts.Columns = strings.Split(routesColumns, ",")
	}
	return f.Format(cmd.OutOrStdout(), formatter.Routes(app.Registry.Routes()), opts)
}
