package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/resttree/core/formatter"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and models before deployment",
	Long: `Validate the resttree configuration.

Checks:
  - Configuration is valid
  - Model definitions parse
  - Every call is placed on the resource tree (--strict fails otherwise)

Examples:
  resttree validate
  resttree validate --strict --config /etc/resttree/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "fail when a call cannot be assembled")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "  %s Configuration valid\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Configuration valid\n", checkMark)
	fmt.Fprintf(out, "  %s Listen address: %s%s\n", checkMark, cfg.Server.Addr(), cfg.Server.BasePath)

	app, err := assemble(cfg, cmd.ErrOrStderr())
	if err != nil {
		fmt.Fprintf(out, "  %s Resource tree assembled\n", crossMark)
		return err
	}
	defer app.Shutdown(context.Background())

	for _, r := range app.Reports {
		fmt.Fprintf(out, "  %s Service %s: %d call(s) placed\n", checkMark, r.Service, len(r.Assembled))
	}
	fmt.Fprintf(out, "  %s Routes: %d\n", checkMark, len(app.Registry.Routes()))

	unassembled := app.Registry.Unassembled()
	if len(unassembled) == 0 {
		fmt.Fprintf(out, "\nConfiguration is valid.\n")
		return nil
	}

	fmt.Fprintf(out, "  %s Unassembled calls: %d\n\n", crossMark, len(unassembled))
	if err := (formatter.TableFormatter{}).Format(out, formatter.Unassembled(unassembled), formatter.FormatOptions{}); err != nil {
		return err
	}
	if validateStrict {
		return fmt.Errorf("%d call(s) could not be assembled", len(unassembled))
	}
	return nil
}
