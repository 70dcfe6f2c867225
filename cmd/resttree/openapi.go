package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artpar/resttree/core/openapi"
)

var (
	openapiFormat string
	openapiServer string
)

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Print an OpenAPI description of the resource tree",
	Long: `Assemble the configured services and print an OpenAPI 3.0 document
describing every resource and verb.

Examples:
  resttree openapi > openapi.json
  resttree openapi --format yaml --server https://api.example.com`,
	RunE: runOpenAPI,
}

func init() {
	rootCmd.AddCommand(openapiCmd)

	openapiCmd.Flags().StringVarP(&openapiFormat, "format", "f", "json", "document format: json, yaml")
	openapiCmd.Flags().StringVar(&openapiServer, "server", "", "server URL to list in the document")
}

func runOpenAPI(cmd *cobra.Command, args []string) error {
	if openapiFormat != "json" && openapiFormat != "yaml" {
		return fmt.Errorf("unknown document format %q (available: json, yaml)", openapiFormat)
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

	gen := openapi.NewGenerator(app.Registry.Routes())
	if openapiServer != "" {
		gen.AddServer(openapiServer, "")
	}
	spec := gen.Generate()

	out := cmd.OutOrStdout()
	if openapiFormat == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(spec); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(spec)
}
