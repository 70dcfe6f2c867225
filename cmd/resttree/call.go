package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/resttree/core/channel/cli"
	"github.com/artpar/resttree/core/formatter"
	"github.com/artpar/resttree/core/resource"
)

var (
	callOutput string
	callData   string
	callParams []string
)

var callCmd = &cobra.Command{
	Use:   "call <verb> <path>",
	Short: "Dispatch one request against the resource tree",
	Long: `Assemble the configured services and dispatch a single request,
without starting the HTTP server. The verb is one of GET, INSERT, UPDATE
or DELETE.

Examples:
  resttree call get /
  resttree call get /Publication --param language=fr
  resttree call insert /Publication --data '{"Name": "Weekly", "Language": "de"}'
  resttree call delete /Publication/3`,
	Args: cobra.ExactArgs(2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVarP(&callOutput, "output", "o", "table", "output format: table, json, yaml")
	callCmd.Flags().StringVarP(&callData, "data", "d", "", "JSON content for insert and update")
	callCmd.Flags().StringArrayVarP(&callParams, "param", "p", nil, "name=value parameter, repeatable")
}

func runCall(cmd *cobra.Command, args []string) error {
	verb, err := resource.ParseVerb(args[0])
	if err != nil {
		return err
	}
	f, err := formatter.NewRegistry().Get(callOutput)
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

	res := app.CLI.Dispatch(cmd.Context(), cli.Call{
		Verb:   verb,
		Path:   args[1],
		Params: callParams,
		Data:   callData,
	})

	out := cmd.OutOrStdout()
	if !res.OK() {
		return fmt.Errorf("%s %s: %s (%d %s)", verb, args[1], res.Message, res.Code.Status, res.Code.Name)
	}
	if res.Location != "" {
		fmt.Fprintf(out, "%s %s %s\n", checkMark, res.Message, res.Location)
		return nil
	}
	if res.Data.Name == "" {
		fmt.Fprintf(out, "%s %s\n", checkMark, res.Message)
		return nil
	}
	return f.Format(out, res.Data, formatter.FormatOptions{})
}
