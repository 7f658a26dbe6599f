package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
)

func newGraphCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:       "graph <analysis|prompt|full>",
		Short:     "Print a pipeline graph's topology",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(pipeline.KindAnalysis), string(pipeline.KindPrompt), string(pipeline.KindFull)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := pipeline.ParseKind(args[0])
			if err != nil {
				return err
			}
			factory := pipeline.NewFactory(ctx.services(logging.NewNop()), nil)
			g, err := factory.Build(kind)
			if err != nil {
				return err
			}
			topology := g.Topology()

			out := cmd.OutOrStdout()
			switch strings.ToLower(strings.TrimSpace(format)) {
			case "", "mermaid":
				fmt.Fprint(out, topology.ToMermaid())
			case "yaml":
				data, err := topology.ToYAML()
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(data))
			case "json":
				data, err := topology.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			default:
				return fmt.Errorf("unknown format %q (want mermaid, yaml or json)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "mermaid", "Output format: mermaid, yaml or json")
	return cmd
}
