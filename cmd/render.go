package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var renderPrompt bool

// renderCmd prints the rendered workspace context for a document.
var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Print the rendered workspace context for a document",
	Long: `Render assembles a wiki editor workspace around the document and prints
the context string an LLM agent would receive: each component framed with
its editable fields, constraints and current values, followed by its
rendered content. With --prompt the full workspace prompt is printed
instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		defer logger.Close()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}

		ctx := context.Background()
		ws, _, err := buildWorkspace(ctx, cfg, logger, path)
		if err != nil {
			return err
		}
		defer ws.Shutdown(ctx)

		if renderPrompt {
			fmt.Fprintln(cmd.OutOrStdout(), ws.GetWorkspacePrompt(ctx))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ws.RenderContext(ctx))
		return nil
	},
}

func init() {
	renderCmd.Flags().BoolVar(&renderPrompt, "prompt", false, "print the full workspace prompt instead of the bare context")

	rootCmd.AddCommand(renderCmd)
}
