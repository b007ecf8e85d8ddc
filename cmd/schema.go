package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// schemaCmd prints the editable-field surface of the workspace.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the editable-field schema of the workspace",
	Long: `Schema lists every editable field the workspace exposes, with its owning
component, description, constraints and dependent side effects, as JSON.
This is the surface an embedding application advertises to its LLM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		defer logger.Close()

		ctx := context.Background()
		ws, _, err := buildWorkspace(ctx, cfg, logger, "")
		if err != nil {
			return err
		}
		defer ws.Shutdown(ctx)

		props := ws.GetEditablePropsSchema()
		fields := make([]map[string]any, 0, len(props.Order))
		for _, name := range props.Order {
			field := props.Fields[name]
			fields = append(fields, map[string]any{
				"field":       name,
				"component":   field.ComponentID,
				"description": field.Description,
				"constraints": field.Constraints,
				"depends_on":  field.DependsOn,
			})
		}

		out, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
