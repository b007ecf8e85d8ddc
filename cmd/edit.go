package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wjixiang/aikb/pkg/config"
	"github.com/wjixiang/aikb/pkg/logging"
	"github.com/wjixiang/aikb/pkg/wikieditor"
	"github.com/wjixiang/aikb/pkg/workspace"
)

var (
	editCommand string
	editWrite   bool
	editOutput  string
)

// editCmd applies XML edit commands to a document file.
var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Apply XML edit commands to a document",
	Long: `Edit loads the document into a wiki editor workspace and applies the
given XML edit commands through its edit_command field, exactly as an LLM
agent would. The transformed document is printed to stdout, or written back
in place with --write.

Example:
  aikb edit notes.md -c '<append><content>New section</content></append>'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		defer logger.Close()

		command := editCommand
		if command == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read command from stdin: %w", err)
			}
			command = string(data)
		}

		ctx := context.Background()
		ws, editor, err := buildWorkspace(ctx, cfg, logger, args[0])
		if err != nil {
			return err
		}
		defer ws.Shutdown(ctx)

		result := ws.UpdateEditableProps(ctx, wikieditor.FieldEditCommand, command)
		if !result.Success {
			return fmt.Errorf("update rejected: %s", result.Error)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), editor.LastResult())

		out := editor.Document()
		switch {
		case editWrite:
			return os.WriteFile(args[0], []byte(out), 0o644)
		case editOutput != "":
			return os.WriteFile(editOutput, []byte(out), 0o644)
		default:
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
	},
}

func init() {
	editCmd.Flags().StringVarP(&editCommand, "command", "c", "", "XML edit command(s); read from stdin when omitted")
	editCmd.Flags().BoolVarP(&editWrite, "write", "w", false, "write the result back to the input file")
	editCmd.Flags().StringVarP(&editOutput, "output", "o", "", "write the result to this file instead of stdout")

	rootCmd.AddCommand(editCmd)
}

// buildWorkspace assembles a workspace around one wiki editor seeded with
// the contents of path. An empty path starts from an empty document.
func buildWorkspace(ctx context.Context, cfg config.Config, logger *logging.Logger, path string) (*workspace.Core, *wikieditor.WikiEditor, error) {
	content := ""
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("read document %s: %w", path, err)
		}
		content = string(data)
	}

	ws := workspace.NewCore("wiki", "Document editing workspace", cfg, logger, nil)
	editor := wikieditor.New("wiki-editor", content, cfg, nil)
	if err := ws.AddComponent(ctx, editor); err != nil {
		return nil, nil, err
	}
	if err := ws.Init(ctx); err != nil {
		return nil, nil, err
	}
	return ws, editor, nil
}
