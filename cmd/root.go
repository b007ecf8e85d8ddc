package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wjixiang/aikb/pkg/config"
	"github.com/wjixiang/aikb/pkg/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aikb",
	Short: "Stateful workspace engine for LLM agents",
	Long: `Aikb hosts introspectable workspaces for LLM agents: components with
typed state, schema-validated editable fields and dependency-driven side
effects. The built-in wiki editor turns a document into such a workspace,
edited through XML commands.

Available commands:
  edit     - Apply XML edit commands to a document
  render   - Print the rendered workspace context for a document
  schema   - Print the editable-field schema of the workspace
  version  - Print version information`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional; environment overrides still apply without it.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".aikb/config.yaml", "config file")
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	return config.ApplyEnv(cfg), nil
}

func newLogger(cfg config.Config) *logging.Logger {
	return logging.New(logging.Options{
		Filename:   cfg.Log.Filename,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		JSONMode:   cfg.Log.JSONMode,
	})
}
