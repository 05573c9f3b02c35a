package main

import (
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/claude/fitforge/internal/client"
	"github.com/claude/fitforge/internal/exercise"
)

// commandContext carries the global flags to subcommands.
type commandContext struct {
	url     string
	apiKey  string
	jsonOut bool
}

func (c *commandContext) client() *client.Client {
	return client.New(c.url, c.apiKey)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "fitforge-cli",
		Short:         "FitForge training client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.url, "url", envOr("FITFORGE_URL", "http://localhost:8080"), "FitForge server base URL")
	rootCmd.PersistentFlags().StringVar(&ctx.apiKey, "api-key", os.Getenv("FITFORGE_API_KEY"), "API key, if the server requires one")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonOut, "json", false, "Print raw JSON instead of tables")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newTimelineCommand(ctx))
	rootCmd.AddCommand(newRecommendCommand(ctx))
	rootCmd.AddCommand(newForecastCommand(ctx))
	rootCmd.AddCommand(newLogCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newSummaryCommand(ctx))
	rootCmd.AddCommand(newBaselinesCommand(ctx))
	rootCmd.AddCommand(newExercisesCommand(ctx))
	rootCmd.AddCommand(newCalibrateCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))

	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadLibrary resolves free-text exercise names locally. The server ships
// the same embedded library.
var loadLibrary = sync.OnceValues(exercise.Default)
