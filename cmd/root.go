package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/quizforge/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "quizforge",
	Short: "AI-assisted quiz generation",
	Long: `quizforge turns a topic and optional course material into a quiz.

Questions are requested from an LLM backend, parsed, validated and topped
up with follow-up requests until the quiz is full or the retry budget is
spent.`,
	SilenceUsage: true,
}

// settings collects config file, environment and flag values.
var settings = config.New()

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default: ./quizforge.yaml or $XDG_CONFIG_HOME/quizforge/quizforge.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides QUIZFORGE_DB env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	_ = settings.BindPFlag("db", pf.Lookup("db"))
	_ = settings.BindPFlag("log.level", pf.Lookup("log-level"))

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(quizzesCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
