package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alrobwilloliver/ytdigest/internal/config"
	"github.com/alrobwilloliver/ytdigest/internal/logging"
	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

var (
	// Config flags
	configPath   string
	verbose      bool
	llmModel     string
	llmAPIKey    string
	llmBaseURL   string
	providerName string
	dbPath       string

	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ytdigest",
		Short: "Summarize YouTube videos from their transcripts",
		Long: `A CLI tool and HTTP service that fetches YouTube video transcripts,
generates structured summaries using an LLM and keeps a library of them.

Transcripts come from YouTube captions directly or from Supadata.
Summaries use any OpenAI-compatible API (OpenRouter by default), Groq or Gemini.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./ytdigest.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&llmModel, "model", "", "LLM model to use (default: from YTDIGEST_MODEL env)")
	rootCmd.PersistentFlags().StringVar(&llmAPIKey, "api-key", "", "LLM API key (default: from YTDIGEST_API_KEY env)")
	rootCmd.PersistentFlags().StringVar(&llmBaseURL, "api-url", "", "LLM API base URL (default: from YTDIGEST_API_URL env)")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "Transcript provider: scrape, timedtext or supadata")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Library database file (default: from YTDIGEST_DB_PATH env)")

	rootCmd.AddCommand(newSummarizeCmd())
	rootCmd.AddCommand(newTranscriptCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLibraryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+describeError(err)))
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	if llmModel != "" {
		cfg.Summarizer.Model = llmModel
	}
	if llmAPIKey != "" {
		cfg.Summarizer.APIKey = llmAPIKey
	}
	if llmBaseURL != "" {
		cfg.Summarizer.BaseURL = llmBaseURL
	}
	if providerName != "" {
		cfg.Transcript.Provider = providerName
	}
	if dbPath != "" {
		cfg.Library.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}

	// The server logs JSON to stdout; CLI commands keep stdout for output.
	out, format := os.Stderr, cfg.Log.Format
	if cmd.Name() == "serve" {
		out = os.Stdout
		if format == "" {
			format = logging.FormatJSON
		}
	} else if !verbose {
		level = max(level, slog.LevelWarn)
	}
	logger = logging.Setup(out, level, format)
	return nil
}

// describeError prefers user-facing copy for classified failures and keeps
// the detail when --verbose is set.
func describeError(err error) string {
	var te *transcript.Error
	if !errors.As(err, &te) {
		return err.Error()
	}
	if verbose {
		return fmt.Sprintf("%s (%v)", transcript.UserMessage(err), err)
	}
	return transcript.UserMessage(err)
}
