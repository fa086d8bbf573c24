package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alrobwilloliver/ytdigest/internal/digest"
	"github.com/alrobwilloliver/ytdigest/internal/summarize"
)

func newSummarizeCmd() *cobra.Command {
	var (
		lang   string
		noSave bool
		asJSON bool
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "summarize <youtube-url>",
		Short: "Fetch transcript and summarize a YouTube video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := digest.Open(ctx, cfg, logger, digest.Parts{Summarizer: true, Library: !noSave})
			if err != nil {
				return err
			}
			defer svc.Close()

			if lang == "" {
				lang = cfg.Transcript.Language
			}

			var resp *digest.Response
			err = runWithSpinner("Summarizing video", func() error {
				resp, err = svc.Summarize(ctx, args[0], lang)
				return err
			})
			if err != nil {
				return err
			}

			switch {
			case asJSON:
				return printJSON(resp)
			case raw:
				fmt.Println(resp.Summary)
				return nil
			}

			fmt.Print(renderVideoHeader(resp))
			fmt.Print(renderSummary(summarize.ParseStructured(resp.Summary)))
			if !noSave {
				fmt.Fprintln(os.Stderr, mutedStyle.Render("\nSaved to library as "+resp.VideoID))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Caption language (default: en)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save the summary to the library")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the model output without formatting")
	return cmd
}

func newTranscriptCmd() *cobra.Command {
	var (
		lang   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "transcript <youtube-url>",
		Short: "Fetch and display the transcript only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := digest.Open(ctx, cfg, logger, digest.Parts{})
			if err != nil {
				return err
			}
			defer svc.Close()

			if lang == "" {
				lang = cfg.Transcript.Language
			}

			var resp *digest.Response
			err = runWithSpinner("Fetching transcript", func() error {
				resp, err = svc.Transcript(ctx, args[0], lang)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(resp)
			}

			fmt.Print(renderVideoHeader(resp))
			source := resp.Strategy
			if resp.Cached {
				source += ", cached"
			}
			fmt.Println(mutedStyle.Render(fmt.Sprintf("%s · %d chars (%s)", resp.Language, len(resp.Text), source)))
			fmt.Println()
			fmt.Println(resp.Text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Caption language (default: en)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
