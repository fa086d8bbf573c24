package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/alrobwilloliver/ytdigest/internal/digest"
	"github.com/alrobwilloliver/ytdigest/internal/library"
	"github.com/alrobwilloliver/ytdigest/internal/metadata"
	"github.com/alrobwilloliver/ytdigest/internal/summarize"
)

func newLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Browse and manage saved summaries",
	}

	cmd.AddCommand(newLibraryListCmd())
	cmd.AddCommand(newLibraryShowCmd())
	cmd.AddCommand(newLibraryDeleteCmd())
	cmd.AddCommand(newLibraryClearCmd())
	return cmd
}

// withLibrary opens the configured store for the duration of fn.
func withLibrary(cmd *cobra.Command, fn func(store library.Store) error) error {
	store, err := digest.OpenLibrary(cmd.Context(), cfg.Library)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newLibraryListCmd() *cobra.Command {
	var (
		query  string
		sortBy string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved summaries, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sort, err := library.ParseSort(sortBy)
			if err != nil {
				return err
			}

			return withLibrary(cmd, func(store library.Store) error {
				list, err := store.List(cmd.Context(), library.ListOptions{Query: query, Sort: sort, Limit: limit})
				if err != nil {
					return err
				}

				if asJSON {
					if list == nil {
						list = []library.Summary{}
					}
					return printJSON(list)
				}
				if len(list) == 0 {
					fmt.Println(mutedStyle.Render("No summaries saved yet."))
					return nil
				}

				for _, s := range list {
					fmt.Printf("%s  %s\n", mutedStyle.Render(s.ID), titleStyle.Render(s.Title))
					details := []string{s.ChannelName, s.CreatedAt.Local().Format("2006-01-02 15:04")}
					if s.Duration != "" && s.Duration != metadata.UnknownDuration {
						details = append(details, s.Duration)
					}
					fmt.Printf("             %s\n", mutedStyle.Render(strings.Join(details, " · ")))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by title (case-insensitive)")
	cmd.Flags().StringVar(&sortBy, "sort", "recent", "Sort order: recent, newest, oldest or title")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newLibraryShowCmd() *cobra.Command {
	var (
		withTranscript bool
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "show <video-id>",
		Short: "Show a saved summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, func(store library.Store) error {
				s, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, library.ErrNotFound) {
					return fmt.Errorf("no saved summary with id %q", args[0])
				}
				if err != nil {
					return err
				}

				if asJSON {
					return printJSON(s)
				}

				fmt.Print(renderVideoHeader(&digest.Response{
					Title:       s.Title,
					ChannelName: s.ChannelName,
					Duration:    s.Duration,
					ViewCount:   s.ViewCount,
				}))
				fmt.Println(mutedStyle.Render(s.VideoURL))
				fmt.Print(renderSummary(summarize.ParseStructured(s.Summary)))
				if withTranscript {
					fmt.Println(headingStyle.Render("Transcript"))
					fmt.Println(s.Transcript)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&withTranscript, "transcript", "t", false, "Also print the transcript")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newLibraryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <video-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved summary",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, func(store library.Store) error {
				err := store.Delete(cmd.Context(), args[0])
				if errors.Is(err, library.ErrNotFound) {
					return fmt.Errorf("no saved summary with id %q", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Println(successStyle.Render("✓ Deleted " + args[0]))
				return nil
			})
		},
	}
}

func newLibraryClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, func(store library.Store) error {
				list, err := store.List(cmd.Context(), library.ListOptions{})
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Println(mutedStyle.Render("Library is already empty."))
					return nil
				}

				if !yes {
					err := huh.NewConfirm().
						Title("Clear library").
						Description(fmt.Sprintf("Delete all %d saved summaries? This cannot be undone.", len(list))).
						Affirmative("Delete").
						Negative("Cancel").
						Value(&yes).
						Run()
					if err != nil {
						return err
					}
					if !yes {
						fmt.Println(warnStyle.Render("Cancelled"))
						return nil
					}
				}

				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Println(successStyle.Render(fmt.Sprintf("✓ Cleared %d summaries", len(list))))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
