package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/alrobwilloliver/ytdigest/internal/digest"
	"github.com/alrobwilloliver/ytdigest/internal/metadata"
	"github.com/alrobwilloliver/ytdigest/internal/summarize"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
)

// runWithSpinner shows a spinner while fn runs. Without a terminal, or with
// debug logs interleaving, fn runs plainly.
func runWithSpinner(title string, fn func() error) error {
	if verbose || !isTerminal(os.Stdout) {
		return fn()
	}

	return spin(title, fn, func(action func() error) error {
		return spinner.New().
			Title(title).
			ActionWithErr(func(context.Context) error { return action() }).
			Run()
	})
}

// spin runs fn as the action of run. If run returns without having started
// the action, fn runs plainly so its result is never lost. Once the action
// has started, its result wins over whatever run reports.
func spin(title string, fn func() error, run func(action func() error) error) error {
	var (
		claimed atomic.Bool
		done    = make(chan struct{})
		err     error
	)
	_ = run(func() error {
		if !claimed.CompareAndSwap(false, true) {
			return nil
		}
		defer close(done)
		err = fn()
		return err
	})
	if claimed.CompareAndSwap(false, true) {
		return fn()
	}
	<-done
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, successStyle.Render("✓ "+title))
	return nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// renderVideoHeader prints the title line and the channel/duration/views line.
func renderVideoHeader(resp *digest.Response) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(resp.Title))
	b.WriteString("\n")

	details := []string{resp.ChannelName}
	if resp.Duration != "" && resp.Duration != metadata.UnknownDuration {
		details = append(details, resp.Duration)
	}
	if resp.ViewCount > 0 {
		details = append(details, metadata.FormatViewCount(resp.ViewCount)+" views")
	}
	b.WriteString(mutedStyle.Render(strings.Join(details, " · ")))
	b.WriteString("\n")
	return b.String()
}

func renderSummary(s summarize.Structured) string {
	var b strings.Builder

	if s.Overview != "" {
		b.WriteString(headingStyle.Render("Overview"))
		b.WriteString("\n")
		b.WriteString(s.Overview)
		b.WriteString("\n")
	}
	renderList(&b, "Main topics", s.MainTopics)
	renderList(&b, "Key points", s.KeyPoints)

	if s.Insights != "" {
		b.WriteString(headingStyle.Render("Insights"))
		b.WriteString("\n")
		b.WriteString(s.Insights)
		b.WriteString("\n")
	}

	if len(s.Tags) > 0 {
		b.WriteString(headingStyle.Render("Tags"))
		b.WriteString("\n")
		tags := make([]string, len(s.Tags))
		for i, t := range s.Tags {
			tags[i] = tagStyle.Render(t)
		}
		b.WriteString(strings.Join(tags, " "))
		b.WriteString("\n")
	}
	return b.String()
}

func renderList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(headingStyle.Render(heading))
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("  • " + item + "\n")
	}
}
