// Package output renders CLI messages and tables.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/joescharf/discissue/internal/models"
)

// UI provides colored output and respects verbose/dry-run modes.
type UI struct {
	Verbose bool
	DryRun  bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	bold          = color.New(color.Bold).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// Green returns a green-colored string.
func Green(s string) string { return green(s) }

// Yellow returns a yellow-colored string.
func Yellow(s string) string { return yellow(s) }

// FiledLabel describes whether an issue has been filed on GitHub.
func FiledLabel(i *models.GeneratedIssue) string {
	if i.Filed() {
		return green(fmt.Sprintf("#%d", i.External.Number))
	}
	return yellow("draft")
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

func (u *UI) DryRunMsg(format string, a ...any) {
	if u.DryRun {
		u.Warning("[DRY-RUN] "+format, a...)
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// IssueTable prints one row per generated issue.
func (u *UI) IssueTable(issues []*models.GeneratedIssue) error {
	table := u.Table([]string{"ID", "Repo", "Title", "Labels", "GitHub", "Created"})
	for _, i := range issues {
		if err := table.Append([]string{
			shortID(i.ID),
			i.RepoHint,
			truncate(i.Title, 60),
			strings.Join(i.Labels, ","),
			FiledLabel(i),
			i.CreatedAt.Local().Format("2006-01-02 15:04"),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// IssueDetail prints a single generated issue in full.
func (u *UI) IssueDetail(i *models.GeneratedIssue) {
	fmt.Fprintf(u.Out, "%s\n\n", bold(i.Title))
	fmt.Fprintf(u.Out, "ID:      %s\n", cyan(i.ID))
	fmt.Fprintf(u.Out, "Repo:    %s\n", i.RepoHint)
	if len(i.Labels) > 0 {
		fmt.Fprintf(u.Out, "Labels:  %s\n", strings.Join(i.Labels, ", "))
	}
	if i.Filed() {
		fmt.Fprintf(u.Out, "GitHub:  %s\n", green(i.External.URL))
	} else {
		fmt.Fprintf(u.Out, "GitHub:  %s\n", yellow("not filed"))
	}
	fmt.Fprintf(u.Out, "Created: %s\n\n", i.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(u.Out, i.Body)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
