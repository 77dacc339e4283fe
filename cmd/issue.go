package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/discissue/internal/store"
)

var (
	issueRepo    string
	issueUnfiled bool
	issueLimit   int
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Browse generated issues",
	Long:  "List and inspect issues generated from conversations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List generated issues, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show <issue-id>",
	Short: "Show issue details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueShowRun(args[0])
	},
}

func init() {
	issueListCmd.Flags().StringVar(&issueRepo, "repo", "", "Filter by repository hint")
	issueListCmd.Flags().BoolVar(&issueUnfiled, "unfiled", false, "Only issues not yet filed on GitHub")
	issueListCmd.Flags().IntVar(&issueLimit, "limit", 50, "Maximum number of issues")

	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueShowCmd)
	rootCmd.AddCommand(issueCmd)
}

func issueListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	issues, err := s.ListIssues(context.Background(), store.IssueListFilter{
		RepoHint: issueRepo,
		Unfiled:  issueUnfiled,
		Limit:    issueLimit,
	})
	if err != nil {
		return err
	}

	if len(issues) == 0 {
		ui.Info("No issues found")
		return nil
	}
	return ui.IssueTable(issues)
}

func issueShowRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	gen, err := s.GetIssue(context.Background(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("issue not found: %s", id)
	}
	if err != nil {
		return err
	}

	ui.IssueDetail(gen)
	return nil
}
