package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var generateRepo string

var generateCmd = &cobra.Command{
	Use:   "generate [file|-]",
	Short: "Generate an issue from a conversation",
	Long: `Generate a structured issue from conversation text and save it.

The text is read from the given file, or from stdin when the argument is
omitted or "-". The issue is not filed on GitHub; use the web frontend
for that.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := "-"
		if len(args) > 0 {
			src = args[0]
		}
		return generateRun(cmd.InOrStdin(), src)
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateRepo, "repo", "r", "", "Target repository (owner/name or github.com URL)")
	_ = generateCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(generateCmd)
}

func readSource(stdin io.Reader, src string) (string, error) {
	if src == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src, err)
	}
	return string(data), nil
}

func generateRun(stdin io.Reader, src string) error {
	text, err := readSource(stdin, src)
	if err != nil {
		return err
	}

	s, err := getStore()
	if err != nil {
		return err
	}
	gen, err := newGenerator(s, slog.Default())
	if err != nil {
		return err
	}

	ui.VerboseLog("Generating issue for %s (%d bytes of text)", generateRepo, len(text))
	issue, err := gen.Generate(context.Background(), text, generateRepo)
	if err != nil {
		return err
	}

	ui.Success("Saved issue %s", issue.ID)
	fmt.Fprintln(ui.Out)
	ui.IssueDetail(issue)
	return nil
}
