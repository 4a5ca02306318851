package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/presentation/tui"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate and show a rendered sample instead of raw JSONL",
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().String("templates", "", "Template catalog file (YAML)")
	previewCmd.Flags().String("scenes", "", "Scene graphs file (JSON)")
	previewCmd.Flags().String("synonyms", "", "Synonym dictionary file (YAML, optional)")
	previewCmd.Flags().String("config", "", "Run configuration file (YAML, optional)")
	previewCmd.Flags().Int64("seed", 0, "Random seed (overrides config)")
	previewCmd.Flags().Int("sample", 10, "How many records to show")
	_ = previewCmd.MarkFlagRequired("templates")
	_ = previewCmd.MarkFlagRequired("scenes")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	records, report, err := runEngine(cmd)
	if err != nil {
		return err
	}

	sample, _ := cmd.Flags().GetInt("sample")
	markdown := tui.PreviewMarkdown(records, report, sample)

	if term.IsTerminal(int(os.Stdout.Fd())) {
		render := tui.NewMarkdownRenderer()
		out, err := render(markdown)
		if err == nil {
			fmt.Print(out)
			return nil
		}
	}
	fmt.Print(markdown)
	return nil
}
