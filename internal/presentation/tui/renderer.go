package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/runtime"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/dataset"
)

// NewMarkdownRenderer returns a function that renders markdown using
// glamour, auto-detecting a light or dark terminal background.
func NewMarkdownRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PreviewMarkdown builds a markdown summary of a run: headline numbers, the
// answer histogram, and a sample of rendered questions.
func PreviewMarkdown(records []dataset.Record, report *runtime.Report, sample int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Generation run %s\n\n", report.RunID)
	fmt.Fprintf(&b, "- seed: `%d`\n", report.Seed)
	fmt.Fprintf(&b, "- scenes: %d (skipped %d)\n", report.Scenes, len(report.SkippedScenes))
	fmt.Fprintf(&b, "- records: %d\n", report.Records)
	fmt.Fprintf(&b, "- exhausted pairs: %d\n", report.ExhaustedPairs)
	if len(report.RelaxedBuckets) > 0 {
		fmt.Fprintf(&b, "- balance relaxed: %s\n", strings.Join(report.RelaxedBuckets, ", "))
	}

	if len(report.Buckets) > 0 {
		b.WriteString("\n## Answer distribution\n\n")
		b.WriteString("| bucket | count |\n|---|---|\n")
		keys := make([]string, 0, len(report.Buckets))
		for k := range report.Buckets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %d |\n", k, report.Buckets[k])
		}
	}

	if sample > len(records) {
		sample = len(records)
	}
	if sample > 0 {
		b.WriteString("\n## Sample questions\n\n")
		for _, rec := range records[:sample] {
			fmt.Fprintf(&b, "- %q (%s, %s) -> `%s`\n",
				rec.Question, rec.SceneID, rec.TemplateID, rec.Answer)
		}
	}

	return b.String()
}
