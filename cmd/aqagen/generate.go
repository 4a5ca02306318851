package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	clear "github.com/J3rome/CLEAR-AQA-Dataset-Generator"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/catalog"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/dataset"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/render"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate question-answer records from scene graphs",
	Long: `Instantiates every catalog template against every scene and streams the
accepted records as JSONL. The run report goes to stderr.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("templates", "", "Template catalog file (YAML)")
	generateCmd.Flags().String("scenes", "", "Scene graphs file (JSON)")
	generateCmd.Flags().String("synonyms", "", "Synonym dictionary file (YAML, optional)")
	generateCmd.Flags().String("config", "", "Run configuration file (YAML, optional)")
	generateCmd.Flags().Int64("seed", 0, "Random seed (overrides config)")
	generateCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	_ = generateCmd.MarkFlagRequired("templates")
	_ = generateCmd.MarkFlagRequired("scenes")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	records, report, err := runEngine(cmd)
	if err != nil {
		return err
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := dataset.WriteJSONL(out, records); err != nil {
		return err
	}

	logger.Info("run complete",
		"run_id", report.RunID,
		"records", report.Records,
		"scenes", report.Scenes,
		"skipped_scenes", len(report.SkippedScenes),
		"exhausted_pairs", report.ExhaustedPairs,
	)
	for _, bucket := range report.RelaxedBuckets {
		logger.Warn("strict balance not achieved", "bucket", bucket)
	}
	return nil
}

// runEngine shares the load-and-generate path between generate and preview.
func runEngine(cmd *cobra.Command) ([]dataset.Record, *clear.Report, error) {
	logger := newLogger(cmd)

	templatesPath, _ := cmd.Flags().GetString("templates")
	scenesPath, _ := cmd.Flags().GetString("scenes")
	synonymsPath, _ := cmd.Flags().GetString("synonyms")
	configPath, _ := cmd.Flags().GetString("config")

	cat, err := catalog.LoadFile(templatesPath)
	if err != nil {
		return nil, nil, err
	}

	scenes, bad, err := scene.LoadFile(scenesPath)
	if err != nil {
		return nil, nil, err
	}
	for _, b := range bad {
		logger.Warn("skipping malformed scene", "err", b)
	}

	var lexicon render.Lexicon
	if synonymsPath != "" {
		lexicon, err = render.LoadLexiconFile(synonymsPath)
		if err != nil {
			return nil, nil, err
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed, _ = cmd.Flags().GetInt64("seed")
	}

	opts := append(cfg.options(lexicon), clear.WithLogger(logger))
	engine, err := clear.New(cat, opts...)
	if err != nil {
		return nil, nil, err
	}
	return engine.Generate(cmd.Context(), scenes)
}
