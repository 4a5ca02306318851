package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/catalog"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a template catalog and scene file without generating",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().String("templates", "", "Template catalog file (YAML)")
	validateCmd.Flags().String("scenes", "", "Scene graphs file (JSON, optional)")
	_ = validateCmd.MarkFlagRequired("templates")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	templatesPath, _ := cmd.Flags().GetString("templates")
	cat, err := catalog.LoadFile(templatesPath)
	if err != nil {
		return err
	}
	logger.Info("catalog ok",
		"templates", len(cat.Templates),
		"attributes", len(cat.Attributes()),
		"relations", len(cat.Relations()),
	)

	scenesPath, _ := cmd.Flags().GetString("scenes")
	if scenesPath == "" {
		return nil
	}
	scenes, bad, err := scene.LoadFile(scenesPath)
	if err != nil {
		return err
	}
	for _, b := range bad {
		logger.Error("malformed scene", "err", b)
	}
	logger.Info("scenes ok", "scenes", len(scenes))
	if len(bad) > 0 {
		return fmt.Errorf("%d malformed scenes", len(bad))
	}
	return nil
}
