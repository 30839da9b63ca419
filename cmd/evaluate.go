/*
Copyright © 2024 Dean
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docqa/src/core/docqa"
	"docqa/src/fsutil"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure retrieval quality on a PDF",
	Long: `The evaluate command indexes a PDF and runs a JSON Lines evaluation set against it.
Each line holds a query and the golden passages that should be retrieved:

  {"query": "What does a resistor do?", "golden_passages": ["limits the flow of current"]}

Recall and mean reciprocal rank over the top-k chunks are printed.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringP("input", "i", "", "PDF file to index")
	evaluateCmd.MarkFlagRequired("input")
	evaluateCmd.Flags().StringP("evaluate", "e", "", "Evaluation JSONL file path")
	evaluateCmd.MarkFlagRequired("evaluate")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	inputPath, _ := cmd.Flags().GetString("input")
	evaluatePath, _ := cmd.Flags().GetString("evaluate")

	file, err := os.Open(evaluatePath)
	if err != nil {
		return fmt.Errorf("failed to open evaluation file: %w", err)
	}
	defer file.Close()

	cases, err := docqa.ReadEvalCases(file)
	if err != nil {
		return err
	}

	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}
	provider, _, err := newModelProvider()
	if err != nil {
		return err
	}
	fs := fsutil.NewLocalFileStore()
	extractor, err := newTextExtractor(fs)
	if err != nil {
		return err
	}

	pipeline, err := docqa.NewPipeline(cfg, docqa.PipelineDeps{
		Extractor: extractor,
		Embedder:  provider,
		Completer: provider,
		Files:     fs,
	})
	if err != nil {
		return err
	}

	doc, err := pipeline.Extract(ctx, filepath.Base(inputPath), inputPath)
	if err != nil {
		return err
	}
	session, err := pipeline.Ingest(ctx, doc)
	if err != nil {
		return err
	}

	report, err := pipeline.EvaluateRetrieval(ctx, session.ID, cases)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total evaluations: %d (skipped %d)\n", report.Cases, report.Skipped)
	fmt.Fprintf(out, "Recall@%d: %.4f\n", report.K, report.Recall)
	fmt.Fprintf(out, "MRR: %.4f\n", report.MRR)
	return nil
}
