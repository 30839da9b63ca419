/*
Copyright © 2024 Dean
*/
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docqa/src/core/docqa"
	"docqa/src/fsutil"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <file.pdf>",
	Short: "Ask questions about a local PDF",
	Long: `The ask command indexes a local PDF and answers questions about it.
Questions are taken from --question flags, or read line by line from stdin.
Earlier questions and answers are kept as conversation history.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringArrayP("question", "q", nil, "question to ask, may be repeated")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	var bar *progressbar.ProgressBar
	pipeline, err := docqa.NewPipeline(cfg, docqa.PipelineDeps{
		Extractor: extractor,
		Embedder:  provider,
		Completer: provider,
		Files:     fs,
	}, docqa.WithProgress(func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "embedding chunks")
		}
		bar.Set(done)
	}))
	if err != nil {
		return err
	}

	path := args[0]
	doc, err := pipeline.Extract(ctx, filepath.Base(path), path)
	if err != nil {
		return err
	}

	session, err := pipeline.Ingest(ctx, doc)
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %q into %d chunks.\n", doc.Source, session.Index.Len())

	var history []docqa.Turn
	ask := func(question string) error {
		answer, err := pipeline.Query(ctx, docqa.Query{
			SessionID: session.ID,
			Message:   question,
			History:   history,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, answer.Text)

		history = append(history,
			docqa.Turn{Role: docqa.RoleUser, Content: question},
			docqa.Turn{Role: docqa.RoleAssistant, Content: answer.Text},
		)
		return nil
	}

	questions, _ := cmd.Flags().GetStringArray("question")
	if len(questions) > 0 {
		for _, q := range questions {
			fmt.Fprintf(out, "> %s\n", q)
			if err := ask(q); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q != "" {
			if err := ask(q); err != nil {
				if ctx.Err() != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", docqa.Kind(err), err)
			}
		}
		fmt.Fprint(out, "> ")
	}
	fmt.Fprintln(out)

	return scanner.Err()
}
