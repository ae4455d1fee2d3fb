package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	flag "github.com/spf13/pflag"

	"github.com/wizenheimer/textmodel"
	"github.com/wizenheimer/textmodel/store"
)

// runSearch implements the "search" subcommand.
func runSearch(args []string, stdout, stderr io.Writer) int {
	f := newSearchFlags()
	f.fs.SetOutput(stderr)
	f.fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: textmodel search [flags]\n\n"+
			"Sample configurations, refine the best by hill climbing and print the ranking.\n"+
			"Settings come from defaults, the run file, TEXTMODEL_* variables and flags,\n"+
			"each overriding the previous.\n\n"+
			"Flags:\n")
		f.fs.PrintDefaults()
	}

	if err := f.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := f.resolve()
	if err != nil {
		return fail(stderr, err)
	}
	logger := setupLogger(stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := search(ctx, cfg, logger)
	if err != nil {
		return fail(stderr, err)
	}

	printRanking(stdout, textmodel.TopResults(results, cfg.Top))
	printSummary(stdout, results)

	if cfg.Output != "" {
		if err := writeResults(cfg.Output, results); err != nil {
			return fail(stderr, err)
		}
	}
	return 0
}

func search(ctx context.Context, cfg RunConfig, logger *slog.Logger) ([]textmodel.Result, error) {
	docs, err := textmodel.ReadCorpora(cfg.Corpus)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: %w", cfg.Corpus, textmodel.ErrEmptyCorpus)
	}

	lang := cfg.Lang
	if lang == "auto" {
		lang = textmodel.DetectLanguage(textmodel.Texts(docs))
		logger.Info("detected language", slog.String("lang", lang))
	}

	res := textmodel.NewResources()
	newClassifier := func() textmodel.Classifier { return textmodel.NewLinearSVM(cfg.Seed) }

	var score textmodel.ScoreFunc
	if cfg.Test != "" {
		test, err := textmodel.ReadCorpora(cfg.Test)
		if err != nil {
			return nil, err
		}
		holdout := &textmodel.HoldoutScorer{Train: docs, Test: test, NewClassifier: newClassifier, Resources: res}
		score = holdout.Score
	} else {
		kfold, err := textmodel.NewKFoldScorer(textmodel.Texts(docs), textmodel.Labels(docs), cfg.Folds, cfg.Seed, newClassifier, res)
		if err != nil {
			return nil, err
		}
		score = kfold.Score
	}

	searcher := textmodel.NewSearcher(textmodel.DefaultSpace(lang, cfg.Seed), score)
	searcher.BatchSize = cfg.Samples
	searcher.SampleSize = textmodel.FixedSize(cfg.TokenSize)
	if cfg.TokenMean > 0 {
		searcher.SampleSize = textmodel.GaussianSize(cfg.TokenMean)
	}
	searcher.HillClimbing = cfg.HillClimbing
	searcher.Workers = cfg.Workers
	searcher.Logger = logger

	var st *store.Store
	if cfg.Store != "" {
		if st, err = store.Open(cfg.Store); err != nil {
			return nil, err
		}
		defer st.Close()

		keys, err := st.Keys(ctx)
		if err != nil {
			return nil, err
		}
		searcher.Tabu = textmodel.NewTabu(keys...)
		logger.Info("resuming from store", slog.String("store", cfg.Store), slog.Int("scored", len(keys)))
	}

	results, err := searcher.Search(ctx)
	if err != nil {
		return nil, err
	}

	if st != nil {
		if err := st.Save(ctx, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// runTop implements the "top" subcommand.
func runTop(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		storePath string
		n         int
	)
	fs.StringVar(&storePath, "store", "", "SQLite result store")
	fs.IntVarP(&n, "top", "n", 10, "Number of results (0 prints all)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if storePath == "" {
		return fail(stderr, errors.New("--store is required"))
	}

	st, err := store.Open(storePath)
	if err != nil {
		return fail(stderr, err)
	}
	defer st.Close()

	results, err := st.Top(context.Background(), n)
	if err != nil {
		return fail(stderr, err)
	}
	printRanking(stdout, results)
	return 0
}

func printRanking(w io.Writer, results []textmodel.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Score", "Accuracy", "Weighted F1", "Token list", "Weighting", "Digest"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i, res := range results {
		table.Append([]string{
			strconv.Itoa(i + 1),
			formatScore(res.Score),
			formatScore(res.Accuracy),
			formatScore(res.WeightedF1),
			fmt.Sprint(res.TokenList),
			string(res.Weighting),
			res.Config.Digest()[:8],
		})
	}
	table.Render()
}

func printSummary(w io.Writer, results []textmodel.Result) {
	if len(results) == 0 {
		return
	}
	best := results[0]
	header := color.New(color.FgGreen, color.OpBold).Render(
		fmt.Sprintf("best score %s after %d configurations", formatScore(best.Score), len(results)))
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, color.New(color.FgCyan).Render(best.Config.Key()))
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func writeResults(path string, results []textmodel.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := textmodel.SaveResults(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
