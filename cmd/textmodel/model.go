package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/wizenheimer/textmodel"
)

// runFit implements the "fit" subcommand: build a model from a scored
// configuration and write it in binary form.
func runFit(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		paramsPath string
		rank       int
		corpusPath string
		outPath    string
		logLevel   string
	)
	fs.StringVarP(&paramsPath, "params", "p", "", "Results file written by search (JSON)")
	fs.IntVar(&rank, "rank", 1, "Rank of the configuration to use")
	fs.StringVar(&corpusPath, "corpus", "", "Training corpus file or glob (JSON lines or TASS XML, optionally .gz)")
	fs.StringVarP(&outPath, "output", "o", "", "Model file (default <digest>.model)")
	fs.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if paramsPath == "" || corpusPath == "" {
		return fail(stderr, errors.New("--params and --corpus are required"))
	}
	logger := setupLogger(stderr, logLevel)

	cfg, err := loadRanked(paramsPath, rank)
	if err != nil {
		return fail(stderr, err)
	}
	docs, err := textmodel.ReadCorpora(corpusPath)
	if err != nil {
		return fail(stderr, err)
	}

	model, err := textmodel.NewTextModel(textmodel.Texts(docs), textmodel.Labels(docs), cfg)
	if err != nil {
		return fail(stderr, err)
	}
	data, err := model.Encode()
	if err != nil {
		return fail(stderr, err)
	}

	if outPath == "" {
		outPath = cfg.Digest()[:8] + ".model"
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fail(stderr, err)
	}

	logger.Info("model written",
		slog.String("path", outPath),
		slog.Int("terms", model.Space().NumTerms()),
		slog.Int("bytes", len(data)))
	return 0
}

func loadRanked(path string, rank int) (textmodel.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return textmodel.Config{}, err
	}
	defer f.Close()

	results, err := textmodel.LoadResults(f)
	if err != nil {
		return textmodel.Config{}, err
	}
	if rank < 1 || rank > len(results) {
		return textmodel.Config{}, fmt.Errorf("%s holds %d results, rank %d requested", path, len(results), rank)
	}
	return results[rank-1].Config, nil
}

// vectorLine is the output record of the "vector" subcommand.
type vectorLine struct {
	Text   string                 `json:"text"`
	Tokens []string               `json:"tokens,omitempty"`
	Vector []textmodel.TermWeight `json:"vector"`
}

// runVector implements the "vector" subcommand: print one JSON vector per
// input line.
func runVector(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("vector", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		modelPath string
		inputPath string
		tokens    bool
	)
	fs.StringVarP(&modelPath, "model", "m", "", "Model file written by fit")
	fs.StringVarP(&inputPath, "input", "i", "", "Input file, one text per line (default stdin)")
	fs.BoolVar(&tokens, "tokens", false, "Include the tokens of every line")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if modelPath == "" {
		return fail(stderr, errors.New("--model is required"))
	}

	data, err := os.ReadFile(modelPath)
	if err != nil {
		return fail(stderr, err)
	}
	model, err := textmodel.DecodeTextModel(data, textmodel.NewResources())
	if err != nil {
		return fail(stderr, err)
	}

	in := stdin
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return fail(stderr, err)
		}
		defer f.Close()
		in = f
	}

	enc := json.NewEncoder(stdout)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		text := scanner.Text()
		line := vectorLine{Text: text, Vector: model.Vector(text)}
		if tokens {
			line.Tokens = model.Tokenize(text)
		}
		if err := enc.Encode(line); err != nil {
			return fail(stderr, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fail(stderr, err)
	}
	return 0
}
