package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

const usageText = `Usage: textmodel <command> [flags]

Commands:
  search    Search the configuration space for the best text model
  top       Print the best results kept in a result store
  fit       Fit a text model from a scored configuration and save it
  vector    Print the vectors of input lines under a saved model
  version   Print version and exit

Global flags:
  -h, --help      Show this help

Run 'textmodel <command> --help' for more information on a command.
`

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usageText)
		return 0
	}

	switch args[0] {
	case "--help", "-h", "help":
		fmt.Fprint(stderr, usageText)
		return 0
	case "search":
		return runSearch(args[1:], stdout, stderr)
	case "top":
		return runTop(args[1:], stdout, stderr)
	case "fit":
		return runFit(args[1:], stderr)
	case "vector":
		return runVector(args[1:], stdin, stdout, stderr)
	case "version":
		printVersion(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "textmodel: unknown command %q\n\n%s", args[0], usageText)
		return 2
	}
}

func printVersion(w io.Writer) {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	fmt.Fprintf(w, "textmodel %s\n", version)
}

// setupLogger installs a text handler on stderr as the default logger.
func setupLogger(stderr io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: parseLevel(level)}))
	slog.SetDefault(logger)
	return logger
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "textmodel: %v\n", err)
	return 1
}
