// dataset builds and inspects training data for the handbook classifier.
//
//	dataset build --input modules.json --output train.jsonl.zst
//	dataset stats --input train.jsonl.zst
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/GonzoDMX/modextract/internal/config"
	"github.com/GonzoDMX/modextract/internal/dataset"
	"github.com/GonzoDMX/modextract/internal/ingest"
	"github.com/GonzoDMX/modextract/internal/ipc"
	"github.com/GonzoDMX/modextract/internal/labels"
)

const usage = `usage: dataset <command> [flags]

commands:
  build   tokenize and label annotated modules into training windows
  stats   check a training file and print sample counts
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "build":
		return runBuild(args[1:])
	case "stats":
		return runStats(args[1:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func runBuild(args []string) error {
	var configPath, input, output, logLevel string

	flagSet := pflag.NewFlagSet("dataset build", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML file overriding the built-in configuration")
	flagSet.StringVarP(&input, "input", "i", "", "annotated modules (JSON array)")
	flagSet.StringVarP(&output, "output", "o", "", "training file; a .zst suffix compresses it")
	flagSet.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if input == "" || output == "" {
		return errors.New("--input and --output are required")
	}
	if !ingest.IsDatasetSource(input) {
		return fmt.Errorf("%s: expected a .json file", input)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	table, err := cfg.LabelTable()
	if err != nil {
		return err
	}
	chunker, err := cfg.Chunker()
	if err != nil {
		return err
	}

	// 1. Load modules
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	modules, err := dataset.DecodeModules(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	logger.Info("loaded modules", "count", len(modules), "input", input)

	// 2. Tokenizer worker
	tok, err := ipc.NewPythonService(cfg.Workers.Python, cfg.Workers.TokenizerScript)
	if err != nil {
		return err
	}
	defer tok.Close()

	// 3. Build
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w, err := dataset.Create(output)
	if err != nil {
		return err
	}
	builder := dataset.NewBuilder(ipc.NewTokenizerClient(tok), table, labels.DefaultAliases(), chunker, logger)
	stats, err := builder.Build(ctx, modules, w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	logger.Info("dataset written", "output", output, "samples", w.Count())
	fmt.Print(stats)
	return nil
}

func runStats(args []string) error {
	var configPath, input string

	flagSet := pflag.NewFlagSet("dataset stats", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML file overriding the built-in configuration")
	flagSet.StringVarP(&input, "input", "i", "", "training file (.jsonl or .jsonl.zst)")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if input == "" {
		return errors.New("--input is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	stats, err := dataset.Collect(input, cfg.Training.ChunkSize)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	fmt.Print(stats)
	return nil
}
