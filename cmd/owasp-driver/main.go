// FILENAME: cmd/owasp-driver/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/owasp-driver/internal/config"
	"github.com/xkilldash9x/owasp-driver/internal/engine"
	"github.com/xkilldash9x/owasp-driver/internal/models"
	"github.com/xkilldash9x/owasp-driver/internal/report"
	"github.com/xkilldash9x/owasp-driver/internal/ui"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// -- Signal Handling --
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := Run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context, args []string, output io.Writer) error {
	flags := flag.NewFlagSet("owasp-driver", flag.ContinueOnError)
	configPath := flags.String("config", "", "YAML run file")
	target := flags.String("target", "", "Target URL")
	iterations := flags.Int("n", 0, "Number of probes")
	workers := flags.Int("w", 0, "Concurrent workers")
	seed := flags.Uint64("seed", 0, "Base seed (probe i uses seed+i)")
	source := flags.String("source", "", "Randomness source: pcg, chacha8, mt19937, crypto")
	length := flags.Int("length", config.VariableLength, "Fixed payload length, -1 for variable")
	delivery := flags.String("delivery", "", "Payload delivery: body or param")
	param := flags.String("param", "", "Form parameter name for param delivery")
	proto := flags.String("proto", "", "Protocol: h1, h2 or h3")
	burst := flags.Bool("burst", false, "Release all workers together")
	replay := flags.Int("replay", -1, "Replay a single probe index instead of a full run")
	outDir := flags.String("out", "", "Report directory")
	logPath := flags.String("log", "", "Log output path")
	debug := flags.Bool("debug", false, "Enable debug logging")

	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// -- Flag Overrides --
	// only flags the user actually passed replace file values
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "target":
			cfg.Target.URL = *target
		case "n":
			cfg.Run.Iterations = *iterations
		case "w":
			cfg.Run.Workers = *workers
		case "seed":
			cfg.Run.Seed = *seed
		case "source":
			cfg.Run.Source = *source
		case "length":
			cfg.Run.Length = *length
		case "delivery":
			cfg.Target.Delivery = *delivery
		case "param":
			cfg.Target.Param = *param
		case "proto":
			cfg.Target.Protocol = *proto
		case "burst":
			cfg.Run.Burst = *burst
		case "out":
			cfg.Report.Dir = *outDir
		case "log":
			cfg.Logging.Output = *logPath
		case "debug":
			if *debug {
				cfg.Logging.Level = "debug"
			}
		}
	})

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger init error: %w", err)
	}
	defer logger.Sync()

	driver := engine.NewDriver(&engine.RealTargetFactory{}, logger)
	plan := engine.PlanFromConfig(cfg)

	if *replay >= 0 {
		res, err := driver.Replay(ctx, plan, *replay)
		if err != nil {
			return err
		}
		fmt.Fprintln(output, res.String())
		return nil
	}

	// -- Run --
	resultsCh := make(chan models.ScanResult, cfg.Run.Workers)
	runErr := make(chan error, 1)
	go func() {
		runErr <- driver.Run(ctx, plan, resultsCh)
	}()

	results := make([]models.ScanResult, 0, cfg.Run.Iterations)
	for res := range resultsCh {
		logger.Debug("Probe finished", zap.String("result", res.String()))
		results = append(results, res)
	}
	err = <-runErr
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	// -- Report --
	// partial results are still written after an interrupt
	jsonPath, csvPath, werr := report.NewWriter(cfg.Report.Dir).WriteArtifacts(results, cfg.Report.Prefix)
	if werr != nil {
		return fmt.Errorf("report error: %w", werr)
	}
	logger.Info("Report written", zap.String("json", jsonPath), zap.String("csv", csvPath))

	fmt.Fprintln(output, ui.RenderSummary(ui.Summarize(results)))
	fmt.Fprintf(output, "report: %s\n", jsonPath)
	return err
}

// buildLogger configures zap for file output so the summary stays readable.
func buildLogger(c config.LoggingConfig) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	out := c.Output
	if out == "" {
		out = config.DefaultLogPath
	}
	logConfig.OutputPaths = []string{out}
	logConfig.ErrorOutputPaths = []string{out}
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		level = zap.InfoLevel
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)
	return logConfig.Build()
}
