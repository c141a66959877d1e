package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/rental-forecast/internal/config"
	"github.com/iwvelando/rental-forecast/internal/forecast"
	"github.com/iwvelando/rental-forecast/internal/logging"
	"github.com/iwvelando/rental-forecast/internal/sweep"
	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/output"
	"github.com/iwvelando/rental-forecast/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	mode := flag.String("mode", constants.ModeHorizon, "run mode: horizon, continuous, sweep")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"%s\", \"error\": \"%v\"}\n", loadFailureMessage(*configLocation, err), err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}
	if err := validation.ValidateMode(*mode); err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case constants.ModeHorizon:
		err = runHorizon(ctx, logger, conf, outputFormat)
	case constants.ModeContinuous:
		err = forecast.RunContinuous(ctx, logger, conf.Parameters,
			output.NewContinuousPrinter(os.Stdout, outputFormat), forecast.NewQueueReseeder(conf.Continuous))
		if errors.Is(err, context.Canceled) {
			logger.Info("continuous run interrupted", zap.String("op", "main"))
			err = nil
		}
	case constants.ModeSweep:
		err = runSweep(ctx, logger, conf, outputFormat)
	}
	if err != nil {
		logger.Fatal("run failed",
			zap.String("op", "main"),
			zap.String("mode", *mode),
			zap.Error(err),
		)
	}
}

func runHorizon(ctx context.Context, logger *zap.Logger, conf *config.Configuration, outputFormat string) error {
	startDate, err := conf.ResolvedStartDate(time.Now())
	if err != nil {
		startDate = ""
	}

	result, err := forecast.Simulate(ctx, logger, conf.Parameters, startDate)
	if err != nil {
		return fmt.Errorf("failed to compute forecast: %w", err)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(result)
	case constants.OutputFormatCSV:
		output.CsvFormat(result)
	case constants.OutputFormatJSON:
		return output.JSONFormat(result)
	}
	return nil
}

func runSweep(ctx context.Context, logger *zap.Logger, conf *config.Configuration, outputFormat string) error {
	if !conf.Sweep.Enabled() {
		return errors.New("configuration has no sweep groups")
	}

	runner, err := sweep.NewRunner(logger, sweep.OptionsFromConfig(conf))
	if err != nil {
		return fmt.Errorf("failed to initialize sweep: %w", err)
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.SweepPrettyFormat(result)
	case constants.OutputFormatCSV:
		output.SweepCsvFormat(result)
	case constants.OutputFormatJSON:
		return output.JSONFormat(result)
	}
	return nil
}

// loadFailureMessage describes a configuration load error, pointing at the
// shipped example when the file is missing.
func loadFailureMessage(path string, err error) string {
	msg := fmt.Sprintf("failed to load configuration at %s", path)
	if errors.Is(err, fs.ErrNotExist) {
		msg += fmt.Sprintf(", copy %s to %s to get started", constants.ExampleConfigFile, path)
	}
	return msg
}
