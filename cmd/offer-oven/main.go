package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/iwvelando/offer-oven/internal/config"
	"github.com/iwvelando/offer-oven/internal/logging"
	"github.com/iwvelando/offer-oven/internal/oven"
	"github.com/iwvelando/offer-oven/pkg/constants"
	"github.com/iwvelando/offer-oven/pkg/output"
	"github.com/iwvelando/offer-oven/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to deal book file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the deal book to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		if _, statErr := os.Stat(*configLocation); errors.Is(statErr, fs.ErrNotExist) {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"deal book %s not found, copy %s to get started\"}\n", *configLocation, constants.ExampleConfigFile)
			return
		}
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load deal book at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Deal book warning: "+warning,
			zap.String("op", "main"),
		)
	}

	results, err := oven.Bake(logger, *conf)
	if err != nil {
		logger.Fatal("failed to bake offers",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(results)
	case constants.OutputFormatCSV:
		output.CsvFormat(results)
	}
}
