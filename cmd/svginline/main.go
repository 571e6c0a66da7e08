package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"svginline/internal/config"
	"svginline/pkg/svginline"
)

var (
	// Input/Output flags
	inputFile  = flag.String("input", "", "Input HTML file path")
	outputFile = flag.String("output", "", "Output HTML file path (default: stdout)")
	inputDir   = flag.String("input-dir", "", "Process all HTML files in directory")
	outputDir  = flag.String("output-dir", "", "Output directory for batch processing")

	// Configuration flags
	selector    = flag.String("selector", "", "Placeholder selector (default: img.style-svg)")
	baseURL     = flag.String("base-url", "", "Base URL for resolving relative SVG references")
	timeout     = flag.Duration("timeout", 20*time.Second, "Per-fetch timeout")
	concurrency = flag.Int("concurrency", 4, "Maximum concurrent SVG fetches")
	trimViewBox = flag.Bool("trim-viewbox", true, "Overwrite viewBox with the content bounding box")
	repaint     = flag.Bool("force-repaint", true, "Apply the display-toggle repaint workaround")

	// Output control flags
	verbose = flag.Bool("verbose", false, "Verbose output with processing statistics")
	quiet   = flag.Bool("quiet", false, "Suppress all output except errors")
	stats   = flag.Bool("stats", false, "Show processing statistics")
)

func main() {
	flag.Parse()

	if err := validateArgs(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	converter := svginline.New(buildConfig(), svginline.WithLogger(buildLogger()))

	var err error
	switch {
	case *inputDir != "":
		err = runBatchProcessing(converter)
	case *inputFile != "":
		err = runSingleFile(converter)
	default:
		err = runStdin(converter)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// validateArgs validates command line arguments
func validateArgs() error {
	if *inputFile != "" && *inputDir != "" {
		return fmt.Errorf("cannot specify both -input and -input-dir")
	}

	if *inputDir != "" && *outputDir == "" {
		return fmt.Errorf("-output-dir required when using -input-dir")
	}

	if *quiet && *verbose {
		return fmt.Errorf("cannot specify both -quiet and -verbose")
	}

	return nil
}

// buildConfig creates configuration from command line flags
func buildConfig() config.Config {
	cfg := config.Default()
	if *selector != "" {
		cfg.PlaceholderSelector = *selector
	}
	cfg.BaseURL = *baseURL
	cfg.FetchTimeout = *timeout
	cfg.MaxConcurrentFetches = *concurrency
	cfg.TrimViewBox = *trimViewBox
	cfg.ForceRepaint = *repaint
	return cfg
}

// buildLogger creates the CLI logger; quiet mode drops everything,
// verbose mode lowers the level to debug
func buildLogger() zerolog.Logger {
	if *quiet {
		return zerolog.Nop()
	}

	level := zerolog.ErrorLevel
	if *verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// runSingleFile processes a single input file
func runSingleFile(converter *svginline.Converter) error {
	inputContent, err := os.ReadFile(*inputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file %s: %w", *inputFile, err)
	}

	result, err := converter.Process(context.Background(), string(inputContent))
	if err != nil {
		return fmt.Errorf("failed to inline SVGs: %w", err)
	}

	if err := writeOutput(result.HTML, *outputFile); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if *stats || *verbose {
		showProcessingStats(result, *inputFile)
	}

	return nil
}

// runBatchProcessing processes all HTML files in a directory
func runBatchProcessing(converter *svginline.Converter) error {
	htmlFiles, err := findHTMLFiles(*inputDir)
	if err != nil {
		return fmt.Errorf("failed to find HTML files: %w", err)
	}

	if len(htmlFiles) == 0 {
		return fmt.Errorf("no HTML files found in directory: %s", *inputDir)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var totalConverted, totalFailed int
	for i, inputPath := range htmlFiles {
		if *verbose {
			fmt.Fprintf(os.Stderr, "Processing %d/%d: %s\n", i+1, len(htmlFiles), inputPath)
		}

		inputContent, err := os.ReadFile(inputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to read %s: %v\n", inputPath, err)
			continue
		}

		result, err := converter.Process(context.Background(), string(inputContent))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to process %s: %v\n", inputPath, err)
			continue
		}

		relPath, _ := filepath.Rel(*inputDir, inputPath)
		outputPath := filepath.Join(*outputDir, relPath)

		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create output directory for %s: %v\n", outputPath, err)
			continue
		}

		if err := writeOutput(result.HTML, outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write %s: %v\n", outputPath, err)
			continue
		}

		totalConverted += result.Converted
		totalFailed += result.Failed
	}

	if *stats || *verbose {
		fmt.Fprintf(os.Stderr, "\nBatch Processing Summary:\n")
		fmt.Fprintf(os.Stderr, "Files processed: %d\n", len(htmlFiles))
		fmt.Fprintf(os.Stderr, "Graphics inlined: %d\n", totalConverted)
		fmt.Fprintf(os.Stderr, "Conversions failed: %d\n", totalFailed)
	}

	return nil
}

// runStdin processes HTML from stdin and outputs to stdout
func runStdin(converter *svginline.Converter) error {
	inputContent, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read from stdin: %w", err)
	}

	result, err := converter.Process(context.Background(), string(inputContent))
	if err != nil {
		return fmt.Errorf("failed to inline SVGs: %w", err)
	}

	if err := writeOutput(result.HTML, *outputFile); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if *stats || *verbose {
		showProcessingStats(result, "<stdin>")
	}

	return nil
}

// writeOutput writes content to a file or stdout
func writeOutput(content, filename string) error {
	if filename == "" {
		_, err := fmt.Print(content)
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// findHTMLFiles finds all HTML files in a directory
func findHTMLFiles(dir string) ([]string, error) {
	var htmlFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			ext := strings.ToLower(filepath.Ext(path))
			if ext == ".html" || ext == ".htm" {
				htmlFiles = append(htmlFiles, path)
			}
		}

		return nil
	})

	return htmlFiles, err
}

// showProcessingStats displays processing statistics
func showProcessingStats(result *svginline.Result, filename string) {
	fmt.Fprintf(os.Stderr, "\nProcessing Statistics for %s:\n", filename)
	fmt.Fprintf(os.Stderr, "  Placeholders found: %d\n", result.Stats.PlaceholdersFound)
	fmt.Fprintf(os.Stderr, "  Graphics inlined: %d\n", result.Converted)
	fmt.Fprintf(os.Stderr, "  Conversions failed: %d\n", result.Failed)
	fmt.Fprintf(os.Stderr, "  Style rules namespaced: %d\n", result.Stats.RulesNamespaced)
	fmt.Fprintf(os.Stderr, "  Elements re-classed: %d\n", result.Stats.ElementsReclassed)
	fmt.Fprintf(os.Stderr, "  Bytes fetched: %d\n", result.Stats.BytesFetched)
	fmt.Fprintf(os.Stderr, "  Processing time: %dms\n", result.Stats.ProcessingTimeMs)

	for _, convErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "  [FAILED] %s: %v\n", convErr.URL, convErr.Err)
	}
}
