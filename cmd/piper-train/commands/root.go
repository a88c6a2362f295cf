package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sheldonrobinson/piper1-gpl/internal/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Pipeline configuration, loaded in initConfig.
	pipelineConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "piper-train",
	Short: "Training data pipeline for piper voices",
	Long: `piper-train prepares text-to-speech training data and manages
checkpoint transplants.

The preprocess command scans a delimited metadata file, phonemizes each
utterance, extracts audio features into a content-addressed sample
cache, and writes the voice config consumed by the inference runtime.

The transplant command initializes a fresh model from a prior
checkpoint, either resuming it in full or warmstarting only the
vocoder so the vocabulary can change between runs.

Configuration can be given as a YAML pipeline file (-f) with individual
flags overriding file values.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initLogging, initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "file", "f", "", "pipeline config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(preprocessCmd)
	rootCmd.AddCommand(transplantCmd)
	rootCmd.AddCommand(exportConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// configErr stores the config load error for deferred reporting.
var configErr error

func initConfig() {
	if cfgFile == "" {
		pipelineConfig = config.Default()
		return
	}
	pipelineConfig, configErr = config.Load(cfgFile)
}

// getConfig returns the pipeline configuration, surfacing a deferred
// load error.
func getConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	return pipelineConfig, nil
}
