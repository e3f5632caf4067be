package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memmgr/heap/chunk"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	logFile string

	// Chunk geometry flags
	alignment  uint32
	minPayload uint16
	guardSize  uint16
)

var jsonConfig = jsoniter.Config{
	EscapeHTML:    true,
	SortMapKeys:   true,
	IndentionStep: 2,
}.Froze()

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Replay, inspect and verify guarded heap images",
	Long: `heapctl drives the guarded first-fit heap allocator from the command line.
It replays allocation scripts against a fresh heap, verifies heap images
written to disk, and prints the chunk geometry derived from a configuration.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger(loggerOptions{
			Enabled: verbose || logFile != "",
			Path:    logFile,
		})
	},
	SilenceUsage: true,
}

func init() {
	def := chunk.DefaultConfig()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file")

	rootCmd.PersistentFlags().Uint32Var(&alignment, "alignment", def.Alignment, "Size unit in bytes (power of two)")
	rootCmd.PersistentFlags().Uint16Var(&minPayload, "min-payload", def.MinPayload, "Minimum payload units left by a split")
	rootCmd.PersistentFlags().Uint16Var(&guardSize, "guard", def.GuardSize, "Guard units past each allocation")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// config returns the chunk geometry selected by the global flags.
func config() chunk.Config {
	return chunk.Config{
		Alignment:  alignment,
		MinPayload: minPayload,
		GuardSize:  guardSize,
	}
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	return jsonConfig.NewEncoder(os.Stdout).Encode(v)
}
