package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EddyGiusepe/llama3.2-OCR/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "llama-ocr",
	Short: "llama-ocr - Extract structured tables from images using vision LLMs",
	Long: `llama-ocr converts the contents of an image (printed text and handwritten
annotations) into a consolidated markdown table.

The image is split into overlapping horizontal stripes, each stripe is sent
to a vision-capable model for text extraction, and a second model merges the
overlapping partial results into one clean table.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("llama-ocr executed")

		fmt.Println("Welcome to llama-ocr!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
