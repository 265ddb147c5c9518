package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/EddyGiusepe/llama3.2-OCR/internal/config"
	"github.com/EddyGiusepe/llama3.2-OCR/internal/imaging"
	"github.com/EddyGiusepe/llama3.2-OCR/internal/llm"
	"github.com/EddyGiusepe/llama3.2-OCR/internal/logger"
	"github.com/EddyGiusepe/llama3.2-OCR/internal/ocr"
)

var extractCmd = &cobra.Command{
	Use:   "extract [image-file]",
	Short: "Extract a consolidated markdown table from an image",
	Long: `Process an image containing printed and handwritten text and produce a
single consolidated markdown table.

The image is split into overlapping horizontal stripes. Each stripe is sent
to a vision model that extracts its text (output in Brazilian Portuguese);
a second model merges the overlapping partial results, deduplicating rows
and preferring the more complete value on conflict.

Required environment variables:
  GROQ_API_KEY - Groq API key used for all model calls`,
	Example: `  # Extract a table from a scanned sheet to stdout
  llama-ocr extract sheet.jpg

  # Save the consolidated table as a markdown file
  llama-ocr extract sheet.jpg -o tabela_consolidada.md

  # More stripes for a tall image, extracted in parallel
  llama-ocr extract tall-list.png --stripes 8 --parallel 4

  # Include the per-stripe texts and output as JSON
  llama-ocr extract sheet.jpg --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// ExtractOutput represents the JSON output structure when --json flag is used
type ExtractOutput struct {
	Table              string    `json:"table"`
	StripeTexts        []string  `json:"stripe_texts,omitempty"`
	StripeCount        int       `json:"stripe_count"`
	ProcessedAt        time.Time `json:"processed_at"`
	ProcessingDuration string    `json:"processing_duration"`
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Bool("json", false, "Output as JSON including per-stripe texts")
	extractCmd.Flags().Int("stripes", 0, "Number of horizontal stripes (default: OCR_STRIPE_COUNT or 5)")
	extractCmd.Flags().Float64("overlap", -1, "Overlap fraction between stripes, 0 to 1 (default: OCR_OVERLAP or 0.1)")
	extractCmd.Flags().Int("parallel", 0, "Max concurrent stripe extractions (default: sequential)")
	extractCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	stripeCount, _ := cmd.Flags().GetInt("stripes")
	overlap, _ := cmd.Flags().GetFloat64("overlap")
	parallel, _ := cmd.Flags().GetInt("parallel")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	log.Info().
		Str("file", imagePath).
		Str("output", outputPath).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting table extraction")

	// Load configuration; the API key must be present before any remote
	// call is attempted.
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			log.Error().Msg("Groq API key not configured")
			return fmt.Errorf("Groq API key not configured. Please set it:\n\n" +
				"1. Export GROQ_API_KEY in your shell:\n" +
				"   export GROQ_API_KEY=gsk_...\n\n" +
				"2. Or add GROQ_API_KEY=gsk_... to your .env file")
		}
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags override environment configuration.
	if stripeCount > 0 {
		cfg.StripeCount = stripeCount
	}
	if overlap >= 0 {
		cfg.Overlap = overlap
	}
	if parallel > 0 {
		cfg.Parallelism = parallel
	}

	fileInfo, err := validateImageFile(imagePath, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	img, err := loadImage(imagePath, log)
	if err != nil {
		return err
	}

	client, err := llm.NewClient(llm.ClientConfig{
		APIKey:     cfg.GroqAPIKey,
		BaseURL:    cfg.GroqBaseURL,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create model client")
		return fmt.Errorf("failed to create model client: %w", err)
	}

	pipeline := ocr.NewPipeline(client, ocr.Config{
		VisionModel: cfg.VisionModel,
		TextModel:   cfg.TextModel,
		StripeCount: cfg.StripeCount,
		Overlap:     cfg.Overlap,
		Parallelism: cfg.Parallelism,
	})
	pipeline.OnProgress(func(stripe, total int) {
		log.Info().
			Int("stripe", stripe).
			Int("total", total).
			Int("percent", stripe*100/total).
			Msg("Stripe processed")
	})

	startTime := time.Now()
	result, err := pipeline.ExtractTableWithMetadata(ctx, img)
	if err != nil {
		return handleExtractError(err, log)
	}

	log.Info().
		Int("stripe_count", result.StripeCount).
		Int("table_length", len(result.Table)).
		Dur("duration", time.Since(startTime)).
		Msg("Table extraction completed successfully")

	return outputResults(result, fileInfo, outputPath, jsonOutput, log)
}

// validateImageFile checks if the file exists, is readable, and looks like an image
func validateImageFile(imagePath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Image file not found")
			return nil, fmt.Errorf("image file not found: %s", imagePath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Permission denied accessing image file")
			return nil, fmt.Errorf("permission denied accessing image file: %s", imagePath)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", imagePath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", imagePath)
	}

	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		log.Warn().
			Str("file", imagePath).
			Msg("File does not have a common image extension")
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", imagePath).
			Msg("Image file is empty")
		return nil, fmt.Errorf("image file is empty: %s", imagePath)
	}

	return fileInfo, nil
}

// loadImage opens and decodes the input image
func loadImage(imagePath string, log zerolog.Logger) (image.Image, error) {
	imageFile, err := os.Open(imagePath)
	if err != nil {
		log.Error().
			Err(err).
			Str("file", imagePath).
			Msg("Failed to open image file")
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer func() {
		if closeErr := imageFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close image file")
		}
	}()

	img, err := imaging.Decode(imageFile)
	if err != nil {
		log.Error().
			Err(err).
			Str("file", imagePath).
			Msg("Failed to decode image")
		return nil, fmt.Errorf("failed to decode image (supported formats: JPEG, PNG, GIF): %w", err)
	}

	bounds := img.Bounds()
	log.Info().
		Str("file", imagePath).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Msg("Image decoded")

	return img, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling extraction")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// handleExtractError provides user-friendly error messages for pipeline failures
func handleExtractError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Table extraction failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("extraction timed out. Try increasing --timeout or using fewer stripes")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("extraction was canceled")
	case errors.Is(err, imaging.ErrInvalidStripeCount):
		return fmt.Errorf("invalid stripe count: --stripes must be at least 1")
	case errors.Is(err, imaging.ErrInvalidOverlap):
		return fmt.Errorf("invalid overlap: --overlap must be between 0 and 1")
	case errors.Is(err, imaging.ErrInvalidImage):
		return fmt.Errorf("invalid image: the file has a zero dimension or could not be decoded")
	case errors.Is(err, imaging.ErrEncodingFailed):
		return fmt.Errorf("failed to encode a stripe for transmission: %w", err)
	case errors.Is(err, llm.ErrMissingAPIKey):
		return fmt.Errorf("Groq API key not configured. Set the GROQ_API_KEY environment variable")
	case errors.Is(err, llm.ErrRemoteModel):
		return fmt.Errorf("remote model call failed after all retries. This may be due to network issues, "+
			"API rate limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("table extraction failed: %w", err)
	}
}

// outputResults formats and writes the extraction results
func outputResults(result *ocr.Result, fileInfo os.FileInfo, outputPath string, jsonOutput bool, log zerolog.Logger) error {
	var outputData []byte
	var err error

	if jsonOutput {
		extractOutput := ExtractOutput{
			Table:              result.Table,
			StripeTexts:        result.StripeTexts,
			StripeCount:        result.StripeCount,
			ProcessedAt:        result.ProcessedAt,
			ProcessingDuration: result.ProcessingDuration.String(),
			FileName:           filepath.Base(fileInfo.Name()),
			FileSize:           fileInfo.Size(),
		}

		outputData, err = json.MarshalIndent(extractOutput, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		outputData = []byte(result.Table)
	}

	if outputPath != "" {
		err = os.WriteFile(outputPath, outputData, 0644)
		if err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}

		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(outputData)).
			Msg("Consolidated table written to file")
	} else {
		_, err = os.Stdout.Write(outputData)
		if err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}

		if !jsonOutput {
			fmt.Println()
		}
	}

	return nil
}
