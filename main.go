package main

import (
	stdlog "log"
	"os"

	"github.com/joho/godotenv"

	"github.com/EddyGiusepe/llama3.2-OCR/cmd"
	"github.com/EddyGiusepe/llama3.2-OCR/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("Warning: Could not load .env file: %v", err)
	}

	// Initialize logging from the environment; full configuration
	// (including credential validation) happens inside the commands that
	// need it, so --help and --version work without an API key.
	logConfig := logger.DefaultConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logConfig.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		logConfig.Format = format
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		logConfig.Output = output
	}
	if err := logger.Setup(logConfig); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting llama-ocr")

	cmd.Execute()

	log.Debug().Msg("llama-ocr shutdown")
	os.Exit(0)
}
