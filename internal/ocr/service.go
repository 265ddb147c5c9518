// Package ocr implements stripe-based table extraction from images using
// vision-capable language models.
//
// The pipeline splits an input image into overlapping horizontal stripes,
// sends each stripe to a vision model with a fixed extraction instruction
// (printed and handwritten text, Brazilian Portuguese output), then sends
// the concatenated per-stripe results to a second model that merges rows
// describing the same record across overlapping stripes and returns a
// single consolidated markdown table.
//
// Required Environment Variables (production client):
//   - GROQ_API_KEY: Groq API key
//
// Implementation Details:
//   - Stripes are processed in top-to-bottom order; results are always
//     concatenated in stripe order even when extraction runs in parallel
//   - Model temperature is pinned to 0 to minimize run-to-run variance
//   - Remote calls are retried up to a fixed bound by the model client;
//     beyond that the run fails with no partial result
//   - The consolidated table is returned verbatim (trimmed); the pipeline
//     does not validate that the output is well-formed markdown
package ocr

import (
	"context"
	"image"
	"time"
)

// Service defines the interface for stripe-based table extraction.
type Service interface {
	// ExtractTable runs the full pipeline on an image and returns the
	// consolidated markdown table.
	ExtractTable(ctx context.Context, img image.Image) (string, error)

	// ExtractTableWithMetadata runs the full pipeline and returns detailed
	// results including per-stripe texts and timing information.
	ExtractTableWithMetadata(ctx context.Context, img image.Image) (*Result, error)

	// Consolidate merges already-extracted stripe texts into a single
	// markdown table. Texts must be in top-to-bottom stripe order.
	Consolidate(ctx context.Context, texts []string) (string, error)
}

// Result contains the outcome of a pipeline run with metadata.
type Result struct {
	// Table is the consolidated markdown table.
	Table string `json:"table"`

	// StripeTexts holds the raw per-stripe extractions in stripe order.
	StripeTexts []string `json:"stripe_texts,omitempty"`

	// StripeCount is the number of stripes the image was split into.
	StripeCount int `json:"stripe_count"`

	// ProcessedAt is the timestamp when the pipeline completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long the full pipeline took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// ProgressFunc observes pipeline progress. It is called after each stripe
// extraction completes with the 1-based stripe number and the total count.
type ProgressFunc func(stripe, total int)
