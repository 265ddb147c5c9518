package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/EddyGiusepe/llama3.2-OCR/internal/imaging"
	"github.com/EddyGiusepe/llama3.2-OCR/internal/llm"
	"github.com/EddyGiusepe/llama3.2-OCR/internal/logger"
)

// Default pipeline parameters, matching the values the tool has always used.
const (
	DefaultVisionModel = "llama-3.2-90b-vision-preview"
	DefaultTextModel   = "llama-3.3-70b-versatile"
	DefaultStripeCount = 5
	DefaultOverlap     = 0.1
)

// Config configures the extraction pipeline.
type Config struct {
	// VisionModel is the model used for per-stripe text extraction.
	VisionModel string

	// TextModel is the model used for the consolidation call.
	TextModel string

	// StripeCount is the number of horizontal stripes, at least 1.
	StripeCount int

	// Overlap is the overlap fraction between adjacent stripes, in [0, 1].
	Overlap float64

	// Parallelism bounds how many stripe extractions run concurrently.
	// Values below 2 keep extraction sequential. Concatenation order is
	// stripe order either way.
	Parallelism int
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		VisionModel: DefaultVisionModel,
		TextModel:   DefaultTextModel,
		StripeCount: DefaultStripeCount,
		Overlap:     DefaultOverlap,
	}
}

// Pipeline implements Service on top of an llm.Invoker.
type Pipeline struct {
	invoker  llm.Invoker
	config   Config
	progress ProgressFunc
	log      zerolog.Logger
}

// NewPipeline creates a pipeline with explicit dependencies.
func NewPipeline(invoker llm.Invoker, config Config) *Pipeline {
	if config.VisionModel == "" {
		config.VisionModel = DefaultVisionModel
	}
	if config.TextModel == "" {
		config.TextModel = DefaultTextModel
	}
	if config.StripeCount == 0 {
		config.StripeCount = DefaultStripeCount
	}

	return &Pipeline{
		invoker: invoker,
		config:  config,
		log:     logger.WithComponent("ocr-pipeline"),
	}
}

// OnProgress registers an observer for stripe-level progress. The pipeline
// itself carries no presentation concerns; the observer is how a UI layer
// displays progress.
func (p *Pipeline) OnProgress(fn ProgressFunc) {
	p.progress = fn
}

// ExtractTable runs the full pipeline on an image and returns the
// consolidated markdown table.
func (p *Pipeline) ExtractTable(ctx context.Context, img image.Image) (string, error) {
	result, err := p.ExtractTableWithMetadata(ctx, img)
	if err != nil {
		return "", err
	}
	return result.Table, nil
}

// ExtractTableWithMetadata runs the full pipeline and returns detailed
// results including per-stripe texts and timing information.
func (p *Pipeline) ExtractTableWithMetadata(ctx context.Context, img image.Image) (*Result, error) {
	const op = "ExtractTable"

	start := time.Now()

	stripes, err := imaging.SplitHorizontal(img, p.config.StripeCount, p.config.Overlap)
	if err != nil {
		return nil, WrapPipelineError(op, err, "splitting image")
	}

	p.log.Info().
		Int("stripe_count", len(stripes)).
		Float64("overlap", p.config.Overlap).
		Str("vision_model", p.config.VisionModel).
		Msg("Starting stripe extraction")

	texts, err := p.extractStripes(ctx, stripes)
	if err != nil {
		return nil, WrapPipelineError(op, err, "extracting stripes")
	}

	// Cancellation hook: a canceled context aborts the run before the
	// consolidation call is issued.
	if ctx.Err() != nil {
		return nil, NewPipelineError(op, ctx.Err(), "canceled before consolidation")
	}

	table, err := p.Consolidate(ctx, texts)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	p.log.Info().
		Int("stripe_count", len(stripes)).
		Int("table_length", len(table)).
		Dur("duration", duration).
		Msg("Pipeline completed")

	return &Result{
		Table:              table,
		StripeTexts:        texts,
		StripeCount:        len(stripes),
		ProcessedAt:        time.Now(),
		ProcessingDuration: duration,
	}, nil
}

// extractStripes runs the vision model over every stripe and returns the
// trimmed texts in stripe order. Any single failure aborts the whole batch;
// consolidation never starts on partial results.
func (p *Pipeline) extractStripes(ctx context.Context, stripes []imaging.Stripe) ([]string, error) {
	texts := make([]string, len(stripes))

	if p.config.Parallelism > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.config.Parallelism)
		for _, stripe := range stripes {
			g.Go(func() error {
				text, err := p.extractStripe(gctx, stripe, len(stripes))
				if err != nil {
					return err
				}
				// Each goroutine writes only its own index, so results
				// land in stripe order regardless of completion order.
				texts[stripe.Index] = text
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return texts, nil
	}

	for _, stripe := range stripes {
		text, err := p.extractStripe(ctx, stripe, len(stripes))
		if err != nil {
			return nil, err
		}
		texts[stripe.Index] = text
	}
	return texts, nil
}

// extractStripe encodes one stripe and invokes the vision model.
func (p *Pipeline) extractStripe(ctx context.Context, stripe imaging.Stripe, total int) (string, error) {
	const op = "extractStripe"

	dataURL, err := imaging.DataURL(stripe.Image)
	if err != nil {
		return "", WrapPipelineError(op, err, fmt.Sprintf("encoding stripe %d", stripe.Index))
	}

	p.log.Debug().
		Int("stripe", stripe.Index+1).
		Int("total", total).
		Int("top", stripe.Top).
		Int("bottom", stripe.Bottom).
		Msg("Extracting stripe")

	text, err := p.invoker.Invoke(ctx, llm.Request{
		Model:        p.config.VisionModel,
		Prompt:       extractionInstruction,
		ImageDataURL: dataURL,
		Temperature:  0,
	})
	if err != nil {
		return "", WrapPipelineError(op, err, fmt.Sprintf("stripe %d of %d", stripe.Index+1, total))
	}

	if p.progress != nil {
		p.progress(stripe.Index+1, total)
	}

	return strings.TrimSpace(text), nil
}

// Consolidate merges per-stripe texts into a single markdown table via the
// text model. Texts must be non-empty and in top-to-bottom stripe order.
func (p *Pipeline) Consolidate(ctx context.Context, texts []string) (string, error) {
	const op = "Consolidate"

	if len(texts) == 0 {
		return "", NewPipelineError(op, ErrEmptyInput, "")
	}

	combined := strings.Join(texts, "\n\n")

	p.log.Info().
		Int("stripe_count", len(texts)).
		Int("combined_length", len(combined)).
		Str("text_model", p.config.TextModel).
		Msg("Consolidating stripe texts")

	table, err := p.invoker.Invoke(ctx, llm.Request{
		Model:       p.config.TextModel,
		Prompt:      consolidationInstruction + combined,
		Temperature: 0,
	})
	if err != nil {
		return "", WrapPipelineError(op, err, "consolidation call")
	}

	return strings.TrimSpace(table), nil
}
