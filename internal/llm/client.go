// Package llm provides the remote language model capability consumed by the
// OCR pipeline.
//
// The production client talks to Groq's OpenAI-compatible chat completions
// API. Tests substitute the Invoker interface with a stub returning canned
// text, so the pipeline is testable without live network calls.
//
// Required Environment Variables:
//   - GROQ_API_KEY: Groq API key used for all model calls
package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/EddyGiusepe/llama3.2-OCR/internal/logger"
)

// DefaultBaseURL is Groq's OpenAI-compatible API endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// DefaultMaxRetries bounds how often a failed model call is reissued before
// the error is surfaced to the caller.
const DefaultMaxRetries = 3

// Request describes a single model invocation.
type Request struct {
	// Model is the model identifier, e.g. "llama-3.2-90b-vision-preview".
	Model string

	// Prompt is the instruction text sent as the user message.
	Prompt string

	// ImageDataURL optionally attaches an image as a base64 data URL,
	// turning the call into a vision request.
	ImageDataURL string

	// Temperature controls sampling variance. The pipeline pins this to 0.
	Temperature float32

	// MaxTokens caps the response length; 0 leaves the model default.
	MaxTokens int
}

// Invoker is the minimal capability the pipeline needs from a remote model:
// send one request, receive plain text.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// ClientConfig configures the Groq client.
type ClientConfig struct {
	APIKey     string // required
	BaseURL    string // defaults to DefaultBaseURL
	MaxRetries int    // defaults to DefaultMaxRetries
}

// Client is an Invoker backed by Groq's chat completions API.
type Client struct {
	api        *openai.Client
	maxRetries int
	log        zerolog.Logger
}

// NewClient creates a Groq-backed model client.
func NewClient(cfg ClientConfig) (*Client, error) {
	const op = "NewClient"

	if cfg.APIKey == "" {
		return nil, NewRemoteError(op, ErrMissingAPIKey, "")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	apiConfig.BaseURL = baseURL

	return &Client{
		api:        openai.NewClientWithConfig(apiConfig),
		maxRetries: maxRetries,
		log:        logger.WithComponent("llm"),
	}, nil
}

// Invoke sends one chat completion request, retrying transient failures up
// to the configured bound. Exhausting the bound surfaces ErrRemoteModel.
func (c *Client) Invoke(ctx context.Context, req Request) (string, error) {
	const op = "Invoke"

	message := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.ImageDataURL != "" {
		message.MultiContent = []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: req.ImageDataURL,
				},
			},
		}
	} else {
		message.Content = req.Prompt
	}

	// go-openai tags Temperature with omitempty, so a literal 0 is dropped
	// from the request body and the server applies its own default. A
	// subnormal value serializes explicitly and samples identically to 0.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		attempts = attempt
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       req.Model,
			Temperature: temperature,
			MaxTokens:   req.MaxTokens,
			Messages:    []openai.ChatCompletionMessage{message},
		})

		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				// The caller canceled or timed out; retrying cannot help.
				break
			}
			c.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", c.maxRetries).
				Str("model", req.Model).
				Msg("Model request failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices")
			c.log.Warn().
				Int("attempt", attempt).
				Str("model", req.Model).
				Msg("Model returned an empty response, retrying")
			continue
		}

		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", NewRemoteError(op, fmt.Errorf("%w: %w: %w", ErrRemoteModel, ctxErr, lastErr),
			fmt.Sprintf("model %s: canceled after %d of %d attempts", req.Model, attempts, c.maxRetries))
	}
	return "", NewRemoteError(op, fmt.Errorf("%w: %w", ErrRemoteModel, lastErr),
		fmt.Sprintf("model %s: all %d attempts failed", req.Model, c.maxRetries))
}
