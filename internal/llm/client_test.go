package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func completionJSON(content string) string {
	return fmt.Sprintf(`{
		"id": "chatcmpl-test",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "test-model",
		"choices": [
			{
				"index": 0,
				"message": {"role": "assistant", "content": %q},
				"finish_reason": "stop"
			}
		]
	}`, content)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxRetries: maxRetries,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("got error %v, want %v", err, ErrMissingAPIKey)
	}
}

func TestInvokeReturnsTrimmedText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionJSON("  o texto extraído  \n"))
	}, 3)

	text, err := client.Invoke(context.Background(), Request{
		Model:  "test-model",
		Prompt: "extrair",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "o texto extraído" {
		t.Errorf("text = %q, want trimmed response", text)
	}
}

func TestInvokeSendsImageDataURL(t *testing.T) {
	const dataURL = "data:image/jpeg;base64,dGVzdA=="

	var body atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body.Store(string(raw))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionJSON("ok"))
	}, 3)

	_, err := client.Invoke(context.Background(), Request{
		Model:        "vision-model",
		Prompt:       "extrair texto",
		ImageDataURL: dataURL,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent, _ := body.Load().(string)
	if !strings.Contains(sent, dataURL) {
		t.Error("request body does not contain the image data URL")
	}
	if !strings.Contains(sent, "image_url") {
		t.Error("request body does not contain an image_url content part")
	}
	if !strings.Contains(sent, "extrair texto") {
		t.Error("request body does not contain the instruction text")
	}
}

func TestInvokeSendsPinnedTemperature(t *testing.T) {
	// A requested temperature of 0 must reach the API explicitly; relying
	// on the server default would break run-to-run determinism.
	var body atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body.Store(string(raw))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionJSON("ok"))
	}, 3)

	_, err := client.Invoke(context.Background(), Request{
		Model:       "m",
		Prompt:      "p",
		Temperature: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent, _ := body.Load().(string)
	if !strings.Contains(sent, `"temperature"`) {
		t.Errorf("temperature field absent from request body; server default applies:\n%s", sent)
	}
}

func TestInvokeRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error": {"message": "temporarily unavailable"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionJSON("recuperado"))
	}, 3)

	text, err := client.Invoke(context.Background(), Request{Model: "m", Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "recuperado" {
		t.Errorf("text = %q, want %q", text, "recuperado")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server received %d calls, want 3", got)
	}
}

func TestInvokeExhaustsRetryBound(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	}, 3)

	_, err := client.Invoke(context.Background(), Request{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrRemoteModel) {
		t.Errorf("got error %v, want %v", err, ErrRemoteModel)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server received %d calls, want exactly the retry bound of 3", got)
	}
}

func TestInvokeEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "x", "object": "chat.completion", "choices": []}`)
	}, 2)

	_, err := client.Invoke(context.Background(), Request{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrRemoteModel) {
		t.Errorf("got error %v, want %v", err, ErrRemoteModel)
	}
}

func TestInvokeStopsOnCanceledContext(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cancel()
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	}, 5)

	_, err := client.Invoke(ctx, Request{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server received %d calls, want 1 (no retries after cancellation)", got)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error chain does not carry context.Canceled: %v", err)
	}
	if !errors.Is(err, ErrRemoteModel) {
		t.Errorf("error chain does not carry ErrRemoteModel: %v", err)
	}
	if !strings.Contains(err.Error(), "canceled after 1 of 5 attempts") {
		t.Errorf("cancellation reported as retry exhaustion: %v", err)
	}
}

func TestInvokeExhaustionPreservesLastError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "invalid model"}}`, http.StatusNotFound)
	}, 2)

	_, err := client.Invoke(context.Background(), Request{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrRemoteModel) {
		t.Errorf("error chain does not carry ErrRemoteModel: %v", err)
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("error chain does not carry the underlying API error: %v", err)
	}
	if !strings.Contains(err.Error(), "all 2 attempts failed") {
		t.Errorf("exhaustion message missing: %v", err)
	}
}
