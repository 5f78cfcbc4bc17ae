package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sourceplane/devsetup/internal/model"
)

const systemPrompt = "You are a macOS setup assistant. Return only compact JSON with keys summary,commands,notes. Commands must be safe and minimal."

// ErrCircuitOpen is returned while the breaker refuses calls after repeated failures
var ErrCircuitOpen = errors.New("external advisor circuit open")

// Payload is the strict JSON the external advisor must return
type Payload struct {
	Summary  string   `json:"summary"`
	Commands []string `json:"commands"`
	Notes    string   `json:"notes"`
}

// NewCircuitBreaker trips after three consecutive failures and probes again
// after thirty seconds.
func NewCircuitBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "external-advisor",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// Client calls an OpenAI Responses-compatible endpoint
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
}

// NewClient creates a client posting to <baseURL>/responses. httpClient and cb
// may be nil.
func NewClient(baseURL, modelName string, httpClient *http.Client, cb *gobreaker.CircuitBreaker) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cb == nil {
		cb = NewCircuitBreaker()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:   modelName,
		http:    httpClient,
		cb:      cb,
	}
}

// Endpoint is the URL requests are posted to
func (c *Client) Endpoint() string {
	return c.baseURL + "/responses"
}

// Advise asks the external advisor for remediation of failure.
func (c *Client) Advise(ctx context.Context, failure model.InstallFailure, hints []string, credential string) (Payload, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.request(ctx, failure, hints, credential)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Payload{}, ErrCircuitOpen
		}
		return Payload{}, err
	}
	return out.(Payload), nil
}

// ErrInvalidKey is returned by CheckKey when the endpoint rejects the key
var ErrInvalidKey = errors.New("invalid API key")

// CheckKey confirms credential is accepted by listing models. It bypasses the
// circuit breaker.
func (c *Client) CheckKey(ctx context.Context, credential string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(credential))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrInvalidKey
	default:
		return fmt.Errorf("key check returned HTTP %d", resp.StatusCode)
	}
}

type inputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type responsesRequest struct {
	Model           string         `json:"model"`
	Temperature     float64        `json:"temperature"`
	MaxOutputTokens int            `json:"max_output_tokens"`
	Input           []inputMessage `json:"input"`
}

func (c *Client) request(ctx context.Context, failure model.InstallFailure, hints []string, credential string) (Payload, error) {
	body, err := json.Marshal(responsesRequest{
		Model:           c.model,
		Temperature:     0.1,
		MaxOutputTokens: 400,
		Input: []inputMessage{
			{Role: "system", Content: []inputContent{{Type: "input_text", Text: systemPrompt}}},
			{Role: "user", Content: []inputContent{{Type: "input_text", Text: userPrompt(failure, hints)}}},
		},
	})
	if err != nil {
		return Payload{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return Payload{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(credential))

	resp, err := c.http.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Payload{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, fmt.Errorf("advisor returned HTTP %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(data)), 200))
	}

	return decodePayload(firstJSONObject(outputText(data)))
}

// ErrIncompleteAdvice is returned when the advice JSON lacks a required key
var ErrIncompleteAdvice = errors.New("advice is missing summary, commands or notes")

type strictPayload struct {
	Summary  *string   `json:"summary"`
	Commands *[]string `json:"commands"`
	Notes    *string   `json:"notes"`
}

// decodePayload requires every key to be present and non-null.
func decodePayload(snippet string) (Payload, error) {
	var raw strictPayload
	if err := json.Unmarshal([]byte(snippet), &raw); err != nil {
		return Payload{}, fmt.Errorf("failed to decode advice: %w", err)
	}
	if raw.Summary == nil || raw.Commands == nil || raw.Notes == nil {
		return Payload{}, ErrIncompleteAdvice
	}
	return Payload{Summary: *raw.Summary, Commands: *raw.Commands, Notes: *raw.Notes}, nil
}

func userPrompt(failure model.InstallFailure, hints []string) string {
	var b strings.Builder
	b.WriteString("Installation step failed.\n")
	fmt.Fprintf(&b, "Item: %s\n", failure.ComponentName)
	fmt.Fprintf(&b, "Command: %s\n", failure.Command)
	fmt.Fprintf(&b, "Exit code: %d\n", failure.ExitCode)
	fmt.Fprintf(&b, "Timed out: %t\n", failure.TimedOut)
	b.WriteString("Output:\n")
	b.WriteString(failure.Output)
	b.WriteString("\n\nBuilt-in hints:\n")
	b.WriteString(strings.Join(hints, "\n"))
	b.WriteString("\n\nReturn JSON only.")
	return b.String()
}

type responsesBody struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Text *string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// outputText pulls the model text out of a Responses API body, falling back
// to the raw body.
func outputText(data []byte) string {
	var body responsesBody
	if err := json.Unmarshal(data, &body); err != nil {
		return string(data)
	}
	if body.OutputText != "" {
		return body.OutputText
	}
	var fragments []string
	for _, item := range body.Output {
		for _, block := range item.Content {
			if block.Text != nil {
				fragments = append(fragments, *block.Text)
			}
		}
	}
	if len(fragments) > 0 {
		return strings.Join(fragments, "\n")
	}
	return string(data)
}

// firstJSONObject returns the text from the first '{' to the last '}'.
func firstJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
