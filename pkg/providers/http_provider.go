package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benhli40/Orion/pkg/logger"
)

const defaultAPIBase = "https://openrouter.ai/api/v1"

// HTTPProvider is a session-holding chat client over an
// OpenAI-compatible /chat/completions endpoint. It keeps the
// conversation history so consecutive turns share context, the way a
// chat session does.
type HTTPProvider struct {
	apiKey      string
	apiBase     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client

	mu          sync.Mutex
	instruction string
	history     []Message
}

type HTTPProviderOptions struct {
	APIKey      string
	APIBase     string
	Model       string
	MaxTokens   int
	Temperature float64
	Instruction string
}

// NewHTTPProvider constructs the client. A missing API key is fatal
// here and only here; the orchestration core has no required external
// configuration.
func NewHTTPProvider(opts HTTPProviderOptions) (*HTTPProvider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("provider API key missing")
	}
	apiBase := strings.TrimRight(opts.APIBase, "/")
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &HTTPProvider{
		apiKey:      opts.APIKey,
		apiBase:     apiBase,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		instruction: opts.Instruction,
	}, nil
}

// reset clears the session history. Callers hold p.mu.
func (p *HTTPProvider) resetLocked() {
	p.history = nil
}

func (p *HTTPProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

func (p *HTTPProvider) UpdateInstruction(instruction string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if instruction != "" {
		p.instruction = instruction
	}
	p.resetLocked()
}

// messagesFor snapshots the wire messages for one request.
func (p *HTTPProvider) messagesFor(text string) []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := make([]Message, 0, len(p.history)+2)
	if p.instruction != "" {
		msgs = append(msgs, Message{Role: "system", Content: p.instruction})
	}
	msgs = append(msgs, p.history...)
	msgs = append(msgs, Message{Role: "user", Content: text})
	return msgs
}

// commit records a completed exchange in the session history.
func (p *HTTPProvider) commit(userText, reply string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history,
		Message{Role: "user", Content: userText},
		Message{Role: "assistant", Content: reply},
	)
}

func (p *HTTPProvider) buildRequest(ctx context.Context, text string, stream bool) (*http.Request, error) {
	requestBody := map[string]interface{}{
		"model":    p.model,
		"messages": p.messagesFor(text),
	}
	if p.maxTokens > 0 {
		requestBody["max_tokens"] = p.maxTokens
	}
	if p.temperature > 0 {
		requestBody["temperature"] = p.temperature
	}
	if stream {
		requestBody["stream"] = true
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	return req, nil
}

// Send issues a single blocking request. On any failure it refreshes
// the session and returns empty text with the error; the caller falls
// through to its next stage.
func (p *HTTPProvider) Send(ctx context.Context, text string) (string, error) {
	req, err := p.buildRequest(ctx, text, false)
	if err != nil {
		p.Reset()
		return "", err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.Reset()
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.Reset()
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		p.Reset()
		return "", fmt.Errorf("chat request failed:\n  Status: %d\n  Body:   %s", resp.StatusCode, string(body))
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		p.Reset()
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResponse.Choices) == 0 {
		p.Reset()
		return "", fmt.Errorf("no choices in response")
	}

	reply := strings.TrimSpace(apiResponse.Choices[0].Message.Content)
	if reply != "" {
		p.commit(text, reply)
	}
	return reply, nil
}

// Stream requests a streaming reply and yields text chunks as they
// arrive over SSE. Errors never surface: the channel just closes and
// the session is refreshed so the next attempt starts clean.
func (p *HTTPProvider) Stream(ctx context.Context, text string) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		full, err := p.streamInto(ctx, text, out)
		if err != nil {
			logger.WarnCF("provider", "Stream truncated",
				map[string]interface{}{"error": err.Error()})
			p.Reset()
			return
		}
		if full != "" {
			p.commit(text, full)
		}
	}()

	return out
}

func (p *HTTPProvider) streamInto(ctx context.Context, text string, out chan<- string) (string, error) {
	req, err := p.buildRequest(ctx, text, true)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("stream request failed: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			return full.String(), nil
		}

		var event struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return "", fmt.Errorf("malformed stream event: %w", err)
		}
		if len(event.Choices) == 0 {
			continue
		}
		chunk := event.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)

		select {
		case out <- chunk:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("stream read: %w", err)
	}
	return full.String(), nil
}
