package providers

import "context"

// Message is one chat turn in provider wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMProvider is the conversational backend. The orchestration core
// treats every failure here as recoverable by falling through its
// fallback stages; nothing from this interface propagates as a crash.
type LLMProvider interface {
	// Stream requests a streaming reply and yields non-empty text
	// chunks. The sequence is finite and not restartable. Any
	// mid-stream failure silently truncates the stream and refreshes
	// the session for the next attempt.
	Stream(ctx context.Context, text string) <-chan string

	// Send issues a single blocking request on the same session.
	// On error the session is refreshed and the text is empty.
	Send(ctx context.Context, text string) (string, error)

	// Reset starts a fresh session with the current instruction.
	Reset()

	// UpdateInstruction replaces the system instruction and resets.
	// An empty instruction keeps the existing one.
	UpdateInstruction(instruction string)
}
