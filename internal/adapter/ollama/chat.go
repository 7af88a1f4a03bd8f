package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Completions take far longer than a single vector lookup, hence the wider
// timeout.
const chatTimeout = 120 * time.Second

// CompletionError reports a failed or unusable chat completion.
type CompletionError struct {
	Endpoint string
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion service at %s: %v", e.Endpoint, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

type ChatClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewChatClient(baseURL, model string) *ChatClient {
	return &ChatClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: chatTimeout},
	}
}

// Chat sends a single-turn prompt with streaming disabled and returns the
// generated text. Both the chat-style message.content field and the older
// top-level response field are accepted; a reply carrying neither is an
// error.
func (c *ChatClient) Chat(ctx context.Context, prompt string) (string, error) {
	url := c.baseURL + "/api/chat"

	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream": false,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", &CompletionError{Endpoint: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", &CompletionError{Endpoint: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &CompletionError{Endpoint: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &CompletionError{Endpoint: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &CompletionError{Endpoint: url, Err: err}
	}

	content := result.Message.Content
	if content == "" {
		content = result.Response
	}
	if content == "" {
		return "", &CompletionError{Endpoint: url, Err: errors.New("response missing message content")}
	}
	return content, nil
}
