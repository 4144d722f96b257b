package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Ollama implements the Provider interface for local Ollama instances.
type Ollama struct {
	host  string
	model string
}

var _ Provider = (*Ollama)(nil)

// NewOllama creates an Ollama provider.
func NewOllama(host, model string) *Ollama {
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &Ollama{host: host, model: model}
}

func (o *Ollama) Name() string {
	return fmt.Sprintf("Ollama (%s)", o.model)
}

func (o *Ollama) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	type chatMsg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	apiMsgs := make([]chatMsg, 0, len(messages)+1)
	if system != "" {
		apiMsgs = append(apiMsgs, chatMsg{Role: "system", Content: system})
	}
	for _, m := range messages {
		apiMsgs = append(apiMsgs, chatMsg(m))
	}

	body := map[string]interface{}{
		"model":    o.model,
		"messages": apiMsgs,
		"stream":   false,
		"format":   "json",
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := o.host + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed (is Ollama running at %s?): %w", o.host, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("ollama parse error: %w", err)
	}

	if result.Message.Content == "" {
		return "", fmt.Errorf("ollama returned empty response")
	}

	return result.Message.Content, nil
}
