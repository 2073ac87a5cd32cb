package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	ollamaDefaultBaseURL = "http://localhost:11434"
	ollamaDefaultModel   = "llama3.2"
)

// OllamaConfig configures the Ollama-backed oracle.
type OllamaConfig struct {
	// BaseURL falls back to OLLAMA_BASE_URL, then http://localhost:11434.
	BaseURL string
	// Model falls back to OLLAMA_MODEL, then llama3.2.
	Model string
	// NumPredict caps generated tokens. The answer only needs the option digit,
	// so the default is 1.
	NumPredict  int
	Temperature float64
	// Timeout bounds each HTTP call. Zero means 30s, negative means unbounded.
	Timeout     time.Duration
}

// Ollama asks a local model served by Ollama's /api/chat endpoint.
type Ollama struct {
	baseURL     string
	model       string
	numPredict  int
	temperature float64
	client      *http.Client
}

func NewOllama(cfg OllamaConfig) *Ollama {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL"))
	}
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = strings.TrimSpace(os.Getenv("OLLAMA_MODEL"))
	}
	if model == "" {
		model = ollamaDefaultModel
	}
	numPredict := cfg.NumPredict
	if numPredict <= 0 {
		numPredict = 1
	}
	timeout := cfg.Timeout
	switch {
	case timeout == 0:
		timeout = 30 * time.Second
	case timeout < 0:
		timeout = 0
	}
	return &Ollama{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		numPredict:  numPredict,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Model() string { return o.model }

func (o *Ollama) Available() bool { return o.baseURL != "" && o.model != "" }

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  ollamaChatOpts `json:"options"`
}

type ollamaChatOpts struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

func (o *Ollama) Decide(ctx context.Context, s Situation) (string, error) {
	reqBody := ollamaChatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(s.Disposition)},
			{Role: "user", Content: UserPrompt(s)},
		},
		Stream: false,
		Options: ollamaChatOpts{
			NumPredict:  o.numPredict,
			Temperature: o.temperature,
		},
	}

	body, err := postJSON(ctx, o.client, o.baseURL+"/api/chat", nil, reqBody)
	if err != nil {
		return "", fmt.Errorf("calling Ollama: %w", err)
	}

	var resp ollamaChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parsing Ollama response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("Ollama error: %s", resp.Error)
	}
	return resp.Message.Content, nil
}

// postJSON sends v as a JSON body and returns the raw response body of a 2xx reply.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, v any) ([]byte, error) {
	jsonBody, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
