package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Backend runs the pretrained model on a single text and returns a score for
// every label it knows.
type Backend interface {
	Classify(ctx context.Context, text string) ([]LabelScore, error)
}

// HTTPBackend talks to a Hugging Face style text-classification endpoint.
type HTTPBackend struct {
	URL    string
	Token  string
	Client *http.Client
}

func NewHTTPBackend(url, token string) *HTTPBackend {
	return &HTTPBackend{URL: url, Token: token, Client: http.DefaultClient}
}

type inferenceRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters"`
	Options    map[string]any `json:"options"`
}

func (b *HTTPBackend) Classify(ctx context.Context, text string) ([]LabelScore, error) {
	body, err := json.Marshal(inferenceRequest{
		Inputs: text,
		// top_k null asks for every label.
		Parameters: map[string]any{"top_k": nil},
		Options:    map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.Token != "" {
		req.Header.Set("Authorization", "Bearer "+b.Token)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read inference response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("inference endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return parseOutput(raw)
}

// parseOutput accepts both the batched shape [[{label,score}...]] and the
// flat shape [{label,score}...].
func parseOutput(raw []byte) ([]LabelScore, error) {
	var batched [][]LabelScore
	if err := json.Unmarshal(raw, &batched); err == nil {
		if len(batched) == 0 {
			return nil, nil
		}
		return batched[0], nil
	}

	var flat []LabelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("unexpected inference response: %w", err)
	}
	return flat, nil
}
