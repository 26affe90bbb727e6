package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stormix/stormbot/internal/config"
)

const defaultHuggingFaceURL = "https://api-inference.huggingface.co/models"

// HuggingFace is a conversational inference client. The model keeps no
// server-side state; the caller threads the running exchange back in on
// every query.
type HuggingFace struct {
	log  *slog.Logger
	cfg  config.HuggingFaceConfig
	http *http.Client

	// Overridable for tests.
	BaseURL string
}

// NewHuggingFace creates an inference client for the configured model.
func NewHuggingFace(cfg config.HuggingFaceConfig, log *slog.Logger) *HuggingFace {
	return &HuggingFace{
		log:     log.With("component", "huggingface"),
		cfg:     cfg,
		http:    &http.Client{Timeout: 30 * time.Second},
		BaseURL: defaultHuggingFaceURL,
	}
}

// Query sends one conversational turn and returns the generated reply.
// pastInputs and pastReplies carry the exchange so far, oldest first.
func (h *HuggingFace) Query(ctx context.Context, text string, pastInputs, pastReplies []string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"inputs": map[string]any{
			"text":                text,
			"past_user_inputs":    pastInputs,
			"generated_responses": pastReplies,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/"+h.cfg.Model, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("query model %s: %w", h.cfg.Model, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model %s: status %d: %s", h.cfg.Model, resp.StatusCode, detail)
	}

	var out struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode inference response: %w", err)
	}
	return out.GeneratedText, nil
}
