package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tmnhat/pantry-scan/internal/core/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-1.5-flash"
	defaultTimeout = 30 * time.Second
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Gemini is a stateless request/response wrapper around the generative-AI
// endpoint. It is always constructible: with no API key every call fails
// with ErrConfiguration so the rest of the app keeps working.
type Gemini struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

func NewGemini(cfg Config) *Gemini {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gemini{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// ExtractText sends one image plus an instruction and returns the trimmed
// extracted text. Exactly one request attempt is made.
func (g *Gemini) ExtractText(ctx context.Context, image domain.Image, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", domain.ErrConfiguration
	}
	if image.IsZero() {
		return "", fmt.Errorf("%w: image encoding is empty", domain.ErrInput)
	}

	body := map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"text": prompt},
				{"inline_data": map[string]any{
					"mime_type": mediaTypeOrDefault(image.MediaType),
					"data":      base64.StdEncoding.EncodeToString(image.Data),
				}},
			},
		}},
	}

	raw, err := g.generate(ctx, body)
	if err != nil {
		return "", err
	}
	text, err := candidateText(raw)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

var recipeSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"recipeName":   map[string]any{"type": "STRING"},
			"ingredients":  map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
			"instructions": map[string]any{"type": "STRING"},
		},
		"required": []string{"recipeName", "ingredients", "instructions"},
	},
}

// SuggestRecipes asks for structured recipe suggestions for the given item
// names. A blank model response yields an empty slice; a non-blank response
// that does not parse as the declared schema fails with ErrService.
func (g *Gemini) SuggestRecipes(ctx context.Context, itemNames []string) ([]domain.RecipeSuggestion, error) {
	if len(itemNames) == 0 {
		return nil, fmt.Errorf("%w: item names are required", domain.ErrInput)
	}
	if g.apiKey == "" {
		return nil, domain.ErrConfiguration
	}

	prompt := "I have these items in my pantry: " + strings.Join(itemNames, ", ") +
		". Suggest a few recipes I can make with them. For each recipe give its name, " +
		"the ingredients with quantities, and the preparation instructions."

	body := map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{{"text": prompt}},
		}},
		"generationConfig": map[string]any{
			"response_mime_type": "application/json",
			"response_schema":    recipeSchema,
		},
	}

	raw, err := g.generate(ctx, body)
	if err != nil {
		return nil, err
	}
	text, err := candidateText(raw)
	if err != nil {
		return nil, err
	}

	trimmed := stripFences(text)
	if trimmed == "" {
		return []domain.RecipeSuggestion{}, nil
	}
	var recipes []domain.RecipeSuggestion
	if err := json.Unmarshal([]byte(trimmed), &recipes); err != nil {
		return nil, fmt.Errorf("%w: recipe response is not valid JSON: %v", domain.ErrService, err)
	}
	return sanitizeSuggestions(recipes), nil
}

// sanitizeSuggestions drops entries the model produced without a name,
// ingredients or instructions despite the declared schema.
func sanitizeSuggestions(recipes []domain.RecipeSuggestion) []domain.RecipeSuggestion {
	out := make([]domain.RecipeSuggestion, 0, len(recipes))
	for _, r := range recipes {
		if strings.TrimSpace(r.RecipeName) == "" ||
			len(r.Ingredients) == 0 ||
			strings.TrimSpace(r.Instructions) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (g *Gemini) generate(ctx context.Context, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrService, err)
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrService, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrService, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status=%d", domain.ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(string(respBody), "API_KEY_INVALID"):
		return nil, fmt.Errorf("%w: status=%d", domain.ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status=%d", domain.ErrQuota, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: status=%d body=%s", domain.ErrService,
			resp.StatusCode, truncate(strings.TrimSpace(string(respBody)), 240))
	}
	return respBody, nil
}

// candidateText joins the text parts of the first candidate. A body that is
// not the expected JSON envelope is an ErrService; an envelope with no
// candidates yields an empty string.
func candidateText(raw []byte) (string, error) {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: unreadable response body: %v", domain.ErrService, err)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(resp.Candidates[0].Content.Parts))
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

// mediaTypeOrDefault tolerates missing or non-image media types by falling
// back to JPEG rather than failing.
func mediaTypeOrDefault(mt string) string {
	mt = strings.TrimSpace(mt)
	if !strings.HasPrefix(mt, "image/") {
		return "image/jpeg"
	}
	return mt
}

func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
