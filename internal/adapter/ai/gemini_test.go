package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tmnhat/pantry-scan/internal/core/domain"
)

func testImage() domain.Image {
	return domain.Image{MediaType: "image/jpeg", Data: []byte("jpeg-bytes")}
}

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			},
		}},
	})
	return string(b)
}

func newTestGemini(url string) *Gemini {
	return NewGemini(Config{APIKey: "test-key", BaseURL: url})
}

func TestExtractText_ReturnsTrimmedText(t *testing.T) {
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(candidateBody("  Oats \n")))
	}))
	defer ts.Close()

	text, err := newTestGemini(ts.URL).ExtractText(context.Background(), testImage(), "read the label")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Oats" {
		t.Errorf("expected Oats, got %q", text)
	}

	raw, _ := json.Marshal(gotBody)
	if !strings.Contains(string(raw), "inline_data") || !strings.Contains(string(raw), "read the label") {
		t.Errorf("request body missing image or prompt: %s", raw)
	}
}

func TestExtractText_MissingKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made without a credential")
	}))
	defer ts.Close()

	g := NewGemini(Config{BaseURL: ts.URL})
	_, err := g.ExtractText(context.Background(), testImage(), "read")
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestExtractText_EmptyImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made for an empty image")
	}))
	defer ts.Close()

	_, err := newTestGemini(ts.URL).ExtractText(context.Background(), domain.Image{}, "read")
	if !errors.Is(err, domain.ErrInput) {
		t.Errorf("expected ErrInput, got %v", err)
	}
}

func TestExtractText_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"forbidden", http.StatusForbidden, "", domain.ErrAuth},
		{"unauthorized", http.StatusUnauthorized, "", domain.ErrAuth},
		{"bad key", http.StatusBadRequest, `{"error":{"status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`, domain.ErrAuth},
		{"quota", http.StatusTooManyRequests, "", domain.ErrQuota},
		{"server error", http.StatusInternalServerError, "", domain.ErrService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			_, err := newTestGemini(ts.URL).ExtractText(context.Background(), testImage(), "read")
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestExtractText_DefaultsMediaTypeToJPEG(t *testing.T) {
	var raw string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		b, _ := json.Marshal(body)
		raw = string(b)
		w.Write([]byte(candidateBody("ok")))
	}))
	defer ts.Close()

	img := domain.Image{MediaType: "application/octet-stream", Data: []byte("x")}
	if _, err := newTestGemini(ts.URL).ExtractText(context.Background(), img, "read"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(raw, "image/jpeg") {
		t.Errorf("expected media type defaulted to image/jpeg, body: %s", raw)
	}
}

func TestSuggestRecipes_EmptyNames(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made for empty item names")
	}))
	defer ts.Close()

	_, err := newTestGemini(ts.URL).SuggestRecipes(context.Background(), nil)
	if !errors.Is(err, domain.ErrInput) {
		t.Errorf("expected ErrInput, got %v", err)
	}
}

func TestSuggestRecipes_ParsesStructuredResponse(t *testing.T) {
	recipes := []domain.RecipeSuggestion{
		{RecipeName: "French Toast", Ingredients: []string{"2 eggs", "4 slices bread"}, Instructions: "Dip and fry."},
		{RecipeName: "Egg Sandwich", Ingredients: []string{"1 egg", "2 slices bread"}, Instructions: "Fry and assemble."},
	}
	payload, _ := json.Marshal(recipes)

	var gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		b, _ := json.Marshal(body)
		gotBody = string(b)
		w.Write([]byte(candidateBody(string(payload))))
	}))
	defer ts.Close()

	got, err := newTestGemini(ts.URL).SuggestRecipes(context.Background(), []string{"eggs", "bread"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(got))
	}
	if got[0].RecipeName != "French Toast" || len(got[0].Ingredients) != 2 {
		t.Errorf("unexpected first recipe: %+v", got[0])
	}
	if !strings.Contains(gotBody, "response_schema") || !strings.Contains(gotBody, "eggs, bread") {
		t.Errorf("request missing schema or item names: %s", gotBody)
	}
}

func TestSuggestRecipes_BlankResponseYieldsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody("")))
	}))
	defer ts.Close()

	got, err := newTestGemini(ts.URL).SuggestRecipes(context.Background(), []string{"eggs"})
	if err != nil {
		t.Fatalf("expected empty slice, got error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected 0 recipes, got %d", len(got))
	}
}

func TestSuggestRecipes_DropsIncompleteEntries(t *testing.T) {
	payload := `[
		{"recipeName":"French Toast","ingredients":["2 eggs","4 slices bread"],"instructions":"Dip and fry."},
		{"recipeName":"","ingredients":["1 egg"],"instructions":"Fry."},
		{"recipeName":"Egg Sandwich","ingredients":[],"instructions":"Assemble."},
		{"recipeName":"Omelette","ingredients":["3 eggs"],"instructions":"  "}
	]`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody(payload)))
	}))
	defer ts.Close()

	got, err := newTestGemini(ts.URL).SuggestRecipes(context.Background(), []string{"eggs", "bread"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].RecipeName != "French Toast" {
		t.Errorf("expected only the complete suggestion, got %+v", got)
	}
}

func TestSuggestRecipes_UnparsableResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody("I cannot help with that.")))
	}))
	defer ts.Close()

	_, err := newTestGemini(ts.URL).SuggestRecipes(context.Background(), []string{"eggs"})
	if !errors.Is(err, domain.ErrService) {
		t.Errorf("expected ErrService, got %v", err)
	}
}

func TestSuggestRecipes_StripsCodeFences(t *testing.T) {
	fenced := "```json\n[{\"recipeName\":\"Omelette\",\"ingredients\":[\"3 eggs\"],\"instructions\":\"Whisk and fry.\"}]\n```"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody(fenced)))
	}))
	defer ts.Close()

	got, err := newTestGemini(ts.URL).SuggestRecipes(context.Background(), []string{"eggs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].RecipeName != "Omelette" {
		t.Errorf("unexpected recipes: %+v", got)
	}
}
