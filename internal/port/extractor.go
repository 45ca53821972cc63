package port

import (
	"context"

	"github.com/tmnhat/pantry-scan/internal/core/domain"
)

type Extractor interface {
	// ExtractText runs a single extraction attempt over one image with a
	// natural-language instruction, returning trimmed text. No retry.
	ExtractText(ctx context.Context, image domain.Image, prompt string) (string, error)

	// SuggestRecipes asks the service for structured recipe suggestions for
	// the given item names. An empty or blank response yields an empty slice;
	// a response that cannot be parsed as the expected shape is an error.
	SuggestRecipes(ctx context.Context, itemNames []string) ([]domain.RecipeSuggestion, error)
}
