package domain

import "time"

// Image is a self-contained still-image encoding: the raw bytes plus their
// declared media type. It travels as base64 in JSON.
type Image struct {
	MediaType string `json:"mediaType"`
	Data      []byte `json:"data"`
}

func (i Image) IsZero() bool {
	return len(i.Data) == 0
}

// InventoryRecord is a saved pantry item. Records are immutable once created;
// the only lifecycle operations are creation on save and deletion by id.
type InventoryRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ExpiryDate  string    `json:"expiryDate"`
	NameImage   Image     `json:"nameImage"`
	ExpiryImage Image     `json:"expiryImage"`
	ScannedAt   time.Time `json:"scannedAt"`
}

// RecipeSuggestion is a transient suggestion returned by the extraction
// gateway. It is never persisted.
type RecipeSuggestion struct {
	RecipeName   string   `json:"recipeName"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
}
