package port

import "context"

// Mirror is the durable slot holding the serialized inventory collection.
// It is read once at startup and overwritten in full on every mutation.
type Mirror interface {
	// Load returns the stored payload, or (nil, nil) when the slot is absent.
	Load(ctx context.Context) ([]byte, error)

	// Save overwrites the slot with the given payload.
	Save(ctx context.Context, payload []byte) error
}
