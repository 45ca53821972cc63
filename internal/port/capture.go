package port

import (
	"context"

	"github.com/tmnhat/pantry-scan/internal/core/domain"
)

type CaptureSurface interface {
	// Open acquires the camera feed. Re-opening implicitly closes any
	// previously open feed; at most one feed is open per surface.
	Open(ctx context.Context) error

	// CaptureFrame produces one still-image encoding from the current frame.
	CaptureFrame(ctx context.Context) (domain.Image, error)

	// Close releases the feed; idempotent.
	Close() error
}
