package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tmnhat/pantry-scan/internal/core/domain"
	"github.com/tmnhat/pantry-scan/internal/port"
)

var (
	ErrScanBusy   = errors.New("a capture is already being processed")
	ErrWrongStage = errors.New("action not allowed in current stage")
)

const (
	namePrompt   = "Read the product or food name printed on this label. Reply with the name only, no explanations."
	expiryPrompt = "Read the expiry or best-before date shown in this photo. Reply with the date text only, no explanations."
)

// ScanService drives the two-photo capture sequence:
//
//	Idle -> AwaitingNameImage -> ProcessingNameImage -> AwaitingExpiryImage
//	     -> ProcessingExpiryImage -> ConfirmDetails -> Idle
//
// One logical session exists per service. At most one capture/extraction
// round trip is in flight; the generation counter bumps on every reset so a
// result landing on a since-reset session is discarded instead of applied.
type ScanService struct {
	mu        sync.Mutex
	session   domain.ScanSession
	gen       uint64
	capture   port.CaptureSurface
	extractor port.Extractor
	inventory *InventoryService
}

func NewScanService(capture port.CaptureSurface, extractor port.Extractor, inventory *InventoryService) *ScanService {
	return &ScanService{
		session:   domain.NewScanSession(),
		capture:   capture,
		extractor: extractor,
		inventory: inventory,
	}
}

// Session returns a snapshot of the current scan session.
func (s *ScanService) Session() domain.ScanSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Start begins a new scan, discarding any previous session.
func (s *ScanService) Start() domain.ScanSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.session = domain.ScanSession{Stage: domain.StageAwaitingNameImage}
	return s.session
}

// CaptureName captures the label photo and extracts the product name.
func (s *ScanService) CaptureName(ctx context.Context) (domain.ScanSession, error) {
	return s.captureAndExtract(ctx, domain.StageAwaitingNameImage, domain.StageProcessingNameImage, namePrompt,
		func(sess *domain.ScanSession, img domain.Image, text string) {
			sess.NameImage = img
			sess.ExtractedName = text
			sess.Name = text
			sess.Stage = domain.StageAwaitingExpiryImage
		})
}

// CaptureExpiry captures the expiry-date photo and extracts the date text.
func (s *ScanService) CaptureExpiry(ctx context.Context) (domain.ScanSession, error) {
	return s.captureAndExtract(ctx, domain.StageAwaitingExpiryImage, domain.StageProcessingExpiryImage, expiryPrompt,
		func(sess *domain.ScanSession, img domain.Image, text string) {
			sess.ExpiryImage = img
			sess.ExtractedExpiry = text
			sess.ExpiryDate = text
			sess.Stage = domain.StageConfirmDetails
		})
}

func (s *ScanService) captureAndExtract(ctx context.Context, awaiting, processing domain.ScanStage, prompt string,
	apply func(*domain.ScanSession, domain.Image, string)) (domain.ScanSession, error) {

	s.mu.Lock()
	if s.session.Processing() {
		sess := s.session
		s.mu.Unlock()
		return sess, ErrScanBusy
	}
	if s.session.Stage != awaiting {
		sess := s.session
		s.mu.Unlock()
		return sess, fmt.Errorf("%w: stage is %s", ErrWrongStage, s.session.Stage)
	}
	gen := s.gen
	s.session.Stage = processing
	s.session.Error = ""
	s.mu.Unlock()

	img, err := s.capture.CaptureFrame(ctx)
	var text string
	if err == nil {
		text, err = s.extractor.ExtractText(ctx, img, prompt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		// The session was reset while the round trip was pending; the result
		// (success or failure) is discarded rather than applied.
		return s.session, nil
	}
	if err != nil {
		s.session.Stage = awaiting
		s.session.Error = userMessage(err)
		return s.session, err
	}
	apply(&s.session, img, text)
	return s.session, nil
}

// SetFields records the user's edits to the extracted name and expiry text.
// Accepted once the name text exists, i.e. from AwaitingExpiryImage onward.
func (s *ScanService) SetFields(name, expiryDate string) (domain.ScanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.session.Stage {
	case domain.StageAwaitingExpiryImage, domain.StageConfirmDetails:
	default:
		return s.session, fmt.Errorf("%w: stage is %s", ErrWrongStage, s.session.Stage)
	}
	s.session.Name = name
	s.session.ExpiryDate = expiryDate
	return s.session, nil
}

// Save validates the confirmed details, constructs an InventoryRecord and
// prepends it to the inventory, then resets the session to Idle. Validation
// failure keeps the stage at ConfirmDetails with an error set. A mirror-write
// failure still resets the session (the record is held in memory) and the
// wrapped ErrStorage is returned so the caller can surface a warning.
func (s *ScanService) Save(ctx context.Context) (domain.ScanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Stage != domain.StageConfirmDetails {
		return s.session, fmt.Errorf("%w: stage is %s", ErrWrongStage, s.session.Stage)
	}

	name := strings.TrimSpace(s.session.Name)
	if name == "" || s.session.NameImage.IsZero() || s.session.ExpiryImage.IsZero() {
		s.session.Error = "A name and both photos are required before saving."
		return s.session, fmt.Errorf("%w: name and both images are required", domain.ErrInput)
	}

	record := domain.InventoryRecord{
		ID:          uuid.NewString(),
		Name:        name,
		ExpiryDate:  s.session.ExpiryDate,
		NameImage:   s.session.NameImage,
		ExpiryImage: s.session.ExpiryImage,
		ScannedAt:   time.Now().UTC(),
	}
	err := s.inventory.Add(ctx, record)

	s.gen++
	s.session = domain.NewScanSession()
	return s.session, err
}

// RetakeAll clears the session's images and text and restarts the capture
// sequence from the name photo.
func (s *ScanService) RetakeAll() (domain.ScanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Stage != domain.StageConfirmDetails {
		return s.session, fmt.Errorf("%w: stage is %s", ErrWrongStage, s.session.Stage)
	}
	s.gen++
	s.session = domain.ScanSession{Stage: domain.StageAwaitingNameImage}
	return s.session, nil
}

// Cancel discards the session and returns to Idle. Allowed from any non-idle
// stage; a pending extraction's result is discarded when it arrives.
func (s *ScanService) Cancel() domain.ScanSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Stage == domain.StageIdle {
		return s.session
	}
	s.gen++
	s.session = domain.NewScanSession()
	return s.session
}

// userMessage converts a boundary error into the message shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return "The AI service is not configured; set a service credential and restart."
	case errors.Is(err, domain.ErrQuota):
		return "The AI service usage quota has been exceeded; try again later."
	case errors.Is(err, domain.ErrAuth):
		return "The AI service rejected the configured credential."
	case errors.Is(err, domain.ErrPermission):
		return "Camera access was denied."
	case errors.Is(err, domain.ErrNoDevice):
		return "No camera is available."
	case errors.Is(err, domain.ErrNotReady):
		return "The camera is not producing frames yet; try again."
	case errors.Is(err, domain.ErrInput):
		return "The captured image could not be used; retake the photo."
	default:
		return "Extraction failed; retake the photo and try again."
	}
}
