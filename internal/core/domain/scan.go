package domain

type ScanStage string

const (
	StageIdle                  ScanStage = "idle"
	StageAwaitingNameImage     ScanStage = "awaiting_name_image"
	StageProcessingNameImage   ScanStage = "processing_name_image"
	StageAwaitingExpiryImage   ScanStage = "awaiting_expiry_image"
	StageProcessingExpiryImage ScanStage = "processing_expiry_image"
	StageConfirmDetails        ScanStage = "confirm_details"
)

// ScanSession is the transient working state for one in-progress two-photo
// scan. It is discarded on cancel or successful save and never persisted.
//
// ExtractedName/ExtractedExpiry hold what the extraction returned; Name and
// ExpiryDate start as copies of those and track the user's edits.
type ScanSession struct {
	Stage           ScanStage `json:"stage"`
	NameImage       Image     `json:"nameImage"`
	ExpiryImage     Image     `json:"expiryImage"`
	ExtractedName   string    `json:"extractedName"`
	Name            string    `json:"name"`
	ExtractedExpiry string    `json:"extractedExpiry"`
	ExpiryDate      string    `json:"expiryDate"`
	Error           string    `json:"error,omitempty"`
}

func NewScanSession() ScanSession {
	return ScanSession{Stage: StageIdle}
}

// Processing reports whether an extraction round trip is in flight.
func (s ScanSession) Processing() bool {
	return s.Stage == StageProcessingNameImage || s.Stage == StageProcessingExpiryImage
}
