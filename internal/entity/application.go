package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentResult is one element of an application's ordered per-document
// result list. Element i always corresponds to input file i.
type DocumentResult struct {
	Filename      string  `json:"filename"`
	ExtractedText *string `json:"extracted_text"`
	Data          string  `json:"data"` // base64 original bytes
	IsValid       bool    `json:"is_valid"`
	Reason        string  `json:"reason"`
}

// Application represents one applicant's submission for data transfer between
// layers: the ordered document results plus the derived credit proposal.
// IsApproved starts nil and is set out-of-band by an administrative reviewer;
// everything else is immutable once written.
type Application struct {
	ID            uuid.UUID        `json:"id"`
	UserID        string           `json:"user_id"`
	Documents     []DocumentResult `json:"documents"`
	ProposedScore int              `json:"proposed_score"`
	ProposedLimit int              `json:"proposed_limit"`
	IsApproved    *bool            `json:"is_approved"`
	SubmittedAt   time.Time        `json:"submitted_at"`
}

// ValidCount returns how many documents in the application validated.
func (a *Application) ValidCount() int {
	n := 0
	for _, d := range a.Documents {
		if d.IsValid {
			n++
		}
	}
	return n
}
