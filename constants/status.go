package constants

// ReviewStatus filters applications on the admin query surface.
type ReviewStatus string

// Stable values (used verbatim in query strings).
const (
	ReviewStatusPending   ReviewStatus = "pending"   // is_approved not yet set
	ReviewStatusCompleted ReviewStatus = "completed" // decided either way
)

// Fixed reason recorded for documents that never produced text; such
// documents are marked invalid without an LLM call.
const NoTextReason = "No extracted text available for validation"
