package entity

// UploadedDocument is one raw file as received on the ingestion endpoint.
// It is consumed once by the text extractor and not retained past extraction
// except as the base64 audit copy on ExtractedDocument.
type UploadedDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExtractedDocument is the outcome of the extraction stage for one uploaded
// file. Text is nil when extraction failed; FailureReason then says why.
type ExtractedDocument struct {
	Filename      string  `json:"filename"`
	Text          *string `json:"text"`
	EncodedData   string  `json:"data"` // base64 of the original bytes, kept for audit/display
	FailureReason *string `json:"failure_reason,omitempty"`
}

// ValidationResult is the per-document verdict. Documents that never produced
// text are marked invalid deterministically and never reach the LLM.
type ValidationResult struct {
	Filename   string `json:"filename"`
	IsValid    bool   `json:"is_valid"`
	Reason     string `json:"reason"`
	SourceText string `json:"source_text"`
}
