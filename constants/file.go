package constants

import "strings"

// Document formats recognized by the extraction stage.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// Content types accepted on upload. Anything else is rejected per file,
// never for the whole batch.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypePDF  = "application/pdf"
)

// MapContentTypeToFormat returns the extraction format for a declared
// content type, or "" when the type is unsupported.
func MapContentTypeToFormat(contentType string) string {
	switch NormalizeContentType(contentType) {
	case ContentTypeJPEG, ContentTypePNG:
		return IMAGE
	case ContentTypePDF:
		return PDF
	default:
		return ""
	}
}

// NormalizeContentType lowercases and strips any media-type parameters
// (e.g. "image/png; charset=binary" -> "image/png").
func NormalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
