package core

import "strings"

// MaxAttachmentBytes caps attachment size at the ingestion boundary.
const MaxAttachmentBytes = 30 << 20 // 30 MiB

// Images, PDF, plain text/CSV, and the common office formats.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/gif":       {},
	"image/bmp":       {},
	"application/pdf": {},
	"text/plain":      {},
	"text/csv":        {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       {},
}

// AllowedMime reports whether a MIME type is on the ingestion allow-list.
// Parameters after a semicolon (charset and the like) are ignored.
func AllowedMime(mime string) bool {
	mime = strings.TrimSpace(strings.ToLower(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	_, ok := allowedMimeTypes[mime]
	return ok
}

// ValidatePolicy enforces the ingestion rules: filename present, size cap,
// MIME allow-list, and size_bytes matching the payload.
func (a Attachment) ValidatePolicy() error {
	if strings.TrimSpace(a.Filename) == "" {
		return Invalid("filename", ReasonEmptyField)
	}
	if len(a.Data) == 0 {
		return Invalid("file", ReasonEmptyField)
	}
	if int64(len(a.Data)) > MaxAttachmentBytes {
		return Invalid("size", ReasonFileTooLarge)
	}
	if !AllowedMime(a.MimeType) {
		return Invalid("mime_type", ReasonUnsupportedMime)
	}
	return nil
}
