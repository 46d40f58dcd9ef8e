package core

import (
	"bytes"
	"testing"
)

func TestAllowedMime(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"image/png", true},
		{"IMAGE/PNG", true},
		{" application/pdf ", true},
		{"text/plain; charset=utf-8", true},
		{"text/csv", true},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true},
		{"application/zip", false},
		{"video/mp4", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := AllowedMime(tc.in); got != tc.ok {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.ok, got)
		}
	}
}

func TestAttachmentValidatePolicy(t *testing.T) {
	valid := Attachment{
		Filename: "nota.pdf",
		MimeType: "application/pdf",
		Data:     []byte("%PDF-1.4"),
	}
	if err := valid.ValidatePolicy(); err != nil {
		t.Fatalf("valid attachment rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Attachment)
		field  string
		reason string
	}{
		{"no filename", func(a *Attachment) { a.Filename = " " }, "filename", ReasonEmptyField},
		{"empty payload", func(a *Attachment) { a.Data = nil }, "file", ReasonEmptyField},
		{"oversized", func(a *Attachment) { a.Data = bytes.Repeat([]byte{0}, MaxAttachmentBytes+1) }, "size", ReasonFileTooLarge},
		{"bad mime", func(a *Attachment) { a.MimeType = "application/zip" }, "mime_type", ReasonUnsupportedMime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := valid
			tc.mutate(&a)
			assertInvalid(t, a.ValidatePolicy(), tc.field, tc.reason)
		})
	}
}
