package shared_test

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/junctionhq/junction/internal/app/features/shared"
	"github.com/junctionhq/junction/internal/domain/models"
)

func buildMultipart(t *testing.T, fields map[string][]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, vals := range fields {
		for _, v := range vals {
			if err := mw.WriteField(name, v); err != nil {
				t.Fatalf("WriteField(%s): %v", name, err)
			}
		}
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile("attachment", name)
		if err != nil {
			t.Fatalf("CreateFormFile(%s): %v", name, err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func sampleFields() []models.FormField {
	return []models.FormField{
		{ID: "full_name", Label: "Full name", Type: models.FieldText, Required: true},
		{ID: "topics", Label: "Topics", Type: models.FieldCheckbox, Options: []string{"events", "hubs"}},
		{ID: "attachment", Label: "Attachment", Type: models.FieldFile,
			File: &models.FileConstraints{FileTypes: []string{".pdf"}}},
	}
}

func TestCollectSubmission_Multipart(t *testing.T) {
	body, contentType := buildMultipart(t,
		map[string][]string{
			"full_name": {"  Ada   Lovelace "},
			"topics":    {"events", "hubs"},
		},
		map[string][]byte{"notes.pdf": []byte("%PDF-1.4")},
	)

	req := httptest.NewRequest("POST", "/contact", body)
	req.Header.Set("Content-Type", contentType)

	answers, uploads, err := shared.CollectSubmission(req, sampleFields())
	if err != nil {
		t.Fatalf("CollectSubmission: %v", err)
	}

	if got, ok := answers["full_name"].(string); !ok || got != "  Ada   Lovelace " {
		t.Errorf("full_name answer = %v, want raw form value", answers["full_name"])
	}
	topics, ok := answers["topics"].([]string)
	if !ok || len(topics) != 2 {
		t.Fatalf("topics answer = %v, want two checked values", answers["topics"])
	}
	names, ok := answers["attachment"].([]string)
	if !ok || len(names) != 1 || names[0] != "notes.pdf" {
		t.Errorf("attachment answer = %v, want [notes.pdf]", answers["attachment"])
	}
	if len(uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(uploads))
	}
	if uploads[0].Field.ID != "attachment" {
		t.Errorf("upload field = %q, want attachment", uploads[0].Field.ID)
	}
}

func TestCollectSubmission_EmptyValuesOmitted(t *testing.T) {
	req := httptest.NewRequest("POST", "/contact", strings.NewReader("full_name="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	answers, uploads, err := shared.CollectSubmission(req, sampleFields())
	if err != nil {
		t.Fatalf("CollectSubmission: %v", err)
	}
	if _, present := answers["full_name"]; present {
		t.Error("empty text value should not appear in answers")
	}
	if len(uploads) != 0 {
		t.Errorf("uploads = %d, want 0 for urlencoded form", len(uploads))
	}
}

func TestCheckUploads_RejectsDisallowedType(t *testing.T) {
	body, contentType := buildMultipart(t, nil,
		map[string][]byte{"malware.exe": []byte("MZ")})

	req := httptest.NewRequest("POST", "/contact", body)
	req.Header.Set("Content-Type", contentType)

	_, uploads, err := shared.CollectSubmission(req, sampleFields())
	if err != nil {
		t.Fatalf("CollectSubmission: %v", err)
	}
	if len(uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(uploads))
	}

	errs := shared.CheckUploads(uploads)
	if len(errs) != 1 {
		t.Fatalf("CheckUploads errors = %v, want one rejection", errs)
	}
	if errs[0].FieldID != "attachment" {
		t.Errorf("error field = %q, want attachment", errs[0].FieldID)
	}
}
