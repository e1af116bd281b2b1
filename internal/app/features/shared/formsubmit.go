package shared

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/junctionhq/junction/internal/app/system/formschema"
	"github.com/junctionhq/junction/internal/domain/models"
)

// maxUploadMemory bounds the in-memory part of multipart parsing;
// larger files spill to disk.
const maxUploadMemory = 32 << 20

// Upload is a file part waiting to be stored once its submission has
// been accepted.
type Upload struct {
	Field  models.FormField
	Header *multipart.FileHeader
}

// CollectSubmission parses the posted form against a definition's
// fields, building the answers map to validate and the list of file
// parts to store after the submission is accepted.
//
// Checkbox fields collect all checked values; file fields answer with
// the submitted filenames so required-presence validation works the
// same as for text fields.
func CollectSubmission(r *http.Request, fields []models.FormField) (map[string]any, []Upload, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxUploadMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, nil, err
	}

	answers := make(map[string]any, len(fields))
	var uploads []Upload

	for _, f := range fields {
		switch f.Type {
		case models.FieldCheckbox:
			if vals := r.Form[f.ID]; len(vals) > 0 {
				answers[f.ID] = vals
			}
		case models.FieldFile:
			if r.MultipartForm == nil {
				continue
			}
			headers := r.MultipartForm.File[f.ID]
			if len(headers) == 0 {
				continue
			}
			names := make([]string, 0, len(headers))
			for _, hdr := range headers {
				names = append(names, hdr.Filename)
				uploads = append(uploads, Upload{Field: f, Header: hdr})
			}
			answers[f.ID] = names
		default:
			if v := r.FormValue(f.ID); v != "" {
				answers[f.ID] = v
			}
		}
	}
	return answers, uploads, nil
}

// CheckUploads validates every pending file part against its field's
// constraints, so nothing is persisted when any part would be refused
// at storage time.
func CheckUploads(uploads []Upload) formschema.FieldErrors {
	var errs formschema.FieldErrors
	for _, up := range uploads {
		ct := up.Header.Header.Get("Content-Type")
		if err := formschema.CheckFile(up.Field.File, up.Header.Filename, ct, up.Header.Size); err != nil {
			errs = append(errs, formschema.FieldError{FieldID: up.Field.ID, Message: err.Error()})
		}
	}
	return errs
}

// StoreUploads writes accepted file parts through the given store
// function. It is called only after the submission row exists.
func StoreUploads(uploads []Upload, store func(up Upload, filename, contentType string, size int64, r io.Reader) error) error {
	for _, up := range uploads {
		f, err := up.Header.Open()
		if err != nil {
			return err
		}
		ct := up.Header.Header.Get("Content-Type")
		err = store(up, up.Header.Filename, ct, up.Header.Size, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
