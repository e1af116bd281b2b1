// Package formschema implements the dynamic form machinery: closed
// field-type set, definition validation, answer validation against a
// frozen snapshot, and snapshotting itself.
//
// Validation is polymorphic over field type through a dispatch table
// keyed by the type tag rather than switch statements scattered across
// call sites.
package formschema

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/junctionhq/junction/internal/domain/models"
)

// FieldError is a validation failure scoped to a single field.
type FieldError struct {
	FieldID string `json:"fieldId"`
	Message string `json:"message"`
}

// FieldErrors is the error list returned to submitters. A non-empty
// list blocks persistence entirely; there are no partial submissions.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "no field errors"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.FieldID + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// validator checks a single non-empty answer value against its field.
type validator func(f models.FormField, value any) error

// validators dispatches on the field's type tag. Every member of the
// closed type set has an entry; ValidateDefinition guarantees no other
// tag reaches answer validation.
var validators = map[models.FieldType]validator{
	models.FieldText:     validateString,
	models.FieldTextarea: validateString,
	models.FieldTel:      validateString,
	models.FieldEmail:    validateEmail,
	models.FieldURL:      validateURL,
	models.FieldSelect:   validateChoice,
	models.FieldRadio:    validateChoice,
	models.FieldCheckbox: validateMultiChoice,
	models.FieldNumber:   validateNumber,
	models.FieldDate:     validateDate,
	models.FieldFile:     validateFilePresence,
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address. Other
// features reuse this for identity fields collected outside a form
// definition.
func ValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// ValidateDefinition checks a proposed form definition: field ids must
// be unique and non-empty, types must belong to the closed set, and
// enumerated types must declare options.
func ValidateDefinition(fields []models.FormField) error {
	if len(fields) == 0 {
		return fmt.Errorf("form definition needs at least one field")
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.ID) == "" {
			return fmt.Errorf("field %q has an empty id", f.Label)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("duplicate field id %q", f.ID)
		}
		seen[f.ID] = struct{}{}

		if _, ok := validators[f.Type]; !ok {
			return fmt.Errorf("field %q has unknown type %q", f.ID, f.Type)
		}
		if needsOptions(f.Type) && len(f.Options) == 0 {
			return fmt.Errorf("field %q of type %q declares no options", f.ID, f.Type)
		}
		if f.Pattern != "" {
			if _, err := regexp.Compile(f.Pattern); err != nil {
				return fmt.Errorf("field %q has invalid pattern: %w", f.ID, err)
			}
		}
	}
	return nil
}

func needsOptions(t models.FieldType) bool {
	return t == models.FieldSelect || t == models.FieldRadio || t == models.FieldCheckbox
}

// ValidateAnswers checks answers against a snapshot's fields.
//
// Missing required fields take precedence over every other failure
// class: if any required field is absent, only those errors are
// returned, so a submitter fixes presence before format.
func ValidateAnswers(fields []models.FormField, answers map[string]any) FieldErrors {
	var missing, invalid FieldErrors

	for _, f := range fields {
		value, present := answers[f.ID]
		if !present || isEmptyAnswer(value) {
			if f.Required {
				missing = append(missing, FieldError{FieldID: f.ID, Message: "this field is required"})
			}
			continue
		}

		check := validators[f.Type]
		if check == nil {
			// Snapshot predates a type removal; treat as opaque text.
			check = validateString
		}
		if err := check(f, value); err != nil {
			invalid = append(invalid, FieldError{FieldID: f.ID, Message: err.Error()})
		}
	}

	if len(missing) > 0 {
		return missing
	}
	if len(invalid) > 0 {
		return invalid
	}
	return nil
}

// Snapshot deep-copies a definition's fields into a FormSnapshot so
// later edits to the live definition cannot reach past submissions.
func Snapshot(def *models.FormDefinition, now time.Time) models.FormSnapshot {
	fields := make([]models.FormField, len(def.Fields))
	for i, f := range def.Fields {
		cp := f
		cp.Options = append([]string(nil), f.Options...)
		if f.File != nil {
			fc := *f.File
			fc.FileTypes = append([]string(nil), f.File.FileTypes...)
			cp.File = &fc
		}
		if f.Min != nil {
			v := *f.Min
			cp.Min = &v
		}
		if f.Max != nil {
			v := *f.Max
			cp.Max = &v
		}
		fields[i] = cp
	}
	return models.FormSnapshot{
		FormID:  def.ID,
		Kind:    def.Kind,
		Fields:  fields,
		TakenAt: now.UTC(),
	}
}

/*── per-type validators ────────────────────────────────────────────*/

func validateString(f models.FormField, value any) error {
	s, err := asString(value)
	if err != nil {
		return err
	}
	return checkStringConstraints(f, s)
}

func validateEmail(f models.FormField, value any) error {
	s, err := asString(value)
	if err != nil {
		return err
	}
	if !ValidEmail(s) {
		return fmt.Errorf("must be a valid email address")
	}
	return checkStringConstraints(f, s)
}

func validateURL(f models.FormField, value any) error {
	s, err := asString(value)
	if err != nil {
		return err
	}
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be a valid http(s) URL")
	}
	return checkStringConstraints(f, s)
}

func validateChoice(f models.FormField, value any) error {
	s, err := asString(value)
	if err != nil {
		return err
	}
	for _, opt := range f.Options {
		if s == opt {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of the declared options", s)
}

func validateMultiChoice(f models.FormField, value any) error {
	values, err := asStringSlice(value)
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := validateChoice(f, v); err != nil {
			return err
		}
	}
	return nil
}

func validateNumber(f models.FormField, value any) error {
	n, err := asNumber(value)
	if err != nil {
		return err
	}
	if f.Min != nil && n < *f.Min {
		return fmt.Errorf("must be at least %v", *f.Min)
	}
	if f.Max != nil && n > *f.Max {
		return fmt.Errorf("must be at most %v", *f.Max)
	}
	return nil
}

func validateDate(f models.FormField, value any) error {
	s, err := asString(value)
	if err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("must be a date in YYYY-MM-DD form")
	}
	return nil
}

// validateFilePresence only checks the answer shape; size and type
// limits are enforced where the upload is durably accepted.
func validateFilePresence(f models.FormField, value any) error {
	switch v := value.(type) {
	case string:
		return nil
	case []string:
		if f.File != nil && !f.File.Multiple && len(v) > 1 {
			return fmt.Errorf("only one file is allowed")
		}
		return nil
	case []any:
		if f.File != nil && !f.File.Multiple && len(v) > 1 {
			return fmt.Errorf("only one file is allowed")
		}
		return nil
	default:
		return fmt.Errorf("unexpected file answer")
	}
}

// CheckFile re-validates a single upload against a field's declared
// constraints. Called wherever the file is durably accepted, because
// client-side checks are bypassable.
func CheckFile(fc *models.FileConstraints, filename, contentType string, size int64) error {
	if fc == nil {
		return nil
	}
	if fc.MaxFileSize > 0 && size > fc.MaxFileSize {
		return fmt.Errorf("file %q exceeds the %d byte limit", filename, fc.MaxFileSize)
	}
	if len(fc.FileTypes) == 0 {
		return nil
	}
	lowerName := strings.ToLower(filename)
	for _, t := range fc.FileTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, ".") && strings.HasSuffix(lowerName, t) {
			return nil
		}
		if t == strings.ToLower(contentType) {
			return nil
		}
	}
	return fmt.Errorf("file %q is not an accepted type", filename)
}

/*── answer coercion ────────────────────────────────────────────────*/

func isEmptyAnswer(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func asString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected a text value")
	}
	return s, nil
}

func asStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected text values")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of values")
	}
}

func asNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		return n, nil
	default:
		return 0, fmt.Errorf("must be a number")
	}
}

func checkStringConstraints(f models.FormField, s string) error {
	n := len([]rune(s))
	if f.MinLength > 0 && n < f.MinLength {
		return fmt.Errorf("must be at least %d characters", f.MinLength)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return fmt.Errorf("must be at most %d characters", f.MaxLength)
	}
	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			// Definition validation rejects bad patterns; a snapshot
			// with one is treated as unmatchable.
			return fmt.Errorf("does not match the required format")
		}
		if !re.MatchString(s) {
			return fmt.Errorf("does not match the required format")
		}
	}
	return nil
}
