package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var docValidator = validator.New()

// FieldError names a field that blocks saving.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that blocks saving a document.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "missing required fields: " + strings.Join(names, ", ")
}

var personalInfoFields = map[string]string{
	"Name":  "personalInfo.name",
	"Title": "personalInfo.title",
	"Email": "personalInfo.email",
}

// ValidateForSave checks the fields required before a document may be sent to the backend.
// Only presence is checked.
func ValidateForSave(doc Document) error {
	var fields []FieldError

	if err := docValidator.Struct(doc.PersonalInfo); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate personal info: %w", err)
		}
		for _, fe := range verrs {
			path, ok := personalInfoFields[fe.Field()]
			if !ok {
				path = "personalInfo." + strings.ToLower(fe.Field())
			}
			fields = append(fields, FieldError{Field: path, Message: path + " is required"})
		}
	}
	if doc.TemplateID == "" {
		fields = append(fields, FieldError{Field: "templateId", Message: "a template must be selected"})
	}

	if len(fields) == 0 {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &ValidationError{Fields: fields}
}
