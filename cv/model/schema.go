package model

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed cv.schema.json
var documentSchema string

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
})

// ValidateJSON checks raw CV JSON against the document schema before it is decoded, so
// shape drift in stored records surfaces as an error instead of silently dropped fields.
func ValidateJSON(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("load cv schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

// DecodeJSON validates and decodes a CV document. Missing lists come back empty, never nil.
// Numbers and booleans are read as their JSON text, since every document field is a string;
// objects or lists in the wrong place still fail validation.
func DecodeJSON(raw []byte) (Document, error) {
	raw, err := coerceScalars(raw)
	if err != nil {
		return Document{}, fmt.Errorf("decode cv document: %w", err)
	}
	if err := ValidateJSON(raw); err != nil {
		return Document{}, err
	}
	doc := New()
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decode cv document: %w", err)
	}
	return fillDefaults(doc), nil
}

func coerceScalars(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	changed := false
	v = stringifyScalars(v, &changed)
	if !changed {
		return raw, nil
	}
	return json.Marshal(v)
}

func stringifyScalars(v any, changed *bool) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = stringifyScalars(child, changed)
		}
	case []any:
		for i, child := range t {
			t[i] = stringifyScalars(child, changed)
		}
	case json.Number:
		*changed = true
		return t.String()
	case bool:
		*changed = true
		return strconv.FormatBool(t)
	}
	return v
}

func fillDefaults(doc Document) Document {
	if doc.Experience == nil {
		doc.Experience = []Experience{}
	}
	for i := range doc.Experience {
		if doc.Experience[i].Responsibilities == nil {
			doc.Experience[i].Responsibilities = []string{}
		}
	}
	if doc.Education == nil {
		doc.Education = []Education{}
	}
	if doc.Skills == nil {
		doc.Skills = []string{}
	}
	if doc.Certifications == nil {
		doc.Certifications = []Certification{}
	}
	if doc.Projects == nil {
		doc.Projects = []Project{}
	}
	if doc.Activities == nil {
		doc.Activities = []Activity{}
	}
	if doc.References == nil {
		doc.References = []Reference{}
	}
	if doc.Portfolio == nil {
		doc.Portfolio = []string{}
	}
	if doc.PersonalSkills == nil {
		doc.PersonalSkills = []string{}
	}
	if doc.SectionTitles == nil {
		doc.SectionTitles = map[SectionKey]string{}
	}
	if doc.ThemeColor == "" {
		doc.ThemeColor = DefaultThemeColor
	}
	return doc
}
