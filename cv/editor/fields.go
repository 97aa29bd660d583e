package editor

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"portal-web/cv/model"
)

// Paths address the document by JSON names joined with dots, with list indexes as
// segments: "personalInfo.name", "experience.0.responsibilities.1", "sectionTitles.skills".

// readOnlyRoots are changed through dedicated operations only.
var readOnlyRoots = map[string]struct{}{
	"id":         {},
	"templateId": {},
}

func splitPath(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(path, ".")
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	if _, ok := readOnlyRoots[segs[0]]; ok {
		return nil, fmt.Errorf("%w: %s cannot be edited directly", ErrInvalidPath, segs[0])
	}
	return segs, nil
}

// setField assigns value to the string addressed by path.
func setField(doc *model.Document, path, value string) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	root := reflect.ValueOf(doc).Elem()
	parent, err := walk(root, segs[:len(segs)-1])
	if err != nil {
		return err
	}
	last := segs[len(segs)-1]

	if parent.Kind() == reflect.Map {
		key := model.SectionKey(last)
		if !key.Valid() {
			return fmt.Errorf("%w: unknown section %q", ErrInvalidPath, last)
		}
		if parent.IsNil() {
			parent.Set(reflect.MakeMap(parent.Type()))
		}
		parent.SetMapIndex(reflect.ValueOf(key).Convert(parent.Type().Key()), reflect.ValueOf(value))
		return nil
	}

	target, err := walk(parent, []string{last})
	if err != nil {
		return err
	}
	if target.Kind() != reflect.String || !target.CanSet() {
		return fmt.Errorf("%w: %q is not a text field", ErrInvalidPath, path)
	}
	target.SetString(value)
	return nil
}

// appendEntry adds a blank element to the list addressed by path and returns its index.
func appendEntry(doc *model.Document, path string) (int, error) {
	list, err := resolveList(doc, path)
	if err != nil {
		return 0, err
	}
	list.Set(reflect.Append(list, blank(list.Type().Elem())))
	return list.Len() - 1, nil
}

// removeEntry deletes the element at index from the list addressed by path.
func removeEntry(doc *model.Document, path string, index int) error {
	list, err := resolveList(doc, path)
	if err != nil {
		return err
	}
	n := list.Len()
	if index < 0 || index >= n {
		return fmt.Errorf("%w: index %d out of range for %q", ErrInvalidPath, index, path)
	}
	out := reflect.MakeSlice(list.Type(), 0, n-1)
	out = reflect.AppendSlice(out, list.Slice(0, index))
	out = reflect.AppendSlice(out, list.Slice(index+1, n))
	list.Set(out)
	return nil
}

func resolveList(doc *model.Document, path string) (reflect.Value, error) {
	segs, err := splitPath(path)
	if err != nil {
		return reflect.Value{}, err
	}
	v, err := walk(reflect.ValueOf(doc).Elem(), segs)
	if err != nil {
		return reflect.Value{}, err
	}
	if v.Kind() != reflect.Slice {
		return reflect.Value{}, fmt.Errorf("%w: %q is not a list", ErrInvalidPath, path)
	}
	return v, nil
}

func walk(v reflect.Value, segs []string) (reflect.Value, error) {
	for _, seg := range segs {
		switch v.Kind() {
		case reflect.Struct:
			f, ok := fieldByJSONName(v, seg)
			if !ok {
				return reflect.Value{}, fmt.Errorf("%w: unknown field %q", ErrInvalidPath, seg)
			}
			v = f
		case reflect.Slice:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= v.Len() {
				return reflect.Value{}, fmt.Errorf("%w: index %q out of range", ErrInvalidPath, seg)
			}
			v = v.Index(i)
		default:
			return reflect.Value{}, fmt.Errorf("%w: %q has no children", ErrInvalidPath, seg)
		}
	}
	return v, nil
}

func fieldByJSONName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if inner, ok := fieldByJSONName(v.Field(i), name); ok {
				return inner, true
			}
			continue
		}
		tag := strings.Split(f.Tag.Get("json"), ",")[0]
		if tag == name && f.IsExported() {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// blank builds a zero element whose list fields are empty rather than nil.
func blank(t reflect.Type) reflect.Value {
	v := reflect.New(t).Elem()
	if t.Kind() != reflect.Struct {
		return v
	}
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Type.Kind() == reflect.Slice {
			v.Field(i).Set(reflect.MakeSlice(t.Field(i).Type, 0, 0))
		}
	}
	return v
}
