/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package casing

import (
	"encoding"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/storagemodels"
)

type shapeKind int

const (
	object shapeKind = iota
	list
	dict
)

// Shape maps the JSON field names of a Go type to their stored snake_case names. Only keys
// that name struct fields are renamed; the keys of map-valued fields are user data and keep
// their spelling. A nil Shape leaves records untouched.
type Shape struct {
	kind   shapeKind
	fields map[string]field
	stored map[string]string
	elem   *Shape
}

type field struct {
	stored string
	shape  *Shape
}

var (
	shapes = registry.NewTypeCache[*Shape]()

	jsonMarshaler = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshaler = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// ShapeOf returns the shape of t, building and caching it on first use. Pointer types share
// the shape of their element type.
func ShapeOf(t reflect.Type) *Shape {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s, _ := shapes.LoadOrCompute(t, func(t reflect.Type) (*Shape, error) {
		return build(t, make(map[reflect.Type]*Shape)), nil
	})
	return s
}

// Encode renames the struct field keys of rec to their stored names.
func (s *Shape) Encode(rec storagemodels.Record) storagemodels.Record {
	return s.rename(rec, true)
}

// Decode reverses Encode. Keys that are not stored field names pass through unchanged.
func (s *Shape) Decode(rec storagemodels.Record) storagemodels.Record {
	return s.rename(rec, false)
}

func (s *Shape) rename(rec storagemodels.Record, encode bool) storagemodels.Record {
	if s == nil || rec == nil {
		return rec
	}
	out, _ := s.walk(rec, encode).(map[string]any)
	return out
}

func (s *Shape) walk(v any, encode bool) any {
	if s == nil {
		return v
	}
	switch s.kind {
	case object:
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		out := make(map[string]any, len(m))
		for k, val := range m {
			name, f, known := s.lookup(k, encode)
			if known {
				val = f.shape.walk(val, encode)
			}
			out[name] = val
		}
		return out
	case list:
		items, ok := v.([]any)
		if !ok {
			return v
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = s.elem.walk(item, encode)
		}
		return out
	case dict:
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = s.elem.walk(val, encode)
		}
		return out
	default:
		return v
	}
}

func (s *Shape) lookup(key string, encode bool) (string, field, bool) {
	if encode {
		f, ok := s.fields[key]
		if !ok {
			return key, field{}, false
		}
		return f.stored, f, true
	}
	name, ok := s.stored[key]
	if !ok {
		return key, field{}, false
	}
	return name, s.fields[name], true
}

func build(t reflect.Type, seen map[reflect.Type]*Shape) *Shape {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if s, ok := seen[t]; ok {
		return s
	}
	if opaque(t) {
		return nil
	}

	switch t.Kind() {
	case reflect.Struct:
		s := &Shape{kind: object}
		seen[t] = s
		s.collect(t, seen)
		return s
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return nil
		}
		s := &Shape{kind: list}
		seen[t] = s
		s.elem = build(t.Elem(), seen)
		return s
	case reflect.Map:
		s := &Shape{kind: dict}
		seen[t] = s
		s.elem = build(t.Elem(), seen)
		return s
	default:
		return nil
	}
}

// collect builds the field map of struct t. Names whose snake_case forms collide keep
// their JSON spelling.
func (s *Shape) collect(t reflect.Type, seen map[reflect.Type]*Shape) {
	fields := jsonFields(t)
	claims := make(map[string]int, len(fields))
	for _, f := range fields {
		claims[strcase.ToSnake(f.name)]++
	}

	s.fields = make(map[string]field, len(fields))
	s.stored = make(map[string]string, len(fields))
	for _, jf := range fields {
		stored := strcase.ToSnake(jf.name)
		if claims[stored] > 1 {
			stored = jf.name
		}
		s.fields[jf.name] = field{stored: stored, shape: build(jf.typ, seen)}
		s.stored[stored] = jf.name
	}
}

type jsonField struct {
	name string
	typ  reflect.Type
}

// jsonFields lists the fields encoding/json emits for struct t, promoting the fields of
// untagged embedded structs. Fields declared on t win over promoted ones.
func jsonFields(t reflect.Type) []jsonField {
	var direct []jsonField
	var embedded []reflect.Type

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		if sf.Anonymous && name == "" {
			ft := sf.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && !opaque(ft) {
				embedded = append(embedded, ft)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		direct = append(direct, jsonField{name: name, typ: sf.Type})
	}

	taken := make(map[string]bool, len(direct))
	for _, f := range direct {
		taken[f.name] = true
	}
	out := direct
	for _, et := range embedded {
		for _, f := range jsonFields(et) {
			if !taken[f.name] {
				taken[f.name] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// opaque reports whether t marshals itself, so its JSON form has no field names to rename.
func opaque(t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return true
	}
	return t.Implements(jsonMarshaler) || t.Implements(textMarshaler) ||
		reflect.PointerTo(t).Implements(jsonMarshaler) || reflect.PointerTo(t).Implements(textMarshaler)
}
