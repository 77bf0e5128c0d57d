// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ImportError is returned by ImportJSON when the document is malformed.
// Err holds every problem found, aggregated.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import metadata JSON: %v", e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// IsImportError reports whether err is an *ImportError.
func IsImportError(err error) bool {
	var e *ImportError
	return errors.As(err, &e)
}

// bufferJSON is the wire form of byte sequences.
type bufferJSON struct {
	Type string `json:"type"`
	Data []int  `json:"data"`
}

// ExportJSON writes tree as indented JSON.
// Byte sequences are written as {"type":"Buffer","data":[...]} and
// timestamps as RFC 3339 strings.
func ExportJSON(tree Tree) ([]byte, error) {
	out := make(map[string]map[string]any, len(tree))
	for section, fields := range tree {
		m := make(map[string]any, len(fields))
		for k, v := range fields {
			m[k] = toJSONValue(v)
		}
		out[section] = m
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export metadata JSON: %w", err)
	}
	return b, nil
}

func toJSONValue(v any) any {
	switch vv := v.(type) {
	case []byte:
		data := make([]int, len(vv))
		for i, c := range vv {
			data[i] = int(c)
		}
		return bufferJSON{Type: "Buffer", Data: data}
	case time.Time:
		return vv.Format(time.RFC3339Nano)
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = toJSONValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, e := range vv {
			out[k] = toJSONValue(e)
		}
		return out
	default:
		return v
	}
}

var reISOTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:\d{2})?$`)

// ImportJSON reads a tree written by ExportJSON.
// Every malformed leaf is reported in the returned *ImportError, and no
// partial tree is returned.
func ImportJSON(b []byte) (Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ImportError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ImportError{Err: errors.New("invalid JSON: trailing data")}
	}

	sections, ok := doc.(map[string]any)
	if !ok {
		return nil, &ImportError{Err: fmt.Errorf("top level must be an object, got %s", jsonKind(doc))}
	}

	var errs *multierror.Error
	tree := make(Tree, len(sections))
	for _, section := range slices.Sorted(maps.Keys(sections)) {
		fields, ok := sections[section].(map[string]any)
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("%s: section must be an object, got %s", section, jsonKind(sections[section])))
			continue
		}
		out := make(Fields, len(fields))
		for _, name := range slices.Sorted(maps.Keys(fields)) {
			v, err := importLeaf(name, fields[name])
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s.%s: %w", section, name, err))
				continue
			}
			out[name] = v
		}
		tree[section] = out
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, &ImportError{Err: err}
	}
	return tree, nil
}

func importLeaf(name string, v any) (any, error) {
	switch vv := v.(type) {
	case json.Number:
		return importNumber(name, vv)
	case string:
		if isTimeKey(name) && reISOTime.MatchString(vv) {
			return parseISOTime(vv)
		}
		return vv, nil
	case []any:
		return importArray(name, vv)
	case map[string]any:
		return importObject(vv)
	default:
		return nil, fmt.Errorf("unsupported value %s", jsonKind(v))
	}
}

func isTimeKey(name string) bool {
	return strings.Contains(name, "Date") || strings.Contains(name, "Time")
}

func parseISOTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// importNumber types n by the catalog: rational and float tags are float64,
// integer tags int64. Unknown tags are int64 when the literal is integral.
func importNumber(name string, n json.Number) (any, error) {
	typ, known := tagTypeOf(name)
	if known && typ.IsFloat() {
		return n.Float64()
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %s", n)
	}
	return f, nil
}

func importArray(name string, arr []any) (any, error) {
	allNumbers := true
	for _, e := range arr {
		if _, ok := e.(json.Number); !ok {
			allNumbers = false
			break
		}
	}

	if allNumbers {
		typ, known := tagTypeOf(name)
		asFloat := known && typ.IsFloat()
		ints := make([]int64, 0, len(arr))
		floats := make([]float64, 0, len(arr))
		for _, e := range arr {
			n := e.(json.Number)
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("invalid number %s", n)
			}
			floats = append(floats, f)
			if i, err := n.Int64(); err == nil {
				ints = append(ints, i)
			} else {
				asFloat = true
			}
		}
		if asFloat {
			return floats, nil
		}
		return ints, nil
	}

	out := make([]any, len(arr))
	for i, e := range arr {
		switch ev := e.(type) {
		case json.Number:
			v, err := importNumber("", ev)
			if err != nil {
				return nil, err
			}
			out[i] = v
		case string:
			out[i] = ev
		case []any:
			v, err := importArray("", ev)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = toAnySlice(v)
		default:
			return nil, fmt.Errorf("[%d]: unsupported array element %s", i, jsonKind(e))
		}
	}
	return out, nil
}

func toAnySlice(v any) any {
	switch vv := v.(type) {
	case []int64:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out
	case []float64:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out
	default:
		return v
	}
}

// importObject reconstructs byte sequences and comment records.
func importObject(m map[string]any) (any, error) {
	if typ, ok := m["type"].(string); ok && (typ == "Buffer" || typ == "Uint8Array") {
		data, ok := m["data"].([]any)
		if !ok {
			return nil, fmt.Errorf("%s without a data array", typ)
		}
		return importBytes(data)
	}
	if c, ok := m["comment"]; ok {
		s, ok := c.(string)
		if !ok {
			return nil, fmt.Errorf("comment must be a string, got %s", jsonKind(c))
		}
		var charset string
		if cs, found := m["charset"]; found {
			if charset, ok = cs.(string); !ok {
				return nil, fmt.Errorf("charset must be a string, got %s", jsonKind(cs))
			}
		}
		return Comment{Charset: charset, Comment: s}, nil
	}
	return nil, fmt.Errorf("unsupported object with keys %v", slices.Sorted(maps.Keys(m)))
}

func importBytes(data []any) ([]byte, error) {
	b := make([]byte, len(data))
	for i, e := range data {
		n, ok := e.(json.Number)
		if !ok {
			return nil, fmt.Errorf("byte %d is %s", i, jsonKind(e))
		}
		v, err := n.Int64()
		if err != nil || v < 0 || v > 255 {
			return nil, fmt.Errorf("byte %d out of range: %s", i, n)
		}
		b[i] = byte(v)
	}
	return b, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case json.Number:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
