// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"
)

// exifTimeLayout is the on-disk layout of the date-time tags.
const exifTimeLayout = "2006:01:02 15:04:05"

// RawTags is the flat tag structure consumed by the encoder:
// IFD to tag code to encoded value.
//
// Encoded values are int64, []int64, float64, []float64 (FLOAT and DOUBLE),
// Rational, []Rational and string. UNDEFINED values are Latin-1 byte strings.
type RawTags struct {
	IFDs map[IFD]map[uint16]any

	// Thumbnail is the JPEG thumbnail stored in IFD1, if any.
	Thumbnail []byte
}

// NewRawTags returns an empty RawTags.
func NewRawTags() RawTags {
	return RawTags{IFDs: map[IFD]map[uint16]any{}}
}

// Get returns the encoded value of code in ifd.
func (r RawTags) Get(ifd IFD, code uint16) (any, bool) {
	v, ok := r.IFDs[ifd][code]
	return v, ok
}

// Set sets the encoded value of code in ifd.
func (r RawTags) Set(ifd IFD, code uint16, v any) {
	m, ok := r.IFDs[ifd]
	if !ok {
		m = map[uint16]any{}
		r.IFDs[ifd] = m
	}
	m[code] = v
}

// WithoutIFD returns a copy of r without the tags of ifd.
func (r RawTags) WithoutIFD(ifd IFD) RawTags {
	c := RawTags{IFDs: make(map[IFD]map[uint16]any, len(r.IFDs)), Thumbnail: r.Thumbnail}
	for k, m := range r.IFDs {
		if k == ifd {
			continue
		}
		c.IFDs[k] = maps.Clone(m)
	}
	return c
}

// Len returns the number of tags across all IFDs.
func (r RawTags) Len() int {
	var n int
	for _, m := range r.IFDs {
		n += len(m)
	}
	return n
}

// Converter converts between the metadata tree and RawTags.
// The zero value is ready to use.
type Converter struct {
	// If set, warnings about dropped tags are reported here.
	Warnf func(string, ...any)
}

func (c Converter) warnf(format string, args ...any) {
	if c.Warnf != nil {
		c.Warnf(format, args...)
	}
}

// ToRawTags converts tree to RawTags using the zero Converter.
func ToRawTags(tree Tree, thumbnail []byte) RawTags {
	return Converter{}.ToRawTags(tree, thumbnail)
}

// FromRawTags converts raw back to a tree using the zero Converter.
func FromRawTags(raw RawTags) Tree {
	return Converter{}.FromRawTags(raw)
}

type resolvedTag struct {
	section string
	name    string
	def     TagDef
	natural bool
}

// ToRawTags flattens tree into RawTags.
// Tags that cannot be resolved or encoded are dropped; the rest are converted.
func (c Converter) ToRawTags(tree Tree, thumbnail []byte) RawTags {
	raw := NewRawTags()
	if len(thumbnail) > 0 {
		raw.Thumbnail = append([]byte(nil), thumbnail...)
	}

	var resolved []resolvedTag
	for _, section := range slices.Sorted(maps.Keys(tree)) {
		ifd, ok := sectionIFD[section]
		if !ok {
			c.warnf("exifedit: dropping unknown section %q", section)
			continue
		}
		for _, name := range slices.Sorted(maps.Keys(tree[section])) {
			def, ok := ResolveTag(section, name)
			if !ok {
				c.warnf("exifedit: dropping unknown tag %s.%s", section, name)
				continue
			}
			if def.Structural {
				continue
			}
			resolved = append(resolved, resolvedTag{section: section, name: name, def: def, natural: def.IFD == ifd})
		}
	}

	// Tags found in their natural IFD win over fallback placements.
	slices.SortStableFunc(resolved, func(a, b resolvedTag) int {
		if a.natural == b.natural {
			return 0
		}
		if a.natural {
			return -1
		}
		return 1
	})

	for _, rt := range resolved {
		if _, taken := raw.Get(rt.def.IFD, rt.def.Code); taken {
			c.warnf("exifedit: dropping %s.%s: %s/0x%04x already set", rt.section, rt.name, rt.def.IFD, rt.def.Code)
			continue
		}
		v, err := encodeTreeValue(rt.def, tree[rt.section][rt.name])
		if err != nil {
			c.warnf("exifedit: dropping %s.%s: %v", rt.section, rt.name, err)
			continue
		}
		raw.Set(rt.def.IFD, rt.def.Code, v)
	}

	return raw
}

// encodeTreeValue converts one tree value to its encoded form.
func encodeTreeValue(def TagDef, v any) (enc any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encode %s: %v", def.Name, r)
		}
	}()

	switch {
	case def.Type.IsRational():
		return encodeRational(v), nil
	case def.Type == TypeUndefined:
		return encodeUndefined(v)
	case dateTimeTags[def.Name]:
		if t, ok := v.(time.Time); ok {
			return t.Format(exifTimeLayout), nil
		}
	}
	return v, nil
}

// encodeRational encodes scalars and arrays with the fixed denominator.
// Values already given as numerator/denominator pairs pass through.
func encodeRational(v any) any {
	switch vv := v.(type) {
	case Rational, []Rational:
		return vv
	case []float64:
		out := make([]Rational, len(vv))
		for i, f := range vv {
			out[i] = NewRational(f)
		}
		return out
	case []int64:
		out := make([]Rational, len(vv))
		for i, n := range vv {
			out[i] = NewRational(float64(n))
		}
		return out
	case []any:
		if r, ok := anyPair(vv); ok {
			return r
		}
		out := make([]Rational, 0, len(vv))
		for _, e := range vv {
			if r, ok := e.(Rational); ok {
				out = append(out, r)
				continue
			}
			if pair, ok := e.([]any); ok {
				if r, ok := anyPair(pair); ok {
					out = append(out, r)
					continue
				}
			}
			if pair, ok := e.([]int64); ok && len(pair) == 2 {
				out = append(out, Rational{Num: pair[0], Den: pair[1]})
				continue
			}
			if !isNumber(e) {
				return v
			}
			out = append(out, NewRational(toFloat64(e)))
		}
		return out
	}
	if isNumber(v) {
		return NewRational(toFloat64(v))
	}
	return v
}

// anyPair reports whether v is a single [numerator, denominator] pair of integers.
func anyPair(v []any) (Rational, bool) {
	if len(v) != 2 || !isIntegerClass(v[0]) || !isIntegerClass(v[1]) {
		return Rational{}, false
	}
	return Rational{Num: int64(toFloat64(v[0])), Den: int64(toFloat64(v[1]))}, true
}

// encodeUndefined turns a byte payload into a Latin-1 byte string.
func encodeUndefined(v any) (any, error) {
	switch vv := v.(type) {
	case []byte:
		return latin1String(vv), nil
	case string:
		return vv, nil
	case Comment:
		b, err := encodeUserComment(vv)
		if err != nil {
			return nil, err
		}
		return latin1String(b), nil
	case []int64:
		return bytesFromNumbers(vv)
	case []any:
		return bytesFromNumbers(vv)
	case map[string]any:
		return undefinedFromMap(vv)
	}
	return v, nil
}

func bytesFromNumbers[T any](v []T) (any, error) {
	b := make([]byte, len(v))
	for i, e := range v {
		f, ok := toFloat64E(e)
		if !ok || f < 0 || f > 255 || f != float64(int64(f)) {
			return nil, fmt.Errorf("element %d (%v) is not a byte", i, e)
		}
		b[i] = byte(f)
	}
	return latin1String(b), nil
}

// undefinedFromMap handles the object shapes byte payloads may take after
// a generic JSON round trip: comment records, {"value": [...]} and
// index-keyed objects.
func undefinedFromMap(m map[string]any) (any, error) {
	if s, ok := m["comment"].(string); ok {
		charset, _ := m["charset"].(string)
		return encodeUndefined(Comment{Charset: charset, Comment: s})
	}
	if arr, ok := m["value"].([]any); ok {
		return bytesFromNumbers(arr)
	}
	if arr, ok := m["data"].([]any); ok {
		return bytesFromNumbers(arr)
	}
	b := make([]byte, len(m))
	for k, e := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(m) {
			return nil, fmt.Errorf("unsupported byte object key %q", k)
		}
		f, ok := toFloat64E(e)
		if !ok || f < 0 || f > 255 {
			return nil, fmt.Errorf("unsupported byte object value %v", e)
		}
		b[i] = byte(f)
	}
	return latin1String(b), nil
}

// FromRawTags expands raw into a tree.
// Rationals become float64, integers int64, UNDEFINED values []byte and
// date-time strings time.Time in the local time zone.
func (c Converter) FromRawTags(raw RawTags) Tree {
	tree := Tree{}
	for _, ifd := range ifdOrder {
		tags, ok := raw.IFDs[ifd]
		if !ok {
			continue
		}
		section := ifd.Section()
		fields := Fields{}
		for code, v := range tags {
			def, known := LookupTag(ifd, code)
			if known && def.Structural {
				continue
			}
			name := TagName(ifd, code)
			fields[name] = decodeRawValue(def, known, v)
		}
		tree[section] = fields
	}
	return tree
}

func decodeRawValue(def TagDef, known bool, v any) any {
	switch vv := v.(type) {
	case Rational:
		return vv.Float64()
	case []Rational:
		out := make([]float64, len(vv))
		for i, r := range vv {
			out[i] = r.Float64()
		}
		return out
	case []int64:
		return slices.Clone(vv)
	case []float64:
		return slices.Clone(vv)
	case string:
		if known && def.Type == TypeUndefined {
			if b, err := latin1Bytes(vv); err == nil {
				return b
			}
		}
		if known && dateTimeTags[def.Name] {
			if t, err := time.ParseInLocation(exifTimeLayout, vv, time.Local); err == nil {
				return t
			}
		}
		return vv
	}
	if isIntegerClass(v) {
		return int64(toFloat64(v))
	}
	return v
}
