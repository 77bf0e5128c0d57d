// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"maps"
	"time"
)

// Section names of the metadata tree.
const (
	SectionImage     = "Image"
	SectionPhoto     = "Photo"
	SectionGPS       = "GPSInfo"
	SectionInterop   = "Iop"
	SectionThumbnail = "ThumbnailTags"
)

// IFD identifies an image file directory in the flat tag structure.
type IFD string

// The IFDs, in canonical order.
const (
	IFD0       IFD = "0th"
	IFDExif    IFD = "Exif"
	IFDGPS     IFD = "GPS"
	IFDInterop IFD = "Interop"
	IFD1       IFD = "1st"
)

// ifdOrder is the canonical IFD order used for fallback resolution.
var ifdOrder = []IFD{IFD0, IFDExif, IFDGPS, IFDInterop, IFD1}

var (
	sectionIFD = map[string]IFD{
		SectionImage:     IFD0,
		SectionPhoto:     IFDExif,
		SectionGPS:       IFDGPS,
		SectionInterop:   IFDInterop,
		SectionThumbnail: IFD1,
	}
	ifdSection = map[IFD]string{}
)

func init() {
	for s, ifd := range sectionIFD {
		ifdSection[ifd] = s
	}
}

// SectionIFD returns the IFD a section maps to.
func SectionIFD(section string) (IFD, bool) {
	ifd, ok := sectionIFD[section]
	return ifd, ok
}

// Section returns the tree section holding tags of this IFD.
func (ifd IFD) Section() string {
	return ifdSection[ifd]
}

// Comment is a UserComment record.
type Comment struct {
	Charset string `json:"charset"`
	Comment string `json:"comment"`
}

// Fields holds the tags of one section, keyed by tag name.
type Fields map[string]any

// Tree is the parsed metadata tree: section name to its fields.
//
// Values are one of int64, float64, []int64, []float64, string, time.Time,
// []byte and Comment. Trees imported from JSON may also hold []any.
//
// A Tree is treated as immutable: all the edit methods return a new tree.
type Tree map[string]Fields

// Get returns the value of tag in section.
func (t Tree) Get(section, tag string) (any, bool) {
	f, ok := t[section]
	if !ok {
		return nil, false
	}
	v, ok := f[tag]
	return v, ok
}

// Clone returns a deep copy of t.
// Byte and numeric slices are copied so the two trees never share storage.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	c := make(Tree, len(t))
	for s, f := range t {
		c[s] = f.Clone()
	}
	return c
}

// Clone returns a deep copy of f.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch vv := v.(type) {
	case []byte:
		return append([]byte(nil), vv...)
	case []int64:
		return append([]int64(nil), vv...)
	case []float64:
		return append([]float64(nil), vv...)
	case []any:
		c := make([]any, len(vv))
		for i, e := range vv {
			c[i] = cloneValue(e)
		}
		return c
	case map[string]any:
		c := make(map[string]any, len(vv))
		for k, e := range vv {
			c[k] = cloneValue(e)
		}
		return c
	case Fields:
		return vv.Clone()
	default:
		// Scalars, strings, time.Time and Comment are values.
		return v
	}
}

// With returns a copy of t with section.tag set to v.
func (t Tree) With(section, tag string, v any) Tree {
	c := t.Clone()
	if c == nil {
		c = Tree{}
	}
	f, ok := c[section]
	if !ok {
		f = Fields{}
		c[section] = f
	}
	f[tag] = v
	return c
}

// Without returns a copy of t with section.tag removed.
func (t Tree) Without(section, tag string) Tree {
	c := t.Clone()
	if f, ok := c[section]; ok {
		delete(f, tag)
	}
	return c
}

// WithoutSection returns a copy of t with all tags in section removed.
// The section itself is kept, empty.
func (t Tree) WithoutSection(section string) Tree {
	c := t.Clone()
	if _, ok := c[section]; ok {
		c[section] = Fields{}
	}
	return c
}

// Edit parses text as the new value of section.tag using the current value
// as a type hint and returns the edited copy of t.
// Binary values are not editable; their tree is returned unchanged.
func (t Tree) Edit(section, tag, text string) Tree {
	orig, _ := t.Get(section, tag)
	if _, isBytes := orig.([]byte); isBytes && Format(tag, orig).IsBinary() {
		return t.Clone()
	}
	return t.With(section, tag, Unformat(tag, text, orig))
}

// KeyParameter is one entry of the key photography parameters summary.
type KeyParameter struct {
	Label string
	Tag   string
	Value any
}

// Display returns the formatted value.
func (p KeyParameter) Display() string {
	return Format(p.Tag, p.Value).Text
}

var keyParameterSources = []struct {
	label string
	tags  []string
}{
	{"FNumber", []string{"FNumber", "ApertureValue"}},
	{"ISO", []string{"ISOSpeedRatings", "ISO", "PhotographicSensitivity"}},
	{"ExposureTime", []string{"ExposureTime"}},
	{"ExposureBiasValue", []string{"ExposureBiasValue"}},
	{"FocalLength", []string{"FocalLength"}},
	{"Camera", []string{"Model"}},
	{"Lens", []string{"LensModel", "LensInfo"}},
	{"Date Taken", []string{"DateTimeOriginal", "DateTime"}},
}

// KeyParameters returns the key photography parameters found in the Image
// and Photo sections, in a fixed order. Missing and zero values are skipped.
func (t Tree) KeyParameters() []KeyParameter {
	merged := Fields{}
	maps.Copy(merged, t[SectionImage])
	maps.Copy(merged, t[SectionPhoto])

	var params []KeyParameter
	for _, src := range keyParameterSources {
		for _, tag := range src.tags {
			v, ok := merged[tag]
			if !ok || isZeroValue(v) {
				continue
			}
			params = append(params, KeyParameter{Label: src.label, Tag: tag, Value: v})
			break
		}
	}
	return params
}

func isZeroValue(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return vv == ""
	case int64:
		return vv == 0
	case float64:
		return vv == 0
	case time.Time:
		return vv.IsZero()
	default:
		return false
	}
}
