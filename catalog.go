// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// UnknownPrefix is used as prefix for unknown tags.
const UnknownPrefix = "UnknownTag_"

// TagDef describes a tag in the catalog.
type TagDef struct {
	Name string
	Code uint16
	IFD  IFD
	Type TagType

	// Structural tags (IFD pointers, strip and thumbnail offsets) are
	// recomputed by the encoder and never carried through conversion.
	Structural bool
}

var (
	tagsByIFD  = map[IFD]map[uint16]TagDef{}
	tagsByName = map[string][]TagDef{} // In canonical IFD order.
)

func init() {
	register := func(ifd IFD, entries []tagEntry) {
		m := make(map[uint16]TagDef, len(entries))
		for _, e := range entries {
			m[e.code] = TagDef{Name: e.name, Code: e.code, IFD: ifd, Type: e.typ, Structural: e.structural}
		}
		tagsByIFD[ifd] = m
	}
	register(IFD0, tiffTags)
	register(IFDExif, exifTags)
	register(IFDGPS, gpsTags)
	register(IFDInterop, interopTags)
	register(IFD1, tiffTags)

	for _, ifd := range ifdOrder {
		for _, def := range tagsByIFD[ifd] {
			tagsByName[def.Name] = append(tagsByName[def.Name], def)
		}
	}
}

func canonicalTagName(name string) string {
	if alias, ok := tagAliases[name]; ok {
		return alias
	}
	return name
}

// TagCode returns the code of the named tag and the first IFD, in canonical
// order, that defines it.
func TagCode(name string) (uint16, IFD, bool) {
	defs := tagsByName[canonicalTagName(name)]
	if len(defs) == 0 {
		if code, ok := parseUnknownTagName(name); ok {
			return code, "", true
		}
		return 0, "", false
	}
	return defs[0].Code, defs[0].IFD, true
}

// ResolveTag finds the catalog entry for a tag found in a tree section.
// The section's own IFD is tried first, then the IFDs in canonical order.
func ResolveTag(section, name string) (TagDef, bool) {
	defs := tagsByName[canonicalTagName(name)]
	if len(defs) == 0 {
		return TagDef{}, false
	}
	if ifd, ok := sectionIFD[section]; ok {
		for _, d := range defs {
			if d.IFD == ifd {
				return d, true
			}
		}
	}
	return defs[0], true
}

// LookupTag returns the catalog entry for code in ifd.
func LookupTag(ifd IFD, code uint16) (TagDef, bool) {
	def, ok := tagsByIFD[ifd][code]
	return def, ok
}

// TagName returns the catalog name of code in ifd, or an UnknownTag_0x.... name.
func TagName(ifd IFD, code uint16) string {
	if def, ok := LookupTag(ifd, code); ok {
		return def.Name
	}
	return unknownTagName(code)
}

func unknownTagName(code uint16) string {
	return fmt.Sprintf("%s0x%04x", UnknownPrefix, code)
}

func parseUnknownTagName(name string) (uint16, bool) {
	s, ok := strings.CutPrefix(name, UnknownPrefix+"0x")
	if !ok {
		return 0, false
	}
	code, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(code), true
}

// tagTypeOf returns the catalog type of the named tag, if known.
func tagTypeOf(name string) (TagType, bool) {
	defs := tagsByName[canonicalTagName(name)]
	if len(defs) == 0 {
		return 0, false
	}
	return defs[0].Type, true
}

var labelOverrides = map[string]string{
	"FNumber":               "F-Number",
	"ISOSpeedRatings":       "ISO",
	"FocalLengthIn35mmFilm": "Focal Length in 35mm Film",
	"GPSDOP":                "GPS DOP",
	"GPSVersionID":          "GPS Version ID",
	"ImageUniqueID":         "Image Unique ID",
	"OECF":                  "OECF",
	"Iop":                   "Interoperability",
}

// TagLabel returns a display label for a tag or recipe key,
// e.g. "Exposure Bias Value" for ExposureBiasValue.
func TagLabel(name string) string {
	if s, ok := labelOverrides[name]; ok {
		return s
	}
	if strings.HasPrefix(name, UnknownPrefix) {
		return name
	}
	return splitCamelCase(name)
}

// splitCamelCase inserts spaces at word boundaries, keeping acronyms together:
// "GPSLatitudeRef" becomes "GPS Latitude Ref".
func splitCamelCase(s string) string {
	rs := []rune(s)
	var sb strings.Builder
	for i, r := range rs {
		if i > 0 && r != '_' && rs[i-1] != '_' {
			prev := rs[i-1]
			switch {
			case unicode.IsUpper(r) && unicode.IsLower(prev):
				sb.WriteByte(' ')
			case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1]):
				sb.WriteByte(' ')
			case unicode.IsDigit(r) && unicode.IsLetter(prev) && !unicode.IsUpper(prev):
				sb.WriteByte(' ')
			}
		}
		if r == '_' {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func itoa(i int64) string {
	return strconv.FormatInt(i, 10)
}
