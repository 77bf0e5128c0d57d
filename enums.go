// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"fmt"
	"regexp"
	"strconv"
)

// EnumCategory is a table of coded values with human-readable labels.
type EnumCategory int

// The enum categories, in the priority order used for reverse lookups.
const (
	EnumExposureProgram EnumCategory = iota
	EnumMeteringMode
	EnumFlash
	EnumWhiteBalance
	EnumColorSpace
	EnumOrientation
	EnumFilmSimulation
	EnumDynamicRange
)

var enumCategoryNames = []string{
	"ExposureProgram",
	"MeteringMode",
	"Flash",
	"WhiteBalance",
	"ColorSpace",
	"Orientation",
	"FilmSimulation",
	"DynamicRange",
}

func (c EnumCategory) String() string {
	if c < 0 || int(c) >= len(enumCategoryNames) {
		return fmt.Sprintf("EnumCategory(%d)", int(c))
	}
	return enumCategoryNames[c]
}

// enumEntry holds a code, either int64 or string, and its label.
type enumEntry struct {
	code  any
	label string
}

var enumTables = [][]enumEntry{
	EnumExposureProgram: {
		{int64(0), "Not Defined"},
		{int64(1), "Manual"},
		{int64(2), "Program AE"},
		{int64(3), "Aperture Priority"},
		{int64(4), "Shutter Priority"},
		{int64(5), "Creative Program"},
		{int64(6), "Action Program"},
		{int64(7), "Portrait Mode"},
		{int64(8), "Landscape Mode"},
		{int64(9), "Bulb"},
	},
	EnumMeteringMode: {
		{int64(0), "Unknown"},
		{int64(1), "Average"},
		{int64(2), "Center Weighted Average"},
		{int64(3), "Spot"},
		{int64(4), "Multi Spot"},
		{int64(5), "Multi Segment"},
		{int64(6), "Partial"},
		{int64(255), "Other"},
	},
	EnumFlash: {
		{int64(0), "No Flash"},
		{int64(1), "Flash"},
		{int64(5), "Flash, No Strobe Return"},
		{int64(7), "Flash, Strobe Return"},
		{int64(8), "On, Did not fire"},
		{int64(9), "On, Fired"},
		{int64(13), "On, No Strobe Return"},
		{int64(15), "On, Strobe Return"},
		{int64(16), "Off, Did not fire"},
		{int64(20), "Off, Did not fire, No Return"},
		{int64(24), "Auto, Did not fire"},
		{int64(25), "Auto, Fired"},
		{int64(29), "Auto, Fired, No Return"},
		{int64(31), "Auto, Fired, Return"},
		{int64(32), "No Flash Function"},
		{int64(48), "Off, No Flash Function"},
		{int64(65), "Red Eye Reduction"},
		{int64(69), "Red Eye Reduction, No Return"},
		{int64(71), "Red Eye Reduction, Return"},
		{int64(73), "Red Eye Reduction, Fired"},
		{int64(77), "Red Eye Reduction, Fired, No Return"},
		{int64(79), "Red Eye Reduction, Fired, Return"},
		{int64(80), "Off, Red Eye Reduction"},
		{int64(88), "Auto, Red Eye Reduction"},
		{int64(89), "Auto, Red Eye Reduction, Fired"},
		{int64(93), "Auto, Red Eye Reduction, Fired, No Return"},
		{int64(95), "Auto, Red Eye Reduction, Fired, Return"},
	},
	EnumWhiteBalance: {
		{int64(0), "Auto"},
		{int64(1), "Manual"},
		{int64(2), "Daylight"},
		{int64(3), "Cloudy"},
		{int64(4), "Tungsten"},
		{int64(5), "Fluorescent"},
		{int64(6), "Flash"},
		{int64(7), "Shade"},
		{int64(8), "Kelvin"},
		{int64(9), "Manual 2"},
		{int64(10), "Manual 3"},
	},
	EnumColorSpace: {
		{int64(1), "sRGB"},
		{int64(2), "Adobe RGB"},
		{int64(65535), "Uncalibrated"},
	},
	EnumOrientation: {
		{int64(1), "Normal"},
		{int64(2), "Flipped Horizontally"},
		{int64(3), "Rotated 180°"},
		{int64(4), "Flipped Vertically"},
		{int64(5), "Rotated 90° CCW, Flipped Horizontally"},
		{int64(6), "Rotated 90° CW"},
		{int64(7), "Rotated 90° CW, Flipped Horizontally"},
		{int64(8), "Rotated 90° CCW"},
	},
	EnumFilmSimulation: {
		{"PROVIA", "Provia (Standard)"},
		{"Velvia", "Velvia (Vivid)"},
		{"ASTIA", "Astia (Soft)"},
		{"CLASSIC_CHROME", "Classic Chrome"},
		{"PRO_Neg_Hi", "Pro Neg. Hi"},
		{"PRO_Neg_Std", "Pro Neg. Std"},
		{"CLASSIC_NEG", "Classic Neg."},
		{"ETERNA", "Eterna (Cinema)"},
		{"ACROS", "Acros (B&W)"},
		{"ACROS_Ye", "Acros+Ye Filter"},
		{"ACROS_R", "Acros+R Filter"},
		{"ACROS_G", "Acros+G Filter"},
		{"MONOCHROME", "Monochrome"},
		{"MONOCHROME_Ye", "Monochrome+Ye Filter"},
		{"MONOCHROME_R", "Monochrome+R Filter"},
		{"MONOCHROME_G", "Monochrome+G Filter"},
		{"SEPIA", "Sepia"},
		{"NOSTALGIC_NEG", "Nostalgic Neg."},
		{"BLEACH_BYPASS", "Bleach Bypass"},
		{"REALA_ACE", "Reala Ace"},
	},
	EnumDynamicRange: {
		{"100", "DR100"},
		{"200", "DR200"},
		{"400", "DR400"},
		{"AUTO", "DR Auto"},
	},
}

// Tags whose numeric values are labelled by an enum category.
var tagEnums = map[string]EnumCategory{
	"ExposureProgram": EnumExposureProgram,
	"MeteringMode":    EnumMeteringMode,
	"Flash":           EnumFlash,
	"WhiteBalance":    EnumWhiteBalance,
	"ColorSpace":      EnumColorSpace,
	"Orientation":     EnumOrientation,
}

// Built once in init and read-only afterwards.
var (
	enumLabels = make([]map[any]string, len(enumTables))
	enumCodes  = make([]map[string]any, len(enumTables))
)

func init() {
	for c, entries := range enumTables {
		labels := make(map[any]string, len(entries))
		codes := make(map[string]any, len(entries))
		for _, e := range entries {
			labels[e.code] = e.label
			if _, found := codes[e.label]; !found {
				// First code in table order wins.
				codes[e.label] = e.code
			}
		}
		enumLabels[c] = labels
		enumCodes[c] = codes
	}
}

// EnumCategories returns all categories in priority order.
func EnumCategories() []EnumCategory {
	cats := make([]EnumCategory, len(enumTables))
	for i := range cats {
		cats[i] = EnumCategory(i)
	}
	return cats
}

func (c EnumCategory) valid() bool {
	return c >= 0 && int(c) < len(enumTables)
}

// hasStringCodes reports whether the category is keyed by strings (the Fujifilm tables).
func (c EnumCategory) hasStringCodes() bool {
	return c == EnumFilmSimulation || c == EnumDynamicRange
}

// EnumLabel returns the label for code in category c,
// or "Unknown (<code>)" if there is none.
func EnumLabel(c EnumCategory, code any) string {
	key := enumKey(code)
	if c.valid() {
		if l, ok := enumLabels[c][key]; ok {
			return l
		}
	}
	return fmt.Sprintf("Unknown (%v)", key)
}

// EnumCode returns the code labelled by label in category c.
// "Unknown (<n>)" labels map back to n.
func EnumCode(c EnumCategory, label string) (any, bool) {
	if !c.valid() {
		return nil, false
	}
	if code, ok := enumCodes[c][label]; ok {
		return code, true
	}
	if n, ok := parseUnknownLabel(label); ok && !c.hasStringCodes() {
		return n, true
	}
	return nil, false
}

var reUnknownLabel = regexp.MustCompile(`^Unknown \((-?\d+)\)$`)

func parseUnknownLabel(s string) (int64, bool) {
	m := reUnknownLabel.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// enumKey normalizes numeric codes to int64 so they match the table keys.
func enumKey(code any) any {
	switch v := code.(type) {
	case string:
		return v
	default:
		if f, ok := toFloat64E(code); ok && f == float64(int64(f)) {
			return int64(f)
		}
		return fmt.Sprint(code)
	}
}
