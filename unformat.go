// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseable is returned (wrapped in an *UnparseableError) when a display
// text cannot be parsed back and the original value is kept.
var ErrUnparseable = errors.New("unparseable value")

// UnparseableError describes a text that could not be parsed for a tag.
type UnparseableError struct {
	Tag  string
	Text string
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("%s: cannot parse %q for tag %s", ErrUnparseable, e.Text, e.Tag)
}

func (e *UnparseableError) Unwrap() error {
	return ErrUnparseable
}

// IsUnparseable reports whether err signals that the original value was kept.
func IsUnparseable(err error) bool {
	return errors.Is(err, ErrUnparseable)
}

// Layouts accepted when parsing a timestamp back.
var timeLayouts = []string{
	DisplayTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	exifTimeLayout,
	"2006-01-02",
}

// Unformat parses a display text back into a value of the same kind as original.
// When the text cannot be parsed, original is returned unchanged.
func Unformat(tag, text string, original any) any {
	v, _ := UnformatE(tag, text, original)
	return v
}

// UnformatE is like Unformat, but reports a kept original as an *UnparseableError.
func UnformatE(tag, text string, original any) (any, error) {
	unparseable := func() (any, error) {
		return original, &UnparseableError{Tag: tag, Text: text}
	}

	if code, ok := reverseEnum(tag, text, original); ok {
		return code, nil
	}

	if rule, ok := tagRules[tag]; ok && (original == nil || isNumber(original)) {
		f, ok := rule.unformat(text)
		if !ok {
			return unparseable()
		}
		return numberLike(original, f), nil
	}

	switch orig := original.(type) {
	case time.Time:
		loc := orig.Location()
		s := strings.TrimSpace(text)
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, nil
			}
		}
		return unparseable()
	case Comment:
		return Comment{Charset: orig.Charset, Comment: text}, nil
	case []byte:
		if tag == "UserComment" {
			if c, ok := decodeUserComment(orig); ok {
				b, err := encodeUserComment(Comment{Charset: c.Charset, Comment: text})
				if err != nil {
					return unparseable()
				}
				return b, nil
			}
		}
		return []byte(text), nil
	case []int64, []float64, []any:
		return unformatNumbers(text, original, unparseable)
	case string:
		return text, nil
	}

	if isNumber(original) {
		if f, ok := unformatPatternNumber(tag, text); ok {
			return numberLike(original, f), nil
		}
		return unparseable()
	}

	if original == nil {
		if f, ok := parseFloat(text); ok {
			return numberLike(nil, f), nil
		}
	}

	return text, nil
}

// UnformatRecipeValue parses a film recipe display text back.
func UnformatRecipeValue(key, text string, original any) any {
	switch {
	case keyContains(key, recipeFilmKeys):
		if code, ok := EnumCode(EnumFilmSimulation, text); ok {
			return code
		}
	case keyContains(key, recipeDynamicKeys):
		if code, ok := EnumCode(EnumDynamicRange, text); ok {
			return code
		}
	}
	if isNumber(original) {
		if f, ok := unformatPatternNumber(key, text); ok {
			return numberLike(original, f)
		}
		return original
	}
	return text
}

// reverseEnum looks text up as an enum label. The tag's own category is
// tried first, then all categories in priority order. Categories whose code
// class (number or string) differs from the original value are skipped.
func reverseEnum(tag, text string, original any) (any, bool) {
	wantString := false
	switch original.(type) {
	case nil:
	case string:
		wantString = true
	default:
		if !isNumber(original) {
			return nil, false
		}
	}

	own, hasOwn := tagEnums[tag]
	try := func(c EnumCategory) (any, bool) {
		if c.hasStringCodes() != wantString {
			return nil, false
		}
		code, ok := enumCodes[c][text]
		if !ok {
			return nil, false
		}
		if original != nil && !wantString {
			return numberLike(original, toFloat64(code)), true
		}
		return code, true
	}

	if hasOwn {
		if code, ok := try(own); ok {
			return code, true
		}
		if n, ok := parseUnknownLabel(text); ok {
			return numberLike(original, float64(n)), true
		}
	}
	for _, c := range EnumCategories() {
		if hasOwn && c == own {
			continue
		}
		if code, ok := try(c); ok {
			return code, true
		}
	}
	return nil, false
}

// unformatPatternNumber parses a plain number, also accepting the
// Kelvin suffix and the explicit plus sign the recipe formatter adds.
func unformatPatternNumber(key, text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if keyContains(key, recipeTemperatureKeys) {
		s = strings.TrimSpace(strings.TrimSuffix(s, "K"))
	}
	s = strings.TrimPrefix(s, "+")
	return parseFloat(s)
}

func unformatNumbers(text string, original any, unparseable func() (any, error)) (any, error) {
	parts := strings.Split(text, ",")
	f := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, ok := parseFloat(p)
		if !ok {
			return unparseable()
		}
		f = append(f, n)
	}
	switch original.(type) {
	case []int64:
		ints := make([]int64, len(f))
		for i, n := range f {
			if n != math.Trunc(n) {
				return f, nil
			}
			ints[i] = int64(n)
		}
		return ints, nil
	default:
		return f, nil
	}
}

// numberLike returns f in the number class of original:
// int64 when original is an integer (or absent) and f is integral, float64 otherwise.
func numberLike(original any, f float64) any {
	if (original == nil || isIntegerClass(original)) && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return f
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
