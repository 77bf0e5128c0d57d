// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

var (
	_ encoding.TextUnmarshaler = (*Rational)(nil)
	_ encoding.TextMarshaler   = Rational{}
)

// Rational is an EXIF rational as a numerator/denominator pair.
// It's the encoded form of RATIONAL and SRATIONAL values in RawTags.
type Rational struct {
	Num int64
	Den int64
}

// RationalDenominator is the fixed denominator used when encoding numbers as rationals.
const RationalDenominator = 100000

// NewRational encodes f with the fixed denominator.
func NewRational(f float64) Rational {
	return Rational{Num: int64(math.Round(f * RationalDenominator)), Den: RationalDenominator}
}

// Float64 returns the float64 representation of the rational number.
// A zero denominator yields 0.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// String returns the string representation of the rational number.
// If the denominator is 1, the string will be the numerator only.
func (r Rational) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func (r *Rational) UnmarshalText(text []byte) error {
	s := string(text)
	if !strings.Contains(s, "/") {
		num, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %q as a rational number: %w", s, err)
		}
		r.Num = num
		r.Den = 1
		return nil
	}
	if _, err := fmt.Sscanf(s, "%d/%d", &r.Num, &r.Den); err != nil {
		return fmt.Errorf("failed to parse %q as a rational number: %w", s, err)
	}
	return nil
}

func (r Rational) MarshalText() (text []byte, err error) {
	return []byte(r.String()), nil
}

type float64Provider interface {
	Float64() float64
}

// toFloat64E converts any numeric value to float64.
func toFloat64E(v any) (float64, bool) {
	switch vv := v.(type) {
	case float64:
		return vv, true
	case float32:
		return float64(vv), true
	case int:
		return float64(vv), true
	case int8:
		return float64(vv), true
	case int16:
		return float64(vv), true
	case int32:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case uint:
		return float64(vv), true
	case uint8:
		return float64(vv), true
	case uint16:
		return float64(vv), true
	case uint32:
		return float64(vv), true
	case uint64:
		return float64(vv), true
	case json.Number:
		f, err := vv.Float64()
		return f, err == nil
	case float64Provider:
		return vv.Float64(), true
	default:
		return 0, false
	}
}

func toFloat64(v any) float64 {
	f, _ := toFloat64E(v)
	return f
}

func isNumber(v any) bool {
	switch v.(type) {
	case Rational:
		return false
	}
	_, ok := toFloat64E(v)
	return ok
}

func isIntegerClass(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// toFloat64Slice converts a numeric array in any of the tree's
// representations to []float64.
func toFloat64Slice(v any) ([]float64, bool) {
	switch vv := v.(type) {
	case []float64:
		return vv, true
	case []int64:
		out := make([]float64, len(vv))
		for i, n := range vv {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, len(vv))
		for i, e := range vv {
			f, ok := toFloat64E(e)
			if !ok || !isNumber(e) {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatNumber renders a number the way it was given: integers without a
// fractional part, floats in their shortest exact form.
func formatNumber(v any) string {
	switch vv := v.(type) {
	case int64:
		return strconv.FormatInt(vv, 10)
	case int:
		return strconv.Itoa(vv)
	default:
		return formatFloat(toFloat64(v))
	}
}

func trimTrailingNulls(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}

// latin1String maps each byte to the code point of the same value.
// This is the byte string form UNDEFINED values take in RawTags.
func latin1String(b []byte) string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// ISO 8859-1 maps every byte; this is not reachable.
		panic(err)
	}
	return string(s)
}

// latin1Bytes is the inverse of latin1String.
// Code points above 0xff cannot be represented and are reported as an error.
func latin1Bytes(s string) ([]byte, error) {
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
}
