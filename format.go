// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// DisplayTimeLayout is the layout timestamps are displayed with.
const DisplayTimeLayout = "2006-01-02 15:04:05"

// Display is a formatted tag value.
type Display struct {
	// Text is the display string.
	// For binary payloads it is "[Binary data: N bytes]".
	Text string

	// Binary is set for byte payloads that are not displayable as text.
	Binary []byte
}

// IsBinary reports whether the value was formatted as a binary marker.
func (d Display) IsBinary() bool {
	return d.Binary != nil
}

// Hex returns the hex dump pane of a binary display.
func (d Display) Hex() string {
	return hex.Dump(d.Binary)
}

// ASCII returns the printable-ASCII pane of a binary display, with
// non-printable bytes shown as dots.
func (d Display) ASCII() string {
	var sb strings.Builder
	for _, c := range d.Binary {
		if c >= 0x20 && c < 0x7f {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func (d Display) String() string {
	return d.Text
}

func binaryDisplay(b []byte) Display {
	if b == nil {
		b = []byte{}
	}
	return Display{Text: fmt.Sprintf("[Binary data: %d bytes]", len(b)), Binary: b}
}

// tagRule holds the unit rendering of a tag and its inverse.
type tagRule struct {
	format   func(f float64) string
	unformat func(s string) (float64, bool)
}

func unitRule(prefix, suffix string) tagRule {
	return tagRule{
		format: func(f float64) string {
			return prefix + formatFloat(f) + suffix
		},
		unformat: func(s string) (float64, bool) {
			s = strings.TrimSpace(s)
			s = strings.TrimPrefix(s, prefix)
			s = strings.TrimSuffix(s, suffix)
			return parseFloat(s)
		},
	}
}

var isoRule = unitRule("ISO ", "")

var tagRules = map[string]tagRule{
	"ExposureTime": {
		format: func(f float64) string {
			if f > 0 && f < 1 {
				return fmt.Sprintf("1/%ds", int64(math.Round(1/f)))
			}
			return formatFloat(f) + "s"
		},
		unformat: func(s string) (float64, bool) {
			s = strings.TrimSpace(s)
			s = strings.TrimSpace(strings.TrimSuffix(s, "s"))
			if d, ok := strings.CutPrefix(s, "1/"); ok {
				f, ok := parseFloat(d)
				if !ok || f == 0 {
					return 0, false
				}
				return 1 / f, true
			}
			return parseFloat(s)
		},
	},
	"FNumber":                 unitRule("f/", ""),
	"FocalLength":             unitRule("", "mm"),
	"ISOSpeedRatings":         isoRule,
	"ISO":                     isoRule,
	"PhotographicSensitivity": isoRule,
	"ISOSpeed":                isoRule,
	"ExposureBiasValue": {
		format: func(f float64) string {
			sign := ""
			if f > 0 {
				sign = "+"
			}
			return sign + fmt.Sprintf("%.1f", f) + " EV"
		},
		unformat: func(s string) (float64, bool) {
			s = strings.TrimSpace(s)
			s = strings.TrimSpace(strings.TrimSuffix(s, "EV"))
			return parseFloat(strings.TrimPrefix(s, "+"))
		},
	},
	"XResolution": unitRule("", " dpi"),
	"YResolution": unitRule("", " dpi"),
}

// Format renders a tag value for display.
// It never panics; values it cannot render are shown as their JSON
// representation or, for byte payloads, as a binary marker.
func Format(tag string, v any) (d Display) {
	defer func() {
		if r := recover(); r != nil {
			if b, ok := v.([]byte); ok {
				d = binaryDisplay(b)
				return
			}
			d = Display{Text: fmt.Sprintf("%v", v)}
		}
	}()
	return formatValue(tag, v)
}

func formatValue(tag string, v any) Display {
	switch vv := v.(type) {
	case nil:
		return Display{}
	case time.Time:
		return Display{Text: vv.Format(DisplayTimeLayout)}
	case []byte:
		if tag == "UserComment" {
			if c, ok := decodeUserComment(vv); ok {
				return Display{Text: c.Comment}
			}
		}
		return formatBytes(vv)
	case Comment:
		return Display{Text: vv.Comment}
	case string:
		return Display{Text: vv}
	case []int64, []float64:
		f, _ := toFloat64Slice(vv)
		return Display{Text: joinNumbers(v, f)}
	case []any:
		if f, ok := toFloat64Slice(vv); ok {
			return Display{Text: joinNumbers(v, f)}
		}
		return Display{Text: jsonText(vv)}
	}

	if isNumber(v) {
		if c, ok := tagEnums[tag]; ok {
			return Display{Text: EnumLabel(c, v)}
		}
		if rule, ok := tagRules[tag]; ok {
			return Display{Text: rule.format(toFloat64(v))}
		}
		return Display{Text: formatNumber(v)}
	}

	switch vv := v.(type) {
	case Rational:
		return Display{Text: vv.String()}
	case bool:
		return Display{Text: fmt.Sprint(vv)}
	case fmt.Stringer:
		return Display{Text: vv.String()}
	}

	return Display{Text: jsonText(v)}
}

// formatBytes decodes b as text. Payloads with control characters
// are shown as binary.
func formatBytes(b []byte) Display {
	if !utf8.Valid(b) {
		b2 := []byte(strings.ToValidUTF8(string(b), "�"))
		if hasControlChars(b2) {
			return binaryDisplay(b)
		}
		return Display{Text: string(trimTrailingNulls(b2))}
	}
	if hasControlChars(b) {
		return binaryDisplay(b)
	}
	return Display{Text: string(trimTrailingNulls(b))}
}

func hasControlChars(b []byte) bool {
	for _, c := range b {
		if c <= 0x08 || (c >= 0x0e && c <= 0x1f) {
			return true
		}
	}
	return false
}

func joinNumbers(orig any, f []float64) string {
	parts := make([]string, len(f))
	ints, isInts := orig.([]int64)
	for i, n := range f {
		if isInts {
			parts[i] = formatNumber(ints[i])
		} else {
			parts[i] = formatFloat(n)
		}
	}
	return strings.Join(parts, ", ")
}

func jsonText(v any) string {
	b, err := json.Marshal(toJSONValue(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// Recipe keys are matched by these lower case substrings.
var (
	recipeFilmKeys        = []string{"film", "simulation"}
	recipeDynamicKeys     = []string{"dynamic", "range"}
	recipeTemperatureKeys = []string{"temperature"}
	recipeSignedKeys      = []string{"tint", "fine"}
)

func keyContains(key string, subs []string) bool {
	k := strings.ToLower(key)
	for _, s := range subs {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// FormatRecipeValue renders a film recipe value for display.
func FormatRecipeValue(key string, v any) Display {
	switch {
	case keyContains(key, recipeFilmKeys):
		if s, ok := v.(string); ok {
			if l, ok := enumLabels[EnumFilmSimulation][s]; ok {
				return Display{Text: l}
			}
		}
	case keyContains(key, recipeDynamicKeys):
		if l, ok := enumLabels[EnumDynamicRange][fmt.Sprint(v)]; ok {
			return Display{Text: l}
		}
	case keyContains(key, recipeTemperatureKeys):
		if isNumber(v) && toFloat64(v) > 1000 {
			return Display{Text: formatNumber(v) + "K"}
		}
	case keyContains(key, recipeSignedKeys):
		if isNumber(v) {
			if toFloat64(v) > 0 {
				return Display{Text: "+" + formatNumber(v)}
			}
			return Display{Text: formatNumber(v)}
		}
	}
	return Format(key, v)
}
