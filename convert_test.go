// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"fmt"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestToRawTags(t *testing.T) {
	c := qt.New(t)

	c.Run("Rational", func(c *qt.C) {
		raw := ToRawTags(Tree{SectionPhoto: {"FNumber": 2.8}}, nil)
		v, ok := raw.Get(IFDExif, 0x829d)
		c.Assert(ok, qt.IsTrue)
		c.Assert(v, qt.Equals, Rational{Num: 280000, Den: 100000})

		tree := FromRawTags(raw)
		c.Assert(tree[SectionPhoto]["FNumber"], eq, 2.8)
	})

	c.Run("Rational arrays", func(c *qt.C) {
		raw := ToRawTags(Tree{SectionGPS: {
			"GPSLatitude":  []float64{37, 48, 12.5},
			"GPSLongitude": []any{[]any{int64(122), int64(1)}, []any{int64(25), int64(1)}, []any{int64(956), int64(100)}},
			"GPSAltitude":  []any{int64(1234), int64(10)},
		}}, nil)
		lat, _ := raw.Get(IFDGPS, 0x0002)
		c.Assert(lat, qt.DeepEquals, []Rational{{3700000, 100000}, {4800000, 100000}, {1250000, 100000}})
		lng, _ := raw.Get(IFDGPS, 0x0004)
		c.Assert(lng, qt.DeepEquals, []Rational{{122, 1}, {25, 1}, {956, 100}})
		alt, _ := raw.Get(IFDGPS, 0x0006)
		c.Assert(alt, qt.Equals, Rational{Num: 1234, Den: 10})
	})

	c.Run("Signed rational", func(c *qt.C) {
		raw := ToRawTags(Tree{SectionPhoto: {"ExposureBiasValue": -0.7}}, nil)
		v, _ := raw.Get(IFDExif, 0x9204)
		c.Assert(v, qt.Equals, Rational{Num: -70000, Den: 100000})
	})

	c.Run("Undefined", func(c *qt.C) {
		raw := ToRawTags(Tree{SectionPhoto: {
			"ExifVersion": []byte("0232"),
			"MakerNote":   []byte{0x00, 0xe9, 0xff},
			"UserComment": Comment{Charset: CharsetASCII, Comment: "Hi"},
			"SceneType":   []int64{1},
		}}, nil)
		v, _ := raw.Get(IFDExif, 0x9000)
		c.Assert(v, qt.Equals, "0232")
		v, _ = raw.Get(IFDExif, 0x927c)
		c.Assert(v, qt.Equals, "\x00éÿ")
		v, _ = raw.Get(IFDExif, 0x9286)
		c.Assert(v, qt.Equals, "ASCII\x00\x00\x00Hi")
		v, _ = raw.Get(IFDExif, 0xa301)
		c.Assert(v, qt.Equals, "\x01")

		tree := FromRawTags(raw)
		c.Assert(tree[SectionPhoto]["MakerNote"], qt.DeepEquals, []byte{0x00, 0xe9, 0xff})
		c.Assert(tree[SectionPhoto]["UserComment"], qt.DeepEquals, []byte("ASCII\x00\x00\x00Hi"))
	})

	c.Run("Undefined from generic JSON shapes", func(c *qt.C) {
		raw := ToRawTags(Tree{SectionPhoto: {
			"ExifVersion":             map[string]any{"0": int64(48), "1": int64(50), "2": int64(51), "3": int64(48)},
			"FileSource":              map[string]any{"value": []any{int64(3)}},
			"ComponentsConfiguration": map[string]any{"type": "Buffer", "data": []any{int64(1), int64(2), int64(3), int64(0)}},
			"UserComment":             map[string]any{"charset": "ASCII", "comment": "Hey"},
		}}, nil)
		v, _ := raw.Get(IFDExif, 0x9000)
		c.Assert(v, qt.Equals, "0230")
		v, _ = raw.Get(IFDExif, 0xa300)
		c.Assert(v, qt.Equals, "\x03")
		v, _ = raw.Get(IFDExif, 0x9101)
		c.Assert(v, qt.Equals, "\x01\x02\x03\x00")
		v, _ = raw.Get(IFDExif, 0x9286)
		c.Assert(v, qt.Equals, "ASCII\x00\x00\x00Hey")
	})

	c.Run("Dates", func(c *qt.C) {
		d := time.Date(2024, 3, 1, 10, 20, 30, 0, time.Local)
		raw := ToRawTags(Tree{SectionImage: {"DateTime": d}, SectionPhoto: {"DateTimeOriginal": d}}, nil)
		v, _ := raw.Get(IFD0, 0x0132)
		c.Assert(v, qt.Equals, "2024:03:01 10:20:30")
		v, _ = raw.Get(IFDExif, 0x9003)
		c.Assert(v, qt.Equals, "2024:03:01 10:20:30")

		tree := FromRawTags(raw)
		c.Assert(tree[SectionImage]["DateTime"].(time.Time).Equal(d), qt.IsTrue)
	})

	c.Run("Integers and strings pass through", func(c *qt.C) {
		raw := ToRawTags(Tree{SectionImage: {"Make": "FUJIFILM", "Orientation": int64(6)}, SectionPhoto: {"ISOSpeedRatings": int64(400)}}, nil)
		v, _ := raw.Get(IFD0, 0x010f)
		c.Assert(v, qt.Equals, "FUJIFILM")
		v, _ = raw.Get(IFD0, 0x0112)
		c.Assert(v, qt.Equals, int64(6))
		v, _ = raw.Get(IFDExif, 0x8827)
		c.Assert(v, qt.Equals, int64(400))
	})

	c.Run("Unknown tags are dropped", func(c *qt.C) {
		var warnings []string
		conv := Converter{Warnf: func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		}}
		raw := conv.ToRawTags(Tree{
			SectionPhoto: {"MyCustomTag": "x", "FNumber": 2.8},
			"Vendor":     {"Foo": int64(1)},
		}, nil)
		c.Assert(raw.Len(), qt.Equals, 1)
		c.Assert(warnings, qt.HasLen, 2)
	})

	c.Run("Structural tags are dropped", func(c *qt.C) {
		raw := ToRawTags(Tree{
			SectionImage:     {"ExifTag": int64(100), "GPSTag": int64(200), "StripOffsets": int64(8)},
			SectionThumbnail: {"JPEGInterchangeFormat": int64(100), "JPEGInterchangeFormatLength": int64(50), "Compression": int64(6)},
		}, nil)
		c.Assert(raw.Len(), qt.Equals, 1)
		v, _ := raw.Get(IFD1, 0x0103)
		c.Assert(v, qt.Equals, int64(6))
	})

	c.Run("Fallback IFD", func(c *qt.C) {
		raw := ToRawTags(Tree{SectionImage: {"ExposureTime": 0.004}}, nil)
		v, ok := raw.Get(IFDExif, 0x829a)
		c.Assert(ok, qt.IsTrue)
		c.Assert(v, qt.Equals, Rational{Num: 400, Den: 100000})
		c.Assert(raw.IFDs[IFD0], qt.HasLen, 0)
	})

	c.Run("Natural IFD wins over fallback", func(c *qt.C) {
		raw := ToRawTags(Tree{
			SectionImage: {"ExposureTime": 0.5},
			SectionPhoto: {"ExposureTime": 0.004},
		}, nil)
		v, _ := raw.Get(IFDExif, 0x829a)
		c.Assert(v, qt.Equals, Rational{Num: 400, Den: 100000})
	})

	c.Run("Unencodable values are dropped", func(c *qt.C) {
		raw := ToRawTags(Tree{SectionPhoto: {
			"MakerNote":   []any{int64(1), int64(300)},
			"UserComment": Comment{Comment: "ok"},
		}}, nil)
		c.Assert(raw.Len(), qt.Equals, 1)
	})

	c.Run("Thumbnail", func(c *qt.C) {
		thumb := []byte{0xff, 0xd8, 0xff, 0xd9}
		raw := ToRawTags(Tree{}, thumb)
		c.Assert(raw.Thumbnail, qt.DeepEquals, thumb)
		thumb[0] = 0
		c.Assert(raw.Thumbnail[0], qt.Equals, byte(0xff))
	})

	c.Run("Unknown tags decode with their code", func(c *qt.C) {
		raw := NewRawTags()
		raw.Set(IFDExif, 0xc4a5, int64(7))
		tree := FromRawTags(raw)
		c.Assert(tree[SectionPhoto]["UnknownTag_0xc4a5"], qt.Equals, int64(7))
	})
}

func TestRawTagsRoundTrip(t *testing.T) {
	c := qt.New(t)

	tree := Tree{
		SectionImage: {
			"Make":        "FUJIFILM",
			"Model":       "X-T4",
			"Orientation": int64(1),
			"XResolution": 72.0,
			"DateTime":    time.Date(2024, 3, 1, 10, 20, 30, 0, time.Local),
		},
		SectionPhoto: {
			"FNumber":           2.8,
			"ExposureTime":      0.004,
			"ISOSpeedRatings":   int64(400),
			"ExposureBiasValue": -0.33333,
			"FocalLength":       23.0,
			"ExifVersion":       []byte("0232"),
			"LensSpecification": []float64{16, 80, 4, 4},
		},
		SectionGPS: {
			"GPSLatitudeRef": "N",
			"GPSLatitude":    []float64{37, 48, 12.5},
			"GPSVersionID":   []int64{2, 3, 0, 0},
		},
		SectionInterop: {
			"InteroperabilityIndex": "R98",
		},
		SectionThumbnail: {
			"Compression": int64(6),
		},
	}

	got := FromRawTags(ToRawTags(tree, nil))
	c.Assert(got, eq, tree)
}

func TestRawTagsWithoutIFD(t *testing.T) {
	c := qt.New(t)

	raw := ToRawTags(Tree{
		SectionImage: {"Make": "FUJIFILM"},
		SectionGPS:   {"GPSLatitudeRef": "N"},
	}, []byte{1, 2})
	c.Assert(raw.Len(), qt.Equals, 2)

	stripped := raw.WithoutIFD(IFDGPS)
	c.Assert(stripped.Len(), qt.Equals, 1)
	c.Assert(stripped.Thumbnail, qt.DeepEquals, []byte{1, 2})
	c.Assert(raw.Len(), qt.Equals, 2)
}
