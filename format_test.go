// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestFormat(t *testing.T) {
	c := qt.New(t)

	for _, test := range []struct {
		name string
		tag  string
		v    any
		want string
	}{
		{"Exposure time fraction", "ExposureTime", 0.004, "1/250s"},
		{"Exposure time seconds", "ExposureTime", 2.0, "2s"},
		{"F-number", "FNumber", 2.8, "f/2.8"},
		{"Focal length", "FocalLength", 35.0, "35mm"},
		{"ISO", "ISOSpeedRatings", int64(400), "ISO 400"},
		{"ISO alias", "PhotographicSensitivity", int64(800), "ISO 800"},
		{"Exposure bias positive", "ExposureBiasValue", 0.7, "+0.7 EV"},
		{"Exposure bias negative", "ExposureBiasValue", -1.0, "-1.0 EV"},
		{"Exposure bias zero", "ExposureBiasValue", 0.0, "0.0 EV"},
		{"Resolution", "XResolution", 72.0, "72 dpi"},
		{"Enum", "Flash", int64(16), "Off, Did not fire"},
		{"Enum float code", "Orientation", 6.0, "Rotated 90° CW"},
		{"Enum unknown", "MeteringMode", int64(42), "Unknown (42)"},
		{"Plain integer", "ImageWidth", int64(6000), "6000"},
		{"Plain float", "GPSAltitude", 12.25, "12.25"},
		{"String", "Make", "FUJIFILM", "FUJIFILM"},
		{"Timestamp", "DateTimeOriginal", time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), "2024-03-01 10:20:30"},
		{"Text bytes", "ExifVersion", []byte("0232"), "0232"},
		{"Float array", "GPSLatitude", []float64{37, 48, 12.5}, "37, 48, 12.5"},
		{"Integer array", "BitsPerSample", []int64{8, 8, 8}, "8, 8, 8"},
		{"Number array from JSON", "LensInfo", []any{int64(16), 55.5}, "16, 55.5"},
		{"Mixed array", "Custom", []any{int64(1), "a"}, `[1,"a"]`},
		{"Comment", "UserComment", Comment{Charset: CharsetASCII, Comment: "Hello"}, "Hello"},
		{"UserComment bytes", "UserComment", []byte("ASCII\x00\x00\x00Hello"), "Hello"},
		{"Rational", "Custom", Rational{Num: 1, Den: 3}, "1/3"},
		{"Nil", "Make", nil, ""},
	} {
		c.Run(test.name, func(c *qt.C) {
			d := Format(test.tag, test.v)
			c.Assert(d.Text, qt.Equals, test.want)
			c.Assert(d.IsBinary(), qt.IsFalse)
			c.Assert(d.String(), qt.Equals, test.want)
		})
	}
}

func TestFormatBinary(t *testing.T) {
	c := qt.New(t)

	c.Run("Control bytes", func(c *qt.C) {
		b := []byte{0x00, 0x01, 0x02, 0x41, 0x42}
		d := Format("MakerNote", b)
		c.Assert(d.IsBinary(), qt.IsTrue)
		c.Assert(d.Text, qt.Equals, "[Binary data: 5 bytes]")
		c.Assert(d.Binary, qt.DeepEquals, b)
		c.Assert(d.ASCII(), qt.Equals, "...AB")
		c.Assert(d.Hex(), qt.Contains, "00 01 02 41 42")
	})

	c.Run("Invalid UTF-8 with control bytes", func(c *qt.C) {
		d := Format("MakerNote", []byte{0xff, 0xfe, 0x03})
		c.Assert(d.IsBinary(), qt.IsTrue)
		c.Assert(d.Text, qt.Equals, "[Binary data: 3 bytes]")
	})

	c.Run("NUL padded text is binary", func(c *qt.C) {
		d := Format("ImageDescription", []byte("Hello\x00\x00"))
		c.Assert(d.IsBinary(), qt.IsTrue)
		c.Assert(d.Text, qt.Equals, "[Binary data: 7 bytes]")
	})

	c.Run("Tab and newline are text", func(c *qt.C) {
		d := Format("ImageDescription", []byte("a\tb\nc"))
		c.Assert(d.IsBinary(), qt.IsFalse)
		c.Assert(d.Text, qt.Equals, "a\tb\nc")
	})

	c.Run("UserComment with binary payload", func(c *qt.C) {
		d := Format("UserComment", []byte("ASCII\x00\x00\x00\x01\x02"))
		c.Assert(d.IsBinary(), qt.IsTrue)
	})

	c.Run("Empty", func(c *qt.C) {
		d := Format("MakerNote", []byte{})
		c.Assert(d.IsBinary(), qt.IsFalse)
		c.Assert(d.Text, qt.Equals, "")
	})
}

func TestFormatUnicodeUserComment(t *testing.T) {
	c := qt.New(t)

	b, err := encodeUserComment(Comment{Comment: "Blåbær"})
	c.Assert(err, qt.IsNil)
	c.Assert(string(b[:8]), qt.Equals, "UNICODE\x00")
	c.Assert(Format("UserComment", b).Text, qt.Equals, "Blåbær")
}

func TestFormatRecipeValue(t *testing.T) {
	c := qt.New(t)

	for _, test := range []struct {
		key  string
		v    any
		want string
	}{
		{"FilmMode", "CLASSIC_CHROME", "Classic Chrome"},
		{"FilmMode", "UNKNOWN_FILM", "UNKNOWN_FILM"},
		{"FilmSimulation", "ACROS_Ye", "Acros+Ye Filter"},
		{"DynamicRange", "400", "DR400"},
		{"DynamicRange", "AUTO", "DR Auto"},
		{"ColorTemperature", int64(5500), "5500K"},
		{"ColorTemperature", int64(500), "500"},
		{"WhiteBalanceFineTuneRed", int64(2), "+2"},
		{"WhiteBalanceFineTuneBlue", int64(-3), "-3"},
		{"WhiteBalanceFineTuneBlue", int64(0), "0"},
		{"HighlightTone", -1.5, "-1.5"},
		{"WhiteBalance", "Kelvin", "Kelvin"},
	} {
		c.Assert(FormatRecipeValue(test.key, test.v).Text, qt.Equals, test.want, qt.Commentf("%s=%v", test.key, test.v))
	}
}

func TestFormatNeverPanics(t *testing.T) {
	c := qt.New(t)

	for _, v := range []any{
		map[string]any{"a": []byte{1}},
		struct{ A func() }{},
		[]any{nil, map[string]any{}},
		true,
		make(chan int),
	} {
		d := Format("Anything", v)
		c.Assert(d.IsBinary(), qt.IsFalse)
	}
}
