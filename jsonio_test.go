// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"errors"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/hashicorp/go-multierror"
)

func TestJSONRoundTrip(t *testing.T) {
	c := qt.New(t)

	tree := Tree{
		SectionImage: {
			"Make":        "FUJIFILM",
			"Orientation": int64(1),
			"XResolution": 72.0,
			"DateTime":    time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC),
		},
		SectionPhoto: {
			"FNumber":           2.8,
			"ExposureTime":      0.004,
			"ISOSpeedRatings":   int64(400),
			"ExifVersion":       []byte("0232"),
			"MakerNote":         []byte{0x00, 0x01, 0xff},
			"UserComment":       Comment{Charset: CharsetASCII, Comment: "Hello"},
			"LensSpecification": []float64{16, 80, 2.8, 4},
			"DateTimeOriginal":  time.Date(2024, 3, 1, 10, 20, 30, 500, time.FixedZone("", 3600)),
		},
		SectionGPS: {
			"GPSLatitude":    []float64{37, 48, 12.5},
			"GPSLatitudeRef": "N",
			"GPSVersionID":   []int64{2, 3, 0, 0},
			"GPSAltitude":    100.0,
		},
		SectionThumbnail: {},
	}

	b, err := ExportJSON(tree)
	c.Assert(err, qt.IsNil)
	c.Assert(string(b), qt.Contains, `"type": "Buffer"`)
	c.Assert(string(b), qt.Contains, `"DateTime": "2024-03-01T10:20:30Z"`)

	got, err := ImportJSON(b)
	c.Assert(err, qt.IsNil)
	c.Assert(got, eq, tree)

	// Export is stable.
	b2, err := ExportJSON(got)
	c.Assert(err, qt.IsNil)
	c.Assert(string(b2), qt.Equals, string(b))
}

func TestImportJSON(t *testing.T) {
	c := qt.New(t)

	c.Run("Uint8Array", func(c *qt.C) {
		got, err := ImportJSON([]byte(`{"Photo": {"MakerNote": {"type": "Uint8Array", "data": [1, 2, 3]}}}`))
		c.Assert(err, qt.IsNil)
		c.Assert(got[SectionPhoto]["MakerNote"], qt.DeepEquals, []byte{1, 2, 3})
	})

	c.Run("Dates only under date keys", func(c *qt.C) {
		got, err := ImportJSON([]byte(`{"Image": {"DateTime": "2024-03-01T10:20", "Software": "2024-03-01T10:20:30Z"}}`))
		c.Assert(err, qt.IsNil)
		c.Assert(got[SectionImage]["DateTime"], eq, time.Date(2024, 3, 1, 10, 20, 0, 0, time.UTC))
		c.Assert(got[SectionImage]["Software"], qt.Equals, "2024-03-01T10:20:30Z")
	})

	c.Run("Non ISO strings under date keys", func(c *qt.C) {
		got, err := ImportJSON([]byte(`{"GPSInfo": {"GPSDateStamp": "2024:03:01"}}`))
		c.Assert(err, qt.IsNil)
		c.Assert(got[SectionGPS]["GPSDateStamp"], qt.Equals, "2024:03:01")
	})

	c.Run("Numbers typed by catalog", func(c *qt.C) {
		got, err := ImportJSON([]byte(`{"Photo": {"FNumber": 4, "ISOSpeedRatings": 200, "Custom": 1.5, "Other": 7, "LensSpecification": [16, 80, 4, 4]}}`))
		c.Assert(err, qt.IsNil)
		photo := got[SectionPhoto]
		c.Assert(photo["FNumber"], qt.Equals, 4.0)
		c.Assert(photo["ISOSpeedRatings"], qt.Equals, int64(200))
		c.Assert(photo["Custom"], qt.Equals, 1.5)
		c.Assert(photo["Other"], qt.Equals, int64(7))
		c.Assert(photo["LensSpecification"], qt.DeepEquals, []float64{16, 80, 4, 4})
	})

	c.Run("Mixed arrays", func(c *qt.C) {
		got, err := ImportJSON([]byte(`{"GPSInfo": {"GPSLatitude": [[37, 1], [48, 1], [1250, 100]], "Custom": [1, "a"]}}`))
		c.Assert(err, qt.IsNil)
		c.Assert(got[SectionGPS]["GPSLatitude"], qt.DeepEquals, []any{
			[]any{int64(37), int64(1)}, []any{int64(48), int64(1)}, []any{int64(1250), int64(100)},
		})
		c.Assert(got[SectionGPS]["Custom"], qt.DeepEquals, []any{int64(1), "a"})

		raw := ToRawTags(got, nil)
		v, _ := raw.Get(IFDGPS, 0x0002)
		c.Assert(v, qt.DeepEquals, []Rational{{37, 1}, {48, 1}, {1250, 100}})
	})

	c.Run("Comment", func(c *qt.C) {
		got, err := ImportJSON([]byte(`{"Photo": {"UserComment": {"comment": "Hi"}}}`))
		c.Assert(err, qt.IsNil)
		c.Assert(got[SectionPhoto]["UserComment"], qt.Equals, Comment{Comment: "Hi"})
	})

	c.Run("Empty document", func(c *qt.C) {
		got, err := ImportJSON([]byte(`{}`))
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.HasLen, 0)
	})
}

func TestImportJSONErrors(t *testing.T) {
	c := qt.New(t)

	for _, test := range []struct {
		name  string
		input string
		want  string
	}{
		{"Invalid JSON", `{"Image": `, `.*invalid JSON.*`},
		{"Trailing data", `{} {}`, `.*trailing data.*`},
		{"Not an object", `[1, 2]`, `.*top level must be an object, got an array.*`},
		{"Section not an object", `{"Image": 42}`, `.*Image: section must be an object, got a number.*`},
		{"Null leaf", `{"Image": {"Make": null}}`, `.*Image.Make: unsupported value null.*`},
		{"Boolean leaf", `{"Image": {"Make": true}}`, `.*Image.Make: unsupported value a boolean.*`},
		{"Bad buffer", `{"Photo": {"MakerNote": {"type": "Buffer", "data": [1, 256]}}}`, `.*byte 1 out of range: 256.*`},
		{"Buffer without data", `{"Photo": {"MakerNote": {"type": "Buffer"}}}`, `.*Buffer without a data array.*`},
		{"Unknown object", `{"Photo": {"MakerNote": {"foo": 1}}}`, `.*unsupported object with keys \[foo\].*`},
		{"Bad comment", `{"Photo": {"UserComment": {"comment": 1}}}`, `.*comment must be a string, got a number.*`},
		{"Bad date", `{"Image": {"DateTime": "2024-13-45T10:20"}}`, `.*invalid timestamp.*`},
		{"Nested object in array", `{"Image": {"Custom": [1, {"a": 1}]}}`, `.*\[1\]: unsupported array element an object.*`},
	} {
		c.Run(test.name, func(c *qt.C) {
			tree, err := ImportJSON([]byte(test.input))
			c.Assert(tree, qt.IsNil)
			c.Assert(IsImportError(err), qt.IsTrue)
			c.Assert(err, qt.ErrorMatches, `(?s)`+test.want)
		})
	}
}

func TestImportJSONAggregatesErrors(t *testing.T) {
	c := qt.New(t)

	_, err := ImportJSON([]byte(`{
		"Image": {"Make": null, "Model": "ok", "Software": false},
		"Photo": 3
	}`))
	c.Assert(IsImportError(err), qt.IsTrue)

	var merr *multierror.Error
	c.Assert(errors.As(err, &merr), qt.IsTrue)
	c.Assert(merr.Errors, qt.HasLen, 3)
	c.Assert(strings.Contains(err.Error(), "Image.Software"), qt.IsTrue)
}
