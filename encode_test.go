// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	goexif "github.com/rwcarlsen/goexif/exif"
)

func newTestJPEG(c *qt.C, size int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := range size {
		for y := range size {
			img.Set(x, y, color.RGBA{uint8(x * 10), uint8(y * 10), 128, 255})
		}
	}
	var buf bytes.Buffer
	c.Assert(jpeg.Encode(&buf, img, nil), qt.IsNil)
	return buf.Bytes()
}

func newEncodeTestTree() Tree {
	when := time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)
	return Tree{
		SectionImage: {
			"Make":        "FUJIFILM",
			"Model":       "X-T4",
			"Orientation": int64(6),
			"DateTime":    when,
		},
		SectionPhoto: {
			"FNumber":           2.8,
			"ExposureTime":      0.004,
			"ISOSpeedRatings":   int64(400),
			"ExposureBiasValue": -0.7,
			"UserComment":       Comment{Charset: CharsetASCII, Comment: "Hello"},
			"DateTimeOriginal":  when,
		},
	}.WithLatLong(37.80347222, -122.41933333)
}

func TestWriteTree(t *testing.T) {
	c := qt.New(t)

	img := newTestJPEG(c, 32)
	thumb := newTestJPEG(c, 4)

	out, err := WriteTree(img, newEncodeTestTree(), thumb, EncodeOptions{})
	c.Assert(err, qt.IsNil)

	res, err := DecodeBytes(out, Options{Location: time.UTC})
	c.Assert(err, qt.IsNil)

	when := time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)
	ifd0, photo := res.Tree[SectionImage], res.Tree[SectionPhoto]
	c.Assert(ifd0["Make"], qt.Equals, "FUJIFILM")
	c.Assert(ifd0["Model"], qt.Equals, "X-T4")
	c.Assert(ifd0["Orientation"], qt.Equals, int64(6))
	c.Assert(ifd0["DateTime"], eq, when)
	c.Assert(photo["FNumber"], eq, 2.8)
	c.Assert(photo["ExposureTime"], eq, 0.004)
	c.Assert(photo["ISOSpeedRatings"], qt.Equals, int64(400))
	c.Assert(photo["ExposureBiasValue"], eq, -0.7)
	c.Assert(photo["UserComment"], qt.DeepEquals, []byte("ASCII\x00\x00\x00Hello"))
	c.Assert(photo["DateTimeOriginal"], eq, when)
	c.Assert(res.Thumbnail, qt.DeepEquals, thumb)

	lat, lng, ok := res.Tree.LatLong()
	c.Assert(ok, qt.IsTrue)
	c.Assert(lat, eq, 37.80347222)
	c.Assert(lng, eq, -122.41933333)

	c.Assert(Format("UserComment", photo["UserComment"]).Text, qt.Equals, "Hello")

	// The image data is kept.
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	c.Assert(err, qt.IsNil)
	c.Assert(decoded.Bounds().Dx(), qt.Equals, 32)
}

// Verify the written EXIF with an independent decoder.
func TestWriteTreeGoexif(t *testing.T) {
	c := qt.New(t)

	out, err := WriteTree(newTestJPEG(c, 16), newEncodeTestTree(), nil, EncodeOptions{})
	c.Assert(err, qt.IsNil)

	x, err := goexif.Decode(bytes.NewReader(out))
	c.Assert(err, qt.IsNil)

	tag, err := x.Get(goexif.FNumber)
	c.Assert(err, qt.IsNil)
	num, den, err := tag.Rat2(0)
	c.Assert(err, qt.IsNil)
	c.Assert([]int64{num, den}, qt.DeepEquals, []int64{280000, 100000})

	tag, err = x.Get(goexif.Model)
	c.Assert(err, qt.IsNil)
	model, err := tag.StringVal()
	c.Assert(err, qt.IsNil)
	c.Assert(model, qt.Equals, "X-T4")

	tag, err = x.Get(goexif.ISOSpeedRatings)
	c.Assert(err, qt.IsNil)
	iso, err := tag.Int(0)
	c.Assert(err, qt.IsNil)
	c.Assert(iso, qt.Equals, 400)

	lat, lng, err := x.LatLong()
	c.Assert(err, qt.IsNil)
	c.Assert(math.Abs(lat-37.80347222) < 1e-5, qt.IsTrue, qt.Commentf("lat %v", lat))
	c.Assert(math.Abs(lng+122.41933333) < 1e-5, qt.IsTrue, qt.Commentf("lng %v", lng))

	dt, err := x.DateTime()
	c.Assert(err, qt.IsNil)
	c.Assert(dt.Format(exifTimeLayout), qt.Equals, "2024:03:01 10:20:30")
}

func TestWriteTreeDropsUnencodable(t *testing.T) {
	c := qt.New(t)

	var warnings []string
	tree := Tree{
		SectionImage: {"Make": "FUJIFILM", "Orientation": int64(70000)},
		SectionPhoto: {"NotATag": "x"},
	}
	out, err := WriteTree(newTestJPEG(c, 8), tree, nil, EncodeOptions{Warnf: func(format string, args ...any) {
		warnings = append(warnings, format)
	}})
	c.Assert(err, qt.IsNil)
	c.Assert(warnings, qt.HasLen, 2)

	res, err := DecodeBytes(out, Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Tree[SectionImage]["Make"], qt.Equals, "FUJIFILM")
	_, ok := res.Tree[SectionImage]["Orientation"]
	c.Assert(ok, qt.IsFalse)
}

func TestWriteEXIF(t *testing.T) {
	c := qt.New(t)

	img := newTestJPEG(c, 8)

	raw := NewRawTags()
	raw.Set(IFD0, 0x010f, "Leica")
	raw.Set(IFDExif, 0x829d, Rational{Num: 14, Den: 10})
	raw.Set(IFDExif, 0x9000, "0232")

	out, err := WriteEXIF(img, raw, EncodeOptions{})
	c.Assert(err, qt.IsNil)
	res, err := DecodeBytes(out, Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Tree[SectionImage]["Make"], qt.Equals, "Leica")
	c.Assert(res.Tree[SectionPhoto]["FNumber"], eq, 1.4)
	c.Assert(res.Tree[SectionPhoto]["ExifVersion"], qt.DeepEquals, []byte("0232"))

	// Replace.
	raw.Set(IFD0, 0x010f, "Ricoh")
	out, err = WriteEXIF(out, raw, EncodeOptions{})
	c.Assert(err, qt.IsNil)
	res, err = DecodeBytes(out, Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Tree[SectionImage]["Make"], qt.Equals, "Ricoh")

	// Remove.
	out, err = WriteEXIF(out, NewRawTags(), EncodeOptions{})
	c.Assert(err, qt.IsNil)
	_, err = DecodeBytes(out, Options{})
	c.Assert(err, qt.Equals, ErrNoExif)

	_, err = WriteEXIF([]byte("not a jpeg"), raw, EncodeOptions{})
	c.Assert(IsInvalidFormat(err), qt.IsTrue)
}

func TestEncodeEXIF(t *testing.T) {
	c := qt.New(t)

	raw := ToRawTags(newEncodeTestTree(), nil)
	b, err := EncodeEXIF(raw, EncodeOptions{})
	c.Assert(err, qt.IsNil)

	res, err := DecodeBytes(b, Options{ImageFormat: EXIF, Location: time.UTC})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Tree[SectionImage]["Model"], qt.Equals, "X-T4")

	back := ToRawTags(res.Tree, nil)
	v, _ := back.Get(IFDExif, 0x829d)
	c.Assert(v, qt.Equals, Rational{Num: 280000, Den: 100000})
	v, _ = back.Get(IFDGPS, 0x0001)
	c.Assert(v, qt.Equals, "N")
}

func TestTransfer(t *testing.T) {
	c := qt.New(t)

	thumb := newTestJPEG(c, 4)
	source, err := WriteTree(newTestJPEG(c, 16), newEncodeTestTree(), thumb, EncodeOptions{})
	c.Assert(err, qt.IsNil)
	target := newTestJPEG(c, 24)

	c.Run("Keep GPS", func(c *qt.C) {
		out, err := Transfer(source, target, TransferOptions{})
		c.Assert(err, qt.IsNil)
		res, err := DecodeBytes(out, Options{})
		c.Assert(err, qt.IsNil)
		c.Assert(res.Tree[SectionImage]["Make"], qt.Equals, "FUJIFILM")
		c.Assert(res.Thumbnail, qt.DeepEquals, thumb)
		_, _, ok := res.Tree.LatLong()
		c.Assert(ok, qt.IsTrue)

		decoded, err := jpeg.Decode(bytes.NewReader(out))
		c.Assert(err, qt.IsNil)
		c.Assert(decoded.Bounds().Dx(), qt.Equals, 24)
	})

	c.Run("Remove GPS", func(c *qt.C) {
		out, err := Transfer(source, target, TransferOptions{RemoveGPS: true})
		c.Assert(err, qt.IsNil)
		res, err := DecodeBytes(out, Options{})
		c.Assert(err, qt.IsNil)
		c.Assert(res.Tree[SectionPhoto]["FNumber"], eq, 2.8)
		_, ok := res.Tree[SectionGPS]
		c.Assert(ok, qt.IsFalse)
	})

	c.Run("Source without EXIF", func(c *qt.C) {
		_, err := Transfer(target, target, TransferOptions{})
		c.Assert(err, qt.ErrorIs, ErrNoExif)
	})
}

func TestStripGPS(t *testing.T) {
	c := qt.New(t)

	img, err := WriteTree(newTestJPEG(c, 16), newEncodeTestTree(), nil, EncodeOptions{})
	c.Assert(err, qt.IsNil)

	out, err := StripGPS(img, EncodeOptions{})
	c.Assert(err, qt.IsNil)

	res, err := DecodeBytes(out, Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Tree[SectionImage]["Model"], qt.Equals, "X-T4")
	_, _, ok := res.Tree.LatLong()
	c.Assert(ok, qt.IsFalse)
}

func TestEncodeTagBytes(t *testing.T) {
	c := qt.New(t)

	def := func(typ TagType) TagDef {
		return TagDef{Name: "Test", Type: typ}
	}
	order := binary.BigEndian

	for _, test := range []struct {
		typ  TagType
		v    any
		want []byte
	}{
		{TypeByte, []int64{2, 3, 0, 0}, []byte{2, 3, 0, 0}},
		{TypeShort, int64(6), []byte{0, 6}},
		{TypeShort, 6.0, []byte{0, 6}},
		{TypeLong, int64(1 << 20), []byte{0, 0x10, 0, 0}},
		{TypeSShort, []int64{-2, 3}, []byte{0xff, 0xfe, 0, 3}},
		{TypeSByte, int64(-1), []byte{0xff}},
		{TypeSLong, int64(-1), []byte{0xff, 0xff, 0xff, 0xff}},
		{TypeRational, Rational{Num: 1, Den: 2}, []byte{0, 0, 0, 1, 0, 0, 0, 2}},
		{TypeSRational, []Rational{{Num: -1, Den: 2}}, []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 2}},
		{TypeUndefined, "0232", []byte("0232")},
		{TypeUndefined, "é", []byte{0xe9}},
		{TypeASCII, "ab", []byte{'a', 'b', 0}},
		{TypeFloat, 1.0, []byte{0x3f, 0x80, 0, 0}},
	} {
		b, err := encodeTagBytes(def(test.typ), test.v, order)
		c.Assert(err, qt.IsNil, qt.Commentf("%s %v", test.typ, test.v))
		c.Assert(b, qt.DeepEquals, test.want, qt.Commentf("%s %v", test.typ, test.v))
	}

	for _, test := range []struct {
		typ  TagType
		v    any
		want string
	}{
		{TypeByte, int64(256), "256 out of BYTE range"},
		{TypeShort, int64(-1), "-1 out of SHORT range"},
		{TypeLong, int64(math.MaxUint32 + 1), "4294967296 out of LONG range"},
		{TypeSLong, int64(math.MaxInt32 + 1), "2147483648 out of SLONG range"},
		{TypeSByte, int64(200), "200 out of SBYTE range"},
		{TypeSShort, int64(-40000), "-40000 out of SSHORT range"},
		{TypeShort, 1.5, "1.5 is not an integer"},
		{TypeShort, "6", "expected integers, got string"},
		{TypeShort, []int64{}, "empty value"},
		{TypeRational, Rational{Num: -1, Den: 2}, "rational .* out of range"},
		{TypeRational, 2.5, "expected rationals, got float64"},
		{TypeUndefined, "世", ".*"},
		{TypeUndefined, "", "empty value"},
		{TypeUndefined, int64(1), "expected a byte string, got int64"},
		{TypeASCII, int64(1), "expected a string, got int64"},
	} {
		_, err := encodeTagBytes(def(test.typ), test.v, order)
		c.Assert(err, qt.ErrorMatches, test.want, qt.Commentf("%s %v", test.typ, test.v))
	}
}
