// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"maps"
	"math"
	"slices"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

var ifdIdentities = map[IFD]*exifcommon.IfdIdentity{
	IFD0:       exifcommon.IfdStandardIfdIdentity,
	IFDExif:    exifcommon.IfdExifStandardIfdIdentity,
	IFDGPS:     exifcommon.IfdGpsInfoStandardIfdIdentity,
	IFDInterop: exifcommon.IfdExifIopStandardIfdIdentity,
	IFD1:       exifcommon.Ifd1StandardIfdIdentity,
}

// EncodeOptions configures the encoder.
type EncodeOptions struct {
	// Warnf is called for tags that are dropped because they cannot be encoded.
	Warnf func(string, ...any)
}

func (o *EncodeOptions) init() {
	if o.Warnf == nil {
		o.Warnf = func(string, ...any) {}
	}
}

// TransferOptions configures Transfer.
type TransferOptions struct {
	// RemoveGPS drops the GPS IFD before writing.
	RemoveGPS bool

	// Warnf is called for recoverable problems while decoding and encoding.
	Warnf func(string, ...any)
}

// EncodeEXIF encodes raw as an EXIF block: a TIFF header followed by the IFDs.
func EncodeEXIF(raw RawTags, opts EncodeOptions) ([]byte, error) {
	opts.init()
	ib, err := buildIFDs(raw, opts)
	if err != nil {
		return nil, err
	}
	b, err := exif.NewIfdByteEncoder().EncodeToExif(ib)
	if err != nil {
		return nil, fmt.Errorf("encode EXIF: %w", err)
	}
	return b, nil
}

// WriteEXIF replaces the EXIF segment of a JPEG image with raw, inserting
// one if the image has none. If raw is empty, the EXIF segment is removed.
func WriteEXIF(jpeg []byte, raw RawTags, opts EncodeOptions) ([]byte, error) {
	opts.init()
	if !bytes.HasPrefix(jpeg, []byte{0xff, 0xd8}) {
		return nil, newInvalidFormatErrorf("missing JPEG SOI marker")
	}
	intfc, err := jpegstructure.NewJpegMediaParser().ParseBytes(jpeg)
	if err != nil {
		return nil, newInvalidFormatErrorf("parse JPEG: %v", err)
	}
	sl := intfc.(*jpegstructure.SegmentList)

	if raw.Len() == 0 && len(raw.Thumbnail) == 0 {
		if _, err := sl.DropExif(); err != nil {
			return nil, fmt.Errorf("drop EXIF: %w", err)
		}
	} else {
		ib, err := buildIFDs(raw, opts)
		if err != nil {
			return nil, err
		}
		if err := sl.SetExif(ib); err != nil {
			return nil, fmt.Errorf("set EXIF: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := sl.Write(&buf); err != nil {
		return nil, fmt.Errorf("write JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTree converts tree to RawTags and writes it into the JPEG image.
func WriteTree(jpeg []byte, tree Tree, thumbnail []byte, opts EncodeOptions) ([]byte, error) {
	opts.init()
	raw := Converter{Warnf: opts.Warnf}.ToRawTags(tree, thumbnail)
	return WriteEXIF(jpeg, raw, opts)
}

// Transfer copies the EXIF metadata of source, including its thumbnail,
// into target and returns the new target image.
func Transfer(source, target []byte, opts TransferOptions) ([]byte, error) {
	res, err := DecodeBytes(source, Options{ImageFormat: JPEG, Warnf: opts.Warnf, SkipRecipe: true})
	if err != nil {
		return nil, fmt.Errorf("read source metadata: %w", err)
	}
	raw := Converter{Warnf: opts.Warnf}.ToRawTags(res.Tree, res.Thumbnail)
	if opts.RemoveGPS {
		raw = raw.WithoutIFD(IFDGPS)
	}
	return WriteEXIF(target, raw, EncodeOptions{Warnf: opts.Warnf})
}

// StripGPS removes the GPS IFD from a JPEG image and keeps all other metadata.
func StripGPS(jpeg []byte, opts EncodeOptions) ([]byte, error) {
	return Transfer(jpeg, jpeg, TransferOptions{RemoveGPS: true, Warnf: opts.Warnf})
}

// buildIFDs builds the IFD tree of raw. Tags are added in ascending code order.
func buildIFDs(raw RawTags, opts EncodeOptions) (*exif.IfdBuilder, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("create IFD mapping: %w", err)
	}
	ti := exif.NewTagIndex()
	if err := exif.LoadStandardTags(ti); err != nil {
		return nil, fmt.Errorf("load standard tags: %w", err)
	}

	byteOrder := exifcommon.EncodeDefaultByteOrder
	rootIb := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, byteOrder)

	for _, ifd := range ifdOrder {
		tags := raw.IFDs[ifd]
		withThumbnail := ifd == IFD1 && len(raw.Thumbnail) > 0
		if len(tags) == 0 && !withThumbnail {
			continue
		}

		ii := ifdIdentities[ifd]
		ib := rootIb
		if ifd != IFD0 {
			ib, err = exif.GetOrCreateIbFromRootIb(rootIb, ii.String())
			if err != nil {
				return nil, fmt.Errorf("create %s: %w", ifd, err)
			}
		}

		for _, code := range slices.Sorted(maps.Keys(tags)) {
			def, ok := LookupTag(ifd, code)
			if !ok {
				opts.Warnf("exifedit: dropping unknown tag %s/0x%04x", ifd, code)
				continue
			}
			if def.Structural {
				continue
			}
			b, err := encodeTagBytes(def, tags[code], byteOrder)
			if err != nil {
				opts.Warnf("exifedit: dropping %s: %v", def.Name, err)
				continue
			}
			bt := exif.NewBuilderTag(ii.UnindexedString(), code, exifcommon.TagTypePrimitive(def.Type), exif.NewIfdBuilderTagValueFromBytes(b), byteOrder)
			if err := ib.Add(bt); err != nil {
				return nil, fmt.Errorf("add %s: %w", def.Name, err)
			}
		}

		if withThumbnail {
			if err := ib.SetThumbnail(raw.Thumbnail); err != nil {
				return nil, fmt.Errorf("set thumbnail: %w", err)
			}
		}
	}

	return rootIb, nil
}

// encodeTagBytes encodes an encoded RawTags value as bytes of the tag's type.
func encodeTagBytes(def TagDef, v any, order binary.ByteOrder) ([]byte, error) {
	ve := exifcommon.NewValueEncoder(order)
	encode := func(value any) ([]byte, error) {
		ed, err := ve.Encode(value)
		if err != nil {
			return nil, err
		}
		return ed.Encoded, nil
	}

	switch def.Type {
	case TypeASCII:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", v)
		}
		return encode(s)
	case TypeUndefined:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a byte string, got %T", v)
		}
		b, err := latin1Bytes(s)
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("empty value")
		}
		return b, nil
	case TypeRational:
		rats, err := rationals(v)
		if err != nil {
			return nil, err
		}
		out := make([]exifcommon.Rational, len(rats))
		for i, r := range rats {
			if r.Num < 0 || r.Den < 0 || r.Num > math.MaxUint32 || r.Den > math.MaxUint32 {
				return nil, fmt.Errorf("rational %s out of range", r)
			}
			out[i] = exifcommon.Rational{Numerator: uint32(r.Num), Denominator: uint32(r.Den)}
		}
		return encode(out)
	case TypeSRational:
		rats, err := rationals(v)
		if err != nil {
			return nil, err
		}
		out := make([]exifcommon.SignedRational, len(rats))
		for i, r := range rats {
			if r.Num < math.MinInt32 || r.Num > math.MaxInt32 || r.Den < math.MinInt32 || r.Den > math.MaxInt32 {
				return nil, fmt.Errorf("rational %s out of range", r)
			}
			out[i] = exifcommon.SignedRational{Numerator: int32(r.Num), Denominator: int32(r.Den)}
		}
		return encode(out)
	case TypeFloat, TypeDouble:
		fs, err := floats(v)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		for _, f := range fs {
			if def.Type == TypeFloat {
				binary.Write(&buf, order, math.Float32bits(float32(f)))
			} else {
				binary.Write(&buf, order, math.Float64bits(f))
			}
		}
		return buf.Bytes(), nil
	}

	ints, err := integers(v)
	if err != nil {
		return nil, err
	}
	if len(ints) == 0 {
		return nil, fmt.Errorf("empty value")
	}

	switch def.Type {
	case TypeByte:
		out := make([]byte, len(ints))
		for i, n := range ints {
			if n < 0 || n > math.MaxUint8 {
				return nil, fmt.Errorf("%d out of BYTE range", n)
			}
			out[i] = byte(n)
		}
		return encode(out)
	case TypeShort:
		out := make([]uint16, len(ints))
		for i, n := range ints {
			if n < 0 || n > math.MaxUint16 {
				return nil, fmt.Errorf("%d out of SHORT range", n)
			}
			out[i] = uint16(n)
		}
		return encode(out)
	case TypeLong:
		out := make([]uint32, len(ints))
		for i, n := range ints {
			if n < 0 || n > math.MaxUint32 {
				return nil, fmt.Errorf("%d out of LONG range", n)
			}
			out[i] = uint32(n)
		}
		return encode(out)
	case TypeSLong:
		out := make([]int32, len(ints))
		for i, n := range ints {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, fmt.Errorf("%d out of SLONG range", n)
			}
			out[i] = int32(n)
		}
		return encode(out)
	case TypeSByte, TypeSShort:
		var buf bytes.Buffer
		for _, n := range ints {
			if def.Type == TypeSByte {
				if n < math.MinInt8 || n > math.MaxInt8 {
					return nil, fmt.Errorf("%d out of SBYTE range", n)
				}
				buf.WriteByte(byte(int8(n)))
				continue
			}
			if n < math.MinInt16 || n > math.MaxInt16 {
				return nil, fmt.Errorf("%d out of SSHORT range", n)
			}
			binary.Write(&buf, order, int16(n))
		}
		return buf.Bytes(), nil
	}

	return nil, fmt.Errorf("unsupported type %s", def.Type)
}

func rationals(v any) ([]Rational, error) {
	switch vv := v.(type) {
	case Rational:
		return []Rational{vv}, nil
	case []Rational:
		if len(vv) == 0 {
			return nil, fmt.Errorf("empty value")
		}
		return vv, nil
	}
	return nil, fmt.Errorf("expected rationals, got %T", v)
}

func floats(v any) ([]float64, error) {
	if f, ok := toFloat64Slice(v); ok && len(f) > 0 {
		return f, nil
	}
	if isNumber(v) {
		return []float64{toFloat64(v)}, nil
	}
	return nil, fmt.Errorf("expected numbers, got %T", v)
}

// integers accepts integral numbers in any of the encoded forms.
func integers(v any) ([]int64, error) {
	check := func(f float64) (int64, error) {
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%v is not an integer", f)
		}
		return int64(f), nil
	}
	if isNumber(v) {
		n, err := check(toFloat64(v))
		if err != nil {
			return nil, err
		}
		return []int64{n}, nil
	}
	if ints, ok := v.([]int64); ok {
		return ints, nil
	}
	fs, ok := toFloat64Slice(v)
	if !ok {
		return nil, fmt.Errorf("expected integers, got %T", v)
	}
	out := make([]int64, len(fs))
	for i, f := range fs {
		n, err := check(f)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
