// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"time"
)

const (
	byteOrderBigEndian    = 0x4d4d
	byteOrderLittleEndian = 0x4949
	tiffMagic             = 42

	tagThumbnailOffset = 0x0201
	tagThumbnailLength = 0x0202
)

// exifHeader prefixes the TIFF block in a JPEG APP1 segment.
var exifHeader = []byte("Exif\x00\x00")

// IFD pointer tags and the IFD they point to.
var exifIFDPointers = map[IFD]map[uint16]IFD{
	IFD0:    {0x8769: IFDExif, 0x8825: IFDGPS},
	IFDExif: {0xa005: IFDInterop},
}

func newMetaDecoderEXIF(data []byte, opts Options) *metaDecoderEXIF {
	return &metaDecoderEXIF{
		streamReader: newStreamReader(bytes.NewReader(data), binary.BigEndian),
		data:         data,
		opts:         opts,
		tree:         Tree{},
		visited:      map[uint32]bool{},
	}
}

// metaDecoderEXIF walks the IFDs of a TIFF block.
// All offsets are relative to the start of data.
type metaDecoderEXIF struct {
	*streamReader
	data []byte
	opts Options

	tree     Tree
	visited  map[uint32]bool
	tagCount uint32

	thumbnailOffset uint32
	thumbnailLength uint32
	thumbnail       []byte
}

func (e *metaDecoderEXIF) decode() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if r != errStop {
				panic(r)
			}
			err = e.readErr
			if err == nil || err == io.EOF {
				err = errShortRead
			}
			err = newInvalidFormatError(err)
		}
	}()

	if len(e.data) < 8 {
		return newInvalidFormatErrorf("EXIF block too short: %d bytes", len(e.data))
	}

	switch e.read2() {
	case byteOrderBigEndian:
		e.byteOrder = binary.BigEndian
	case byteOrderLittleEndian:
		e.byteOrder = binary.LittleEndian
	default:
		return newInvalidFormatErrorf("invalid byte order marker")
	}

	if magic := e.read2(); magic != tiffMagic {
		return newInvalidFormatErrorf("invalid TIFF magic %d", magic)
	}

	next, err := e.decodeIFD(IFD0, e.read4())
	if err == ErrStopWalking {
		return nil
	}
	if err != nil {
		return err
	}

	if next != 0 {
		if _, err := e.decodeIFD(IFD1, next); err != nil {
			if err == ErrStopWalking {
				return nil
			}
			if !IsInvalidFormat(err) {
				return err
			}
			e.opts.Warnf("exifedit: skipping IFD1: %v", err)
		}
	}

	e.extractThumbnail()

	return nil
}

// decodeIFD decodes the IFD at offset into its tree section and returns
// the offset of the next IFD in the chain.
func (e *metaDecoderEXIF) decodeIFD(ifd IFD, offset uint32) (uint32, error) {
	if offset < 8 || int64(offset)+2 > int64(len(e.data)) {
		return 0, newInvalidFormatErrorf("%s offset %d out of range", ifd, offset)
	}
	if e.visited[offset] {
		e.opts.Warnf("exifedit: %s at offset %d already visited, skipping", ifd, offset)
		return 0, nil
	}
	e.visited[offset] = true

	e.seek(int64(offset))
	numTags := e.read2()
	end := int64(offset) + 2 + int64(numTags)*12
	if end > int64(len(e.data)) {
		return 0, newInvalidFormatErrorf("%s with %d tags overflows the EXIF block", ifd, numTags)
	}

	section := ifd.Section()
	fields, ok := e.tree[section]
	if !ok {
		fields = Fields{}
		e.tree[section] = fields
	}

	for range numTags {
		if err := e.decodeTag(ifd, fields); err != nil {
			return 0, err
		}
	}

	if end+4 > int64(len(e.data)) {
		return 0, nil
	}
	return e.read4(), nil
}

func (e *metaDecoderEXIF) decodeTag(ifd IFD, fields Fields) error {
	tagID := e.read2()
	typ := TagType(e.read2())
	count := e.read4()
	valuePos := e.pos()
	valueOrOffset := e.read4()

	e.tagCount++
	if e.tagCount > e.opts.LimitNumTags {
		e.opts.Warnf("exifedit: tag limit %d reached", e.opts.LimitNumTags)
		return ErrStopWalking
	}

	if child, ok := exifIFDPointers[ifd][tagID]; ok {
		return e.preservePos(func() error {
			_, err := e.decodeIFD(child, valueOrOffset)
			if err != nil && IsInvalidFormat(err) {
				e.opts.Warnf("exifedit: skipping %s: %v", child, err)
				return nil
			}
			return err
		})
	}

	if ifd == IFD1 {
		switch tagID {
		case tagThumbnailOffset:
			e.thumbnailOffset = valueOrOffset
		case tagThumbnailLength:
			e.thumbnailLength = valueOrOffset
		}
	}

	def, known := LookupTag(ifd, tagID)
	if known && def.Structural {
		return nil
	}
	name := TagName(ifd, tagID)

	size, ok := tagTypeSize[typ]
	if !ok {
		e.opts.Warnf("exifedit: %s: unknown type %d", name, typ)
		return nil
	}
	valLen := uint64(size) * uint64(count)
	if valLen > uint64(e.opts.LimitTagSize) {
		e.opts.Warnf("exifedit: %s: value of %d bytes exceeds limit %d", name, valLen, e.opts.LimitTagSize)
		return nil
	}

	start := uint64(valuePos)
	if valLen > 4 {
		start = uint64(valueOrOffset)
	}
	if start+valLen > uint64(len(e.data)) {
		e.opts.Warnf("exifedit: %s: value out of range", name)
		return nil
	}

	v := e.convertValues(name, typ, count, e.data[start:start+valLen])
	if dateTimeTags[name] {
		if s, ok := v.(string); ok {
			if t, err := time.ParseInLocation(exifTimeLayout, s, e.opts.Location); err == nil {
				v = t
			} else {
				e.opts.Warnf("exifedit: %s: invalid date %q", name, s)
			}
		}
	}
	fields[name] = v

	return nil
}

// convertValues converts the raw bytes of a tag to its tree value.
// Single values are returned as scalars, multiple values as slices.
func (e *metaDecoderEXIF) convertValues(name string, typ TagType, count uint32, b []byte) any {
	switch typ {
	case TypeASCII:
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
		return string(b)
	case TypeUndefined:
		return append([]byte(nil), b...)
	}

	r := bytes.NewReader(b)
	if typ.IsFloat() {
		vals := make([]float64, count)
		for i := range vals {
			vals[i] = e.convertFloat(name, typ, r)
		}
		if count == 1 {
			return vals[0]
		}
		return vals
	}

	vals := make([]int64, count)
	for i := range vals {
		vals[i] = e.convertInt(typ, r)
	}
	if count == 1 {
		return vals[0]
	}
	return vals
}

func (e *metaDecoderEXIF) convertInt(typ TagType, r io.Reader) int64 {
	switch typ {
	case TypeByte:
		return int64(e.read1r(r))
	case TypeSByte:
		return int64(int8(e.read1r(r)))
	case TypeShort:
		return int64(e.read2r(r))
	case TypeSShort:
		return int64(e.read2sr(r))
	case TypeLong:
		return int64(e.read4r(r))
	case TypeSLong:
		return int64(e.read4sr(r))
	default:
		return 0
	}
}

func (e *metaDecoderEXIF) convertFloat(name string, typ TagType, r io.Reader) float64 {
	switch typ {
	case TypeRational:
		n, d := e.read4r(r), e.read4r(r)
		if d == 0 {
			e.opts.Warnf("exifedit: %s: zero denominator", name)
			return 0
		}
		return Rational{Num: int64(n), Den: int64(d)}.Float64()
	case TypeSRational:
		n, d := e.read4sr(r), e.read4sr(r)
		if d == 0 {
			e.opts.Warnf("exifedit: %s: zero denominator", name)
			return 0
		}
		return Rational{Num: int64(n), Den: int64(d)}.Float64()
	case TypeFloat:
		return float64(math.Float32frombits(e.read4r(r)))
	case TypeDouble:
		return math.Float64frombits(e.read8r(r))
	default:
		return 0
	}
}

func (e *metaDecoderEXIF) extractThumbnail() {
	if e.thumbnailLength == 0 {
		return
	}
	start, end := uint64(e.thumbnailOffset), uint64(e.thumbnailOffset)+uint64(e.thumbnailLength)
	if end > uint64(len(e.data)) {
		e.opts.Warnf("exifedit: thumbnail out of range")
		return
	}
	e.thumbnail = append([]byte(nil), e.data[start:end]...)
}
