// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// ImageFormat is the format of the input to Decode.
type ImageFormat int

const (
	// ImageFormatAuto signals that the format should be detected from the first bytes.
	ImageFormatAuto ImageFormat = iota
	// JPEG is a JPEG image with an APP1 EXIF segment.
	JPEG
	// EXIF is a bare EXIF block: a TIFF header and its IFDs, optionally prefixed with "Exif\0\0".
	EXIF
)

func (f ImageFormat) String() string {
	switch f {
	case ImageFormatAuto:
		return "ImageFormatAuto"
	case JPEG:
		return "JPEG"
	case EXIF:
		return "EXIF"
	default:
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
}

// Options contains the options for the Decode function.
type Options struct {
	// The Reader (typically a *os.File) to read image metadata from.
	R io.ReadSeeker

	// The image format in R.
	ImageFormat ImageFormat

	// Location is used for the date-time tags, which carry no time zone.
	// Defaults to time.Local.
	Location *time.Location

	// If set, the Fujifilm film recipe is not decoded from the maker note.
	SkipRecipe bool

	// Warnf is called for recoverable problems, e.g. dropped tags.
	// Defaults to a no-op.
	Warnf func(string, ...any)

	// LimitNumTags is the maximum number of tags to decode. Defaults to 5000.
	LimitNumTags uint32

	// LimitTagSize is the maximum size in bytes of a tag value. Defaults to 1 MiB.
	LimitTagSize uint32
}

func (o *Options) init() {
	const (
		defaultLimitNumTags = 5000
		defaultLimitTagSize = 1 << 20
	)
	if o.LimitNumTags == 0 {
		o.LimitNumTags = defaultLimitNumTags
	}
	if o.LimitTagSize == 0 {
		o.LimitTagSize = defaultLimitTagSize
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Warnf == nil {
		o.Warnf = func(string, ...any) {}
	}
}

// DecodeResult contains the result of a Decode operation.
type DecodeResult struct {
	// Tree is the parsed metadata tree.
	Tree Tree

	// Thumbnail is a copy of the JPEG thumbnail stored in IFD1, if any.
	Thumbnail []byte

	// MakerNote is the raw maker note, if any.
	MakerNote []byte

	// Recipe is the Fujifilm film recipe, if the maker note holds one.
	Recipe Recipe
}

// Decode reads the EXIF metadata from opts.R.
// If no EXIF is found, ErrNoExif is returned. On error no partial result is returned.
func Decode(opts Options) (result DecodeResult, err error) {
	var base *streamReader

	errFromRecover := func(r any) error {
		if r == errStop {
			if base != nil && base.streamErr() != nil {
				return base.streamErr()
			}
			return errShortRead
		}
		if errp, ok := r.(error); ok {
			return errp
		}
		return fmt.Errorf("unknown panic: %v", r)
	}

	defer func() {
		if r := recover(); r != nil {
			err = errFromRecover(r)
		}
		if err != nil {
			if isInvalidFormatErrorCandidate(err) {
				err = newInvalidFormatError(err)
			}
			result = DecodeResult{}
		}
	}()

	if opts.R == nil {
		return result, errors.New("no reader provided")
	}
	opts.init()

	format := opts.ImageFormat
	if format == ImageFormatAuto {
		if format, err = detectFormat(opts.R); err != nil {
			return result, err
		}
	}

	var exifDec *metaDecoderEXIF

	switch format {
	case JPEG:
		dec := &imageDecoderJPEG{
			streamReader: newStreamReader(opts.R, binary.BigEndian),
			opts:         opts,
		}
		base = dec.streamReader
		if err := dec.decode(); err != nil {
			return result, err
		}
		exifDec = dec.exif
	case EXIF:
		b, err := io.ReadAll(io.LimitReader(opts.R, maxBufSize+1))
		if err != nil {
			return result, err
		}
		if len(b) > maxBufSize {
			return result, newInvalidFormatErrorf("EXIF block exceeds max %d", maxBufSize)
		}
		b = bytes.TrimPrefix(b, exifHeader)
		if len(b) == 0 {
			return result, ErrNoExif
		}
		exifDec = newMetaDecoderEXIF(b, opts)
		if err := exifDec.decode(); err != nil {
			return result, err
		}
	default:
		return result, fmt.Errorf("unsupported image format %s", format)
	}

	result.Tree = exifDec.tree
	result.Thumbnail = exifDec.thumbnail

	if mn, ok := result.Tree[SectionPhoto]["MakerNote"].([]byte); ok {
		result.MakerNote = append([]byte(nil), mn...)
		if !opts.SkipRecipe && IsFujiMakerNote(mn) {
			recipe, err := DecodeFujiRecipe(mn)
			if err != nil {
				opts.Warnf("exifedit: failed to decode film recipe: %v", err)
			} else {
				result.Recipe = recipe
			}
		}
	}

	return result, nil
}

// DecodeBytes is a convenience wrapper around Decode for in-memory images.
func DecodeBytes(b []byte, opts Options) (DecodeResult, error) {
	opts.R = bytes.NewReader(b)
	return Decode(opts)
}

func detectFormat(r io.ReadSeeker) (ImageFormat, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	var head [4]byte
	n, err := io.ReadFull(r, head[:])
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}
	if err != nil && n < 2 {
		return 0, ErrNoExif
	}

	switch {
	case head[0] == 0xff && head[1] == 0xd8:
		return JPEG, nil
	case n == 4 && (bytes.Equal(head[:], exifHeader[:4]) ||
		bytes.Equal(head[:], []byte("II*\x00")) ||
		bytes.Equal(head[:], []byte("MM\x00*"))):
		return EXIF, nil
	default:
		return 0, newInvalidFormatErrorf("unknown image format")
	}
}
