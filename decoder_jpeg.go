// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"bytes"
)

const (
	markerSOI  = 0xffd8
	markerEOI  = 0xffd9
	markerSOS  = 0xffda
	markerApp1 = 0xffe1
	markerTEM  = 0xff01
	markerRST0 = 0xffd0
	markerRST7 = 0xffd7
)

type imageDecoderJPEG struct {
	*streamReader
	opts Options

	exif *metaDecoderEXIF
}

// decode scans the JPEG markers for the first APP1 segment holding EXIF.
func (e *imageDecoderJPEG) decode() error {
	soi, err := e.read2E()
	if err != nil || soi != markerSOI {
		return newInvalidFormatErrorf("missing JPEG SOI marker")
	}

	for {
		marker, err := e.read2E()
		if err != nil {
			return ErrNoExif
		}

		if marker == 0 || marker == 0xffff {
			// Padding.
			continue
		}

		if marker>>8 != 0xff {
			return newInvalidFormatErrorf("invalid JPEG marker 0x%04x", marker)
		}

		if marker == markerSOS || marker == markerEOI {
			// Start of scan. EXIF must come before it.
			return ErrNoExif
		}

		if marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7) {
			// Stand-alone markers without a length.
			continue
		}

		// Read the 16-bit length of the segment. The value includes the 2 bytes for the
		// length itself, so we subtract 2 to get the number of remaining bytes.
		length, err := e.read2E()
		if err != nil {
			return ErrNoExif
		}
		if length < 2 {
			return newInvalidFormatErrorf("invalid segment length %d", length)
		}
		length -= 2

		if marker == markerApp1 {
			found, err := e.handleAPP1(int64(length))
			if err != nil {
				return err
			}
			if found {
				return nil
			}
			continue
		}

		e.skip(int64(length))
	}
}

// handleAPP1 decodes the segment if it holds EXIF. Other APP1 payloads,
// such as XMP, are skipped.
func (e *imageDecoderJPEG) handleAPP1(length int64) (bool, error) {
	br, err := e.bufferedBytes(length)
	if err != nil {
		return false, newInvalidFormatErrorf("read APP1 segment: %v", err)
	}
	defer putBytesAndReader(br)

	if !bytes.HasPrefix(br.b, exifHeader) {
		return false, nil
	}

	e.exif = newMetaDecoderEXIF(br.b[len(exifHeader):], e.opts)
	return true, e.exif.decode()
}
