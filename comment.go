// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// UserComment character codes.
const (
	CharsetASCII     = "ASCII"
	CharsetUnicode   = "UNICODE"
	CharsetJIS       = "JIS"
	CharsetUndefined = ""
)

var userCommentCodes = []struct {
	charset string
	code    [8]byte
}{
	{CharsetASCII, [8]byte{'A', 'S', 'C', 'I', 'I'}},
	{CharsetUnicode, [8]byte{'U', 'N', 'I', 'C', 'O', 'D', 'E'}},
	{CharsetJIS, [8]byte{'J', 'I', 'S'}},
	{CharsetUndefined, [8]byte{}},
}

func userCommentEncoding(charset string) encoding.Encoding {
	switch charset {
	case CharsetUnicode:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case CharsetJIS:
		return japanese.ShiftJIS
	default:
		return nil
	}
}

// decodeUserComment splits b into its 8-byte character code and text.
func decodeUserComment(b []byte) (Comment, bool) {
	if len(b) < 8 {
		return Comment{}, false
	}
	head, payload := b[:8], b[8:]
	for _, uc := range userCommentCodes {
		if !bytes.Equal(head, uc.code[:]) {
			continue
		}
		if enc := userCommentEncoding(uc.charset); enc != nil {
			s, err := enc.NewDecoder().Bytes(payload)
			if err != nil {
				return Comment{}, false
			}
			payload = s
		}
		payload = trimTrailingNulls(payload)
		if hasControlChars(payload) {
			return Comment{}, false
		}
		return Comment{Charset: uc.charset, Comment: strings.TrimRight(string(payload), " ")}, true
	}
	return Comment{}, false
}

// encodeUserComment writes c with its 8-byte character code.
// An empty charset picks ASCII for ASCII text and UNICODE otherwise.
func encodeUserComment(c Comment) ([]byte, error) {
	charset := c.Charset
	if charset == CharsetUndefined {
		charset = CharsetASCII
		for i := 0; i < len(c.Comment); i++ {
			if c.Comment[i] >= 0x80 {
				charset = CharsetUnicode
				break
			}
		}
	}
	var code [8]byte
	found := false
	for _, uc := range userCommentCodes {
		if strings.EqualFold(uc.charset, charset) {
			code, charset, found = uc.code, uc.charset, true
			break
		}
	}
	if !found {
		code = [8]byte{}
		charset = CharsetUndefined
	}

	payload := []byte(c.Comment)
	if enc := userCommentEncoding(charset); enc != nil {
		// UTF-16 is written without a BOM.
		if charset == CharsetUnicode {
			enc = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		}
		b, err := enc.NewEncoder().Bytes(payload)
		if err != nil {
			return nil, err
		}
		payload = b
	}
	return append(code[:], payload...), nil
}
