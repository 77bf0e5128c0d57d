// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNoExif is returned by Decode when the input holds no EXIF segment.
	ErrNoExif = errors.New("no EXIF data found")

	// ErrStopWalking is a sentinel error to signal that the walk should stop.
	ErrStopWalking = errors.New("stop walking")

	// Internal error to signal that we should stop any further processing.
	errStop = errors.New("stop")

	errInvalidFormat = errors.New("invalid format")
)

// InvalidFormatError is used when the input is not valid JPEG or EXIF data.
type InvalidFormatError struct {
	Err error
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("%s: %v", errInvalidFormat, e.Err)
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// IsInvalidFormat reports whether err is an *InvalidFormatError.
func IsInvalidFormat(err error) bool {
	var e *InvalidFormatError
	return errors.As(err, &e)
}

func newInvalidFormatError(err error) error {
	if IsInvalidFormat(err) {
		return err
	}
	return &InvalidFormatError{Err: err}
}

func newInvalidFormatErrorf(format string, args ...any) error {
	return newInvalidFormatError(fmt.Errorf(format, args...))
}

// isInvalidFormatErrorCandidate reports whether err comes from reading
// truncated or malformed data.
func isInvalidFormatErrorCandidate(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, errShortRead) || errors.Is(err, errInvalidFormat)
}
