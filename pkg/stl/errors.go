package stl

import (
	"errors"
	"fmt"
)

// STL decoding errors.
var (
	ErrMalformedFile = errors.New("malformed STL file")
	ErrTruncated     = errors.New("truncated STL data")
	ErrInvalidNumber = errors.New("invalid number in ASCII STL")
)

// MalformedFileError describes why a buffer could not be decoded
type MalformedFileError struct {
	Format Format
	Reason string
	Err    error
}

func (e *MalformedFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s STL: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s STL: %s", e.Format, e.Reason)
}

// Is makes every MalformedFileError match ErrMalformedFile
func (e *MalformedFileError) Is(target error) bool {
	return target == ErrMalformedFile
}

func (e *MalformedFileError) Unwrap() error {
	return e.Err
}

func malformed(format Format, err error, reason string, args ...any) error {
	return &MalformedFileError{Format: format, Reason: fmt.Sprintf(reason, args...), Err: err}
}
