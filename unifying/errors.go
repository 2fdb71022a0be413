package unifying

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInput = errors.New("missing input")
	ErrInvalidFrame = errors.New("invalid frame")
	ErrCipher       = errors.New("cipher error")
)

// CipherError carries the failure reported by the AES primitive.
type CipherError struct {
	Err error
}

func (e *CipherError) Error() string {
	return fmt.Sprintf("aes128 ecb encryption failed: %v", e.Err)
}

func (e *CipherError) Unwrap() error {
	return e.Err
}

func (e *CipherError) Is(target error) bool {
	return target == ErrCipher
}

type ErrorKind int

const (
	ERROR_KIND_NONE ErrorKind = iota
	ERROR_KIND_MISSING_INPUT
	ERROR_KIND_INVALID_FRAME
	ERROR_KIND_CIPHER
	ERROR_KIND_UNKNOWN
)

func (k ErrorKind) String() string {
	switch k {
	case ERROR_KIND_NONE:
		return "NONE"
	case ERROR_KIND_MISSING_INPUT:
		return "MISSING INPUT"
	case ERROR_KIND_INVALID_FRAME:
		return "INVALID FRAME"
	case ERROR_KIND_CIPHER:
		return "CIPHER ERROR"
	default:
		return "UNKNOWN"
	}
}

// KindOf maps an error returned by this package to its kind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ERROR_KIND_NONE
	case errors.Is(err, ErrMissingInput):
		return ERROR_KIND_MISSING_INPUT
	case errors.Is(err, ErrInvalidFrame):
		return ERROR_KIND_INVALID_FRAME
	case errors.Is(err, ErrCipher):
		return ERROR_KIND_CIPHER
	default:
		return ERROR_KIND_UNKNOWN
	}
}
