package codec

import (
	"errors"
	"fmt"
)

// Kind classifies a transform failure
type Kind int

const (
	// KindIO covers opening, reading, writing, closing or renaming files
	KindIO Kind = iota + 1
	// KindCodec means the input is not valid data for the selected codec
	KindCodec
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindCodec:
		return "codec"
	}
	return "unknown"
}

var (
	// ErrIO matches any *Error of KindIO via errors.Is
	ErrIO = errors.New("io failure")
	// ErrCodec matches any *Error of KindCodec via errors.Is
	ErrCodec = errors.New("codec failure")
	// ErrUnknownCodec is returned for a codec name outside gzip/lzma/bz2
	ErrUnknownCodec = errors.New("unknown codec")
)

// Error is returned by every failing Gateway call.
type Error struct {
	Kind  Kind
	Op    Op
	Codec Codec
	Path  string
	Err   error
}

func newError(kind Kind, op Op, c Codec, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Codec: c, Path: path, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Codec, e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers test the failure class with errors.Is(err, ErrIO).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == KindIO
	case ErrCodec:
		return e.Kind == KindCodec
	}
	return false
}
