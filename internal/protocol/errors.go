package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMessage     = errors.New("protocol: invalid message")
	ErrUnknownCommand     = errors.New("protocol: unknown command")
	ErrUnknownContentType = errors.New("protocol: unknown content type")
	ErrTruncatedFrame     = errors.New("protocol: truncated frame")
	ErrMalformedLength    = errors.New("protocol: malformed length")

	ErrNilMessage    = errors.New("protocol: nil message")
	ErrFieldTooLarge = errors.New("protocol: field too large")
)

// ErrorKind is the decode failure taxonomy.
type ErrorKind uint8

const (
	KindInvalidMessage ErrorKind = iota + 1
	KindUnknownCommand
	KindUnknownContentType
	KindTruncatedFrame
	KindMalformedLength
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidMessage:
		return "invalid_message"
	case KindUnknownCommand:
		return "unknown_command"
	case KindUnknownContentType:
		return "unknown_content_type"
	case KindTruncatedFrame:
		return "truncated_frame"
	case KindMalformedLength:
		return "malformed_length"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidMessage:
		return ErrInvalidMessage
	case KindUnknownCommand:
		return ErrUnknownCommand
	case KindUnknownContentType:
		return ErrUnknownContentType
	case KindTruncatedFrame:
		return ErrTruncatedFrame
	case KindMalformedLength:
		return ErrMalformedLength
	default:
		return nil
	}
}

// ErrorClass tells the caller who is to blame for a failed frame.
type ErrorClass uint8

const (
	ClassNone ErrorClass = iota
	// ClassClient covers payloads the sender built wrong.
	ClassClient
	// ClassTransport covers frames damaged or cut short on the way in.
	ClassTransport
)

func (c ErrorClass) String() string {
	switch c {
	case ClassClient:
		return "client"
	case ClassTransport:
		return "transport"
	default:
		return "none"
	}
}

// Class maps a kind onto the party responsible for it.
func (k ErrorKind) Class() ErrorClass {
	switch k {
	case KindUnknownContentType, KindMalformedLength, KindUnknownCommand:
		return ClassClient
	case KindTruncatedFrame, KindInvalidMessage:
		return ClassTransport
	default:
		return ClassNone
	}
}

// DecodeError is returned for every frame that fails to decode.
// errors.Is matches it against the sentinel of its kind.
type DecodeError struct {
	Kind ErrorKind
	// Offset is the position in the frame of the field that failed.
	Offset      int
	Field       string
	Code        int32
	Length      int32
	Need        int
	ContentType string
}

func (e *DecodeError) Error() string {
	prefix := e.Kind.sentinel()
	if prefix == nil {
		prefix = errors.New("protocol: decode failed")
	}
	switch e.Kind {
	case KindUnknownCommand:
		return fmt.Sprintf("%v: code=0x%02x", prefix, e.Code)
	case KindInvalidMessage:
		return fmt.Sprintf("%v: bad preamble", prefix)
	case KindTruncatedFrame:
		return fmt.Sprintf("%v: field=%s offset=%d need=%d", prefix, e.fieldName(), e.Offset, e.Need)
	case KindMalformedLength:
		return fmt.Sprintf("%v: field=%s offset=%d length=%d", prefix, e.fieldName(), e.Offset, e.Length)
	case KindUnknownContentType:
		return fmt.Sprintf("%v: field=%s offset=%d content_type=%q", prefix, e.fieldName(), e.Offset, e.ContentType)
	default:
		return prefix.Error()
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Kind.sentinel()
}

func (e *DecodeError) fieldName() string {
	if e.Field == "" {
		return "-"
	}
	return e.Field
}

// ClassOf returns the class of a decode failure, or ClassNone for nil and
// errors that did not come from the decoder.
func ClassOf(err error) ErrorClass {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind.Class()
	}
	return ClassNone
}

// KindOf returns the kind of a decode failure and whether err was one.
func KindOf(err error) (ErrorKind, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}
