package protocol

import "strings"

// ContentKind is the decode path picked for a model input value.
type ContentKind uint8

const (
	ContentUnknown ContentKind = iota
	ContentJSON
	ContentJPEG
)

func (k ContentKind) String() string {
	switch k {
	case ContentJSON:
		return "json"
	case ContentJPEG:
		return "jpeg"
	default:
		return "unknown"
	}
}

// ClassifyContentType matches case-insensitively on the "json" and "jpeg"
// substrings, in that order.
func ClassifyContentType(contentType string) ContentKind {
	lower := strings.ToLower(contentType)
	switch {
	case strings.Contains(lower, "json"):
		return ContentJSON
	case strings.Contains(lower, "jpeg"):
		return ContentJPEG
	default:
		return ContentUnknown
	}
}

// ResolveContentType returns the input's own content type when it declares
// one, otherwise the content type of the enclosing request item.
func ResolveContentType(input, fallback string) string {
	if input != "" {
		return input
	}
	return fallback
}

// DecodeValue turns raw value bytes into text or binary per contentType.
// An empty payload decodes to the zero Value whatever the content type.
// Text values keep their bytes as-is; invalid UTF-8 is not an error.
func DecodeValue(contentType string, raw []byte) (Value, error) {
	if len(raw) == 0 {
		return Value{}, nil
	}
	switch ClassifyContentType(contentType) {
	case ContentJSON:
		return TextValue(string(raw)), nil
	case ContentJPEG:
		return BinaryValue(raw), nil
	default:
		return Value{}, &DecodeError{Kind: KindUnknownContentType, ContentType: contentType}
	}
}
