package protocol

// parseList decodes a list terminated by EndOfList in a leading slot. item
// gets each element's leading slot already consumed from r. Every pass
// consumes at least the slot itself, so the loop ends at the marker or fails
// with KindTruncatedFrame at the end of the buffer.
func parseList[T any](r *Reader, field string, item func(r *Reader, lead Length) (T, error)) ([]T, error) {
	items := make([]T, 0)
	for {
		lead, err := r.ReadLength(field)
		if err != nil {
			return nil, err
		}
		if lead.Kind == LengthEndOfList {
			return items, nil
		}
		v, err := item(r, lead)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

// leadField reads the string announced by an element's leading slot.
// StartOfList cannot open an element.
func leadField(r *Reader, field string, lead Length) (string, error) {
	if lead.Kind != LengthCount {
		return "", &DecodeError{
			Kind:   KindMalformedLength,
			Field:  field,
			Offset: r.Offset() - int32Size,
			Length: lead.raw(),
		}
	}
	return r.ReadString(field, lead.N)
}

// openList consumes a marker slot and reports whether a nested list starts
// there. Counts and EndOfList mean no list follows; the slot is still consumed.
func openList(r *Reader, field string) (bool, error) {
	l, err := r.ReadLength(field)
	if err != nil {
		return false, err
	}
	return l.Kind == LengthStartOfList, nil
}
