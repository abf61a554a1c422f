package protocol

import "errors"

// ParsePredict decodes a predict payload, the bytes that follow the command code.
func ParsePredict(payload []byte) (*InferenceRequest, error) {
	return parsePredict(NewReader(payload))
}

func parsePredict(r *Reader) (*InferenceRequest, error) {
	name, err := r.readField("model_name")
	if err != nil {
		return nil, err
	}
	req := &InferenceRequest{ModelName: name}
	if r.Len() == 0 {
		return req, nil
	}
	open, err := openList(r, "request_batch")
	if err != nil {
		return nil, err
	}
	if !open {
		return req, nil
	}
	batch, err := parseList(r, "request_id", parseRequestItem)
	if err != nil {
		return nil, err
	}
	req.RequestBatch = batch
	return req, nil
}

func parseRequestItem(r *Reader, lead Length) (RequestItem, error) {
	id, err := leadField(r, "request_id", lead)
	if err != nil {
		return RequestItem{}, err
	}
	contentType, err := r.readField("content_type")
	if err != nil {
		return RequestItem{}, err
	}
	item := RequestItem{RequestID: id, ContentType: contentType}
	open, err := openList(r, "model_inputs")
	if err != nil {
		return RequestItem{}, err
	}
	if !open {
		return item, nil
	}
	inputs, err := parseList(r, "input_name", func(r *Reader, lead Length) (ModelInput, error) {
		return parseModelInput(r, lead, contentType)
	})
	if err != nil {
		return RequestItem{}, err
	}
	item.ModelInputs = inputs
	return item, nil
}

func parseModelInput(r *Reader, lead Length, fallback string) (ModelInput, error) {
	name, err := leadField(r, "input_name", lead)
	if err != nil {
		return ModelInput{}, err
	}
	contentType, err := r.readField("input_content_type")
	if err != nil {
		return ModelInput{}, err
	}
	at := r.Offset()
	n, err := r.readCount("input_value")
	if err != nil {
		return ModelInput{}, err
	}
	raw, err := r.take("input_value", n)
	if err != nil {
		return ModelInput{}, err
	}
	value, err := DecodeValue(ResolveContentType(contentType, fallback), raw)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Field = "input_value"
			de.Offset = at
		}
		return ModelInput{}, err
	}
	return ModelInput{Name: name, ContentType: contentType, Value: value}, nil
}
