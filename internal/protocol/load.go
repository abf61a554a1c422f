package protocol

// ParseLoad decodes a load payload, the bytes that follow the command code.
func ParseLoad(payload []byte) (*LoadRequest, error) {
	return parseLoad(NewReader(payload))
}

func parseLoad(r *Reader) (*LoadRequest, error) {
	name, err := r.readField("model_name")
	if err != nil {
		return nil, err
	}
	path, err := r.readField("model_path")
	if err != nil {
		return nil, err
	}
	batchSize, err := r.ReadInt32("batch_size")
	if err != nil {
		return nil, err
	}
	handler, err := r.readField("handler")
	if err != nil {
		return nil, err
	}
	gpu, err := r.ReadInt32("gpu_id")
	if err != nil {
		return nil, err
	}

	req := &LoadRequest{
		ModelName: name,
		ModelPath: path,
		BatchSize: batchSize,
		Handler:   handler,
	}
	if gpu > 0 {
		req.GPU = &gpu
	}
	return req, nil
}
