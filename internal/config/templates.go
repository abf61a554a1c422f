package config

import (
	"fmt"
	"os"
)

func Template() string {
	return workerTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(workerTemplate), 0o600)
}

const workerTemplate = `name = "modelwire"

# frames above this size are rejected before decoding
max_frame_bytes = 8388608

# bytes after the payload other than the "\r\n" trailer
allow_trailing_bytes = true

log_level = "info"
metrics_enabled = true
`
