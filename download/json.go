package download

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sorane/community-archiver/logger"
)

// WriteJSON stores a raw post payload as a pretty-printed JSON file. An
// existing file is left untouched, which makes the write safe to retry.
func WriteJSON(path string, content map[string]any) error {
	if _, err := os.Stat(path); err == nil {
		logger.Logger.Printf("[INFO] File already exists: %s", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	data, err := json.MarshalIndent(content, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
