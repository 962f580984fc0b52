package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const CacheFile = ".cda_cache.toml"

// Settings are the last values entered by the operator. They prefill the
// setup form of the next session.
type Settings struct {
	Participant Participant `toml:"participant"`
	Preset      int         `toml:"preset"`
	Visit       int         `toml:"visit"`
	TrialsFile  string      `toml:"trials_file"`
	Mode        string      `toml:"mode"`
	DLPDevice   string      `toml:"dlp_device"`
	Language    string      `toml:"language"`
}

func SaveCache(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// LoadCache reads the settings cache. A missing file yields zero settings.
func LoadCache(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read cache: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse cache %s: %w", path, err)
	}
	return s, nil
}
