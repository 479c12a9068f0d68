package bottle

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed defaults.json
var bundledDefaults []byte

// Defaults is the dataset a deployment starts from. Reset restores levels
// from it.
type Defaults struct {
	Collection  Collection
	EditEnabled bool
}

// ParseDefaults reads a defaults document: a snapshot plus an optional
// top-level "editMode". Editing is enabled unless editMode is exactly false.
func ParseDefaults(data []byte) (Defaults, error) {
	c, err := Import(data)
	if err != nil {
		return Defaults{}, err
	}

	var flag struct {
		EditMode json.RawMessage `json:"editMode"`
	}
	if err := json.Unmarshal(data, &flag); err != nil {
		return Defaults{}, fmt.Errorf("parse defaults: %w", err)
	}

	return Defaults{
		Collection:  c,
		EditEnabled: !bytes.Equal(bytes.TrimSpace(flag.EditMode), []byte("false")),
	}, nil
}

// BundledDefaults returns the defaults compiled into the binary.
func BundledDefaults() Defaults {
	d, err := ParseDefaults(bundledDefaults)
	if err != nil {
		panic(fmt.Sprintf("bundled defaults are invalid: %v", err))
	}
	return d
}

// LoadDefaults reads defaults from path, or returns the bundled defaults
// when path is empty.
func LoadDefaults(path string) (Defaults, error) {
	if path == "" {
		return BundledDefaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("read defaults: %w", err)
	}
	d, err := ParseDefaults(data)
	if err != nil {
		return Defaults{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
