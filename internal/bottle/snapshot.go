package bottle

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ExportFilename is the file name offered for downloaded snapshots.
const ExportFilename = "bottles-export.json"

var validate = validator.New()

// snapshotDoc is the import shape. Both members must be present; anything
// else in the document is ignored.
type snapshotDoc struct {
	Bottles  *[]Bottle `json:"bottles" validate:"required"`
	Settings *Settings `json:"settings" validate:"required"`
}

// Export serializes the collection as pretty-printed JSON. HTML characters
// are not escaped and no trailing newline is written.
func (c Collection) Export() ([]byte, error) {
	if c.Bottles == nil {
		c.Bottles = []Bottle{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Import parses a snapshot. The returned collection is taken as-is: ids are
// not checked for uniqueness and settings are not clamped.
func Import(data []byte) (Collection, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Collection{}, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := validate.Struct(doc); err != nil {
		return Collection{}, fmt.Errorf("snapshot shape: %w", err)
	}
	return Collection{Bottles: *doc.Bottles, Settings: *doc.Settings}, nil
}
