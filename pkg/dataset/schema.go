package dataset

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed dataset.schema.json
var schemaJSON []byte

// ErrSchema marks a document that does not match the dataset schema.
var ErrSchema = errors.New("dataset does not match schema")

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// ValidateBytes checks a decompressed dataset document against the
// embedded JSON schema. Every violation is listed in the error.
func ValidateBytes(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}
