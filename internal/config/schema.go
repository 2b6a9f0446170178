package config

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema is the structural contract for the on-disk document.
// Provider entries allow additional properties so documents written by
// newer versions still load.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "providers": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "type": {"type": "string"},
          "org": {"type": "string"},
          "project_id": {"type": "string"},
          "server": {"type": "string"},
          "private_key_file": {"type": "string"},
          "organization_root_folder": {"type": "string"}
        },
        "required": ["type"]
      }
    },
    "current_provider": {"type": ["string", "null"]}
  },
  "required": ["providers"]
}`

// validateDocument checks raw JSON against the document schema.
func validateDocument(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return err
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("schema violation: %s", errs[0])
		}
		return fmt.Errorf("schema violation")
	}
	return nil
}
