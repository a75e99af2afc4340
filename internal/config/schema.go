package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed talesim.schema.json
	projectSchemaJSON string
	//go:embed vocabulary.schema.json
	vocabularySchemaJSON string

	projectSchema    = jsonschema.MustCompileString("talesim.schema.json", projectSchemaJSON)
	vocabularySchema = jsonschema.MustCompileString("vocabulary.schema.json", vocabularySchemaJSON)
)

// validateDocument checks a YAML document against schema. The document is
// round-tripped through JSON so the validator sees JSON types only.
func validateDocument(schema *jsonschema.Schema, data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("converting to json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
