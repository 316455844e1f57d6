package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaURL = "smeltingmetal.schema.json"

const schemaText = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "namespace": {"type": "string", "pattern": "^[a-z0-9_.-]*$"},
    "metals": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "metal_definitions": {"$ref": "#/$defs/strings"},
        "gem_definitions": {"$ref": "#/$defs/strings"},
        "item_result_definitions": {"$ref": "#/$defs/strings"},
        "block_result_definitions": {"$ref": "#/$defs/strings"},
        "blacklist_keywords": {"$ref": "#/$defs/strings"},
        "block_keywords": {"$ref": "#/$defs/strings"},
        "intermediate_keywords": {"$ref": "#/$defs/strings"}
      }
    },
    "features": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enable_melting_recipe_replacement": {"type": "boolean"},
        "enable_gem_recipe_replacement": {"type": "boolean"},
        "enable_crushing_recipe_replacement": {"type": "boolean"},
        "enable_nugget_recipe_replacement": {"type": "boolean"},
        "enable_result_recipe_removal": {"type": "boolean"},
        "enable_mold_recipes": {"type": "boolean"}
      }
    },
    "integrations": {"$ref": "#/$defs/strings"}
  },
  "$defs": {
    "strings": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, schemaText)
	})
	return schema, schemaErr
}

// validateDocument checks a raw yaml document against the config schema.
// An empty document is valid.
func validateDocument(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// The validator wants plain JSON values.
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return s.Validate(v)
}
