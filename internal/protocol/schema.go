package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const eventSchemaText = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "protocol_version", "trigger"],
  "properties": {
    "type": {"const": "EVENT"},
    "protocol_version": {"type": "string"},
    "req_id": {"type": "string"},
    "trigger": {"enum": ["server_started", "reload_begin", "datapack_reloaded", "config_reloaded"]},
    "config": {"type": "string"},
    "recipes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "result"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "ingredients": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}},
          "width": {"type": "integer", "minimum": 0},
          "height": {"type": "integer", "minimum": 0},
          "result": {"$ref": "#/$defs/stack"},
          "outputs": {"type": "array", "items": {"$ref": "#/$defs/stack"}},
          "cooking_time": {"type": "integer", "minimum": 0},
          "experience": {"type": "number", "minimum": 0}
        }
      }
    }
  },
  "$defs": {
    "stack": {
      "type": "object",
      "required": ["item"],
      "properties": {
        "item": {"type": "string", "minLength": 1},
        "count": {"type": "integer", "minimum": 0},
        "chance": {"type": "number", "minimum": 0, "maximum": 1},
        "tags": {"type": "object", "additionalProperties": {"type": "string"}}
      }
    }
  }
}`

var (
	eventOnce   sync.Once
	eventSchema *jsonschema.Schema
	eventErr    error
)

// ValidateEvent checks a raw EVENT message before it is decoded.
func ValidateEvent(raw []byte) error {
	eventOnce.Do(func() {
		eventSchema, eventErr = jsonschema.CompileString("event.schema.json", eventSchemaText)
	})
	if eventErr != nil {
		return fmt.Errorf("compile event schema: %w", eventErr)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return eventSchema.Validate(v)
}
