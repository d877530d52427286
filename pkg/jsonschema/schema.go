// Package jsonschema generates JSON Schema strings from Go structs for
// embedding in strict-JSON-mode LLM prompts.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Config controls schema generation, mirroring the reflector options
// jsonschema.Reflector exposes.
type Config struct {
	Anonymous                 bool
	ExpandedStruct            bool
	DoNotReference            bool
	AllowAdditionalProperties bool
	IncludeSchemaVersion      bool
}

// DefaultConfig produces a compact, self-contained schema suitable for
// inlining directly into a prompt: no $ref indirection, no $schema header,
// additional properties rejected so the model can't pad the object.
func DefaultConfig() Config {
	return Config{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
}

// StringSchemaOf renders v's JSON Schema as a compact JSON string.
func StringSchemaOf(v any) (string, error) {
	return StringSchemaOfWithConfig(v, DefaultConfig())
}

func StringSchemaOfWithConfig(v any, config Config) (string, error) {
	schema, err := generateSchema(v, config)
	if err != nil {
		return "", fmt.Errorf("generate schema: %w", err)
	}
	raw, err := schema.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal schema to JSON: %w", err)
	}
	return string(raw), nil
}

func generateSchema(v any, config Config) (*jsonschema.Schema, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot generate schema for nil value")
	}
	r := &jsonschema.Reflector{
		Anonymous:                 config.Anonymous,
		ExpandedStruct:            config.ExpandedStruct,
		DoNotReference:            config.DoNotReference,
		AllowAdditionalProperties: config.AllowAdditionalProperties,
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		r.ExpandedStruct = true
	}
	schema := r.Reflect(v)
	if schema == nil {
		return nil, fmt.Errorf("failed to reflect schema for type %T", v)
	}
	if !config.IncludeSchemaVersion {
		schema.Version = ""
	}
	return schema, nil
}

// MustStringSchemaOf panics on generation failure; only used at package init
// time against fixed DTOs where a failure is a programming error.
func MustStringSchemaOf(v any) string {
	s, err := StringSchemaOf(v)
	if err != nil {
		panic(fmt.Sprintf("jsonschema: failed to generate schema: %v", err))
	}
	return s
}

// Unmarshal is a thin convenience wrapper kept alongside schema generation
// so callers validating an LLM's strict-JSON response have one import.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
