// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package schema generates JSON Schemas from Go types and validates YAML
// documents against them.
package schema

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Meta describes a generated schema.
type Meta struct {
	ID          string
	Title       string
	Description string
}

// Generate reflects v into an indented JSON Schema document. Durations are
// described as strings such as "5s" or "1h30m".
func Generate(v any, meta Meta) ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
		Mapper:         mapDuration,
	}
	s := r.Reflect(v)
	s.ID = jsonschema.ID(meta.ID)
	s.Title = meta.Title
	s.Description = meta.Description

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").With("schema", meta.ID).Wrap(err)
	}
	return data, nil
}

func mapDuration(t reflect.Type) *jsonschema.Schema {
	if t == reflect.TypeOf(time.Duration(0)) {
		return &jsonschema.Schema{
			Type:    "string",
			Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		}
	}
	return nil
}

// Validator validates YAML documents against a generated schema. The schema
// is compiled once on first use.
type Validator struct {
	generate func() ([]byte, error)

	once     sync.Once
	compiled *jschema.Schema
	err      error
}

// NewValidator returns a Validator for the schema produced by generate.
func NewValidator(generate func() ([]byte, error)) *Validator {
	return &Validator{generate: generate}
}

// ValidateYAML parses data as YAML and validates it against the schema.
func (v *Validator) ValidateYAML(data []byte) error {
	if len(data) == 0 {
		return oops.Code("SCHEMA_INVALID_DOCUMENT").Errorf("document is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code("SCHEMA_INVALID_DOCUMENT").Wrapf(err, "invalid YAML")
	}

	compiled, err := v.schema()
	if err != nil {
		return err
	}
	if err := compiled.Validate(toJSONTypes(doc)); err != nil {
		return oops.Code("SCHEMA_VALIDATION_FAILED").Wrapf(err, "schema validation failed")
	}
	return nil
}

func (v *Validator) schema() (*jschema.Schema, error) {
	v.once.Do(func() {
		v.compiled, v.err = compile(v.generate)
	})
	return v.compiled, v.err
}

func compile(generate func() ([]byte, error)) (*jschema.Schema, error) {
	raw, err := generate()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").Wrapf(err, "parse schema JSON")
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").Wrapf(err, "add schema resource")
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").Wrapf(err, "compile schema")
	}
	return compiled, nil
}

// toJSONTypes normalizes YAML-decoded values into the types the validator
// understands.
func toJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = toJSONTypes(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = toJSONTypes(item)
		}
		return out
	case string, int, int64, float64, bool, nil:
		return val
	default:
		if b, err := json.Marshal(val); err == nil {
			var out any
			if err := json.Unmarshal(b, &out); err == nil {
				return out
			}
		}
		return val
	}
}

// FormatError strips the wrapper prefix from a validation error for display.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimPrefix(err.Error(), "schema validation failed: ")
}
