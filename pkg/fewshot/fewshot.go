// Package fewshot loads example conversations that seed an adapter's
// context before the real history. Files are YAML and are validated
// against a JSON Schema before decoding.
package fewshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/obyrne/llmbridge/pkg/llm"
)

// fileSchema constrains a few-shot file: a non-empty examples list of
// role/content pairs with known roles and non-empty content.
const fileSchema = `{
  "type": "object",
  "required": ["examples"],
  "additionalProperties": false,
  "properties": {
    "examples": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["role", "content"],
        "additionalProperties": false,
        "properties": {
          "role": {"enum": ["system", "user", "assistant"]},
          "content": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

type file struct {
	Examples []llm.Message `yaml:"examples"`
}

// Load reads and validates the few-shot file at path.
func Load(path string) ([]llm.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading few-shot file: %w", err)
	}
	msgs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing few-shot file %s: %w", path, err)
	}
	return msgs, nil
}

// Parse validates and decodes few-shot YAML.
func Parse(data []byte) ([]llm.Message, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	sch, err := compileFileSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("few-shot file does not match schema: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding examples: %w", err)
	}
	return f.Examples, nil
}

func compileFileSchema() (*jsonschema.Schema, error) {
	var schemaDoc interface{}
	if err := json.Unmarshal([]byte(fileSchema), &schemaDoc); err != nil {
		return nil, fmt.Errorf("invalid JSON schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("fewshot.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("invalid JSON schema: %w", err)
	}
	sch, err := c.Compile("fewshot.json")
	if err != nil {
		return nil, fmt.Errorf("compiling JSON schema: %w", err)
	}
	return sch, nil
}
