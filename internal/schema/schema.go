package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	metadataSchemaBytes = []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["Summary", "Title", "Author", "DateCreated", "LastModifiedDate", "Publisher", "Language", "PageCount", "SentimentTone"],
  "properties": {
    "Summary": {"type": "array", "items": {"type": "string"}},
    "Title": {"type": "string"},
    "Author": {"type": "string"},
    "DateCreated": {"type": "string"},
    "LastModifiedDate": {"type": "string"},
    "Publisher": {"type": "string"},
    "Language": {"type": "string"},
    "PageCount": {"type": ["integer", "string"]},
    "SentimentTone": {"type": "string"}
  },
  "additionalProperties": false
}`)

	changeListSchemaBytes = []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["Page", "Changes"],
    "properties": {
      "Page": {"type": "string"},
      "Changes": {"type": "string"}
    },
    "additionalProperties": false
  }
}`)

	metadataSchemaOnce sync.Once
	metadataCompiled   *jsonschema.Schema
	metadataSchemaErr  error

	changeListSchemaOnce sync.Once
	changeListCompiled   *jsonschema.Schema
	changeListSchemaErr  error
)

// MetadataSchema returns the raw JSON schema for document metadata
// records. It doubles as the format instructions handed to the model.
func MetadataSchema() []byte {
	return append([]byte(nil), metadataSchemaBytes...)
}

// ChangeListSchema returns the raw JSON schema for page-level change lists.
func ChangeListSchema() []byte {
	return append([]byte(nil), changeListSchemaBytes...)
}

// ValidateMetadata validates JSON bytes against the metadata schema.
func ValidateMetadata(data []byte) error {
	metadataSchemaOnce.Do(func() {
		metadataCompiled, metadataSchemaErr = compile("metadata.json", metadataSchemaBytes)
	})
	if metadataSchemaErr != nil {
		return metadataSchemaErr
	}
	return validate(metadataCompiled, data)
}

// ValidateChangeList validates JSON bytes against the change-list schema.
func ValidateChangeList(data []byte) error {
	changeListSchemaOnce.Do(func() {
		changeListCompiled, changeListSchemaErr = compile("changelist.json", changeListSchemaBytes)
	})
	if changeListSchemaErr != nil {
		return changeListSchemaErr
	}
	return validate(changeListCompiled, data)
}

func compile(name string, schemaBytes []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schemaBytes)); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return compiled, nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}
