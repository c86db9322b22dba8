package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed stubs.schema.json
var stubSchemaJSON []byte

var (
	stubSchemaOnce sync.Once
	stubSchema     *jsonschema.Schema
	stubSchemaErr  error
)

// SchemaError is one violation of the stub file schema.
type SchemaError struct {
	// Location is a dotted path into the document, e.g. stubs.0.response.status.
	Location string
	Message  string
}

func (e SchemaError) Error() string {
	if e.Location == "" {
		return e.Message
	}
	return e.Location + ": " + e.Message
}

// SchemaValidationError collects every schema violation of one document.
type SchemaValidationError struct {
	Source string
	Errors []SchemaError
}

func (e *SchemaValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s does not match the stub file schema", e.Source)
	for _, se := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(se.Error())
	}
	return sb.String()
}

// ValidateStubDocument checks a YAML stub document against the embedded
// schema. An empty document passes; stub.Parse reports it.
func ValidateStubDocument(data []byte, source string) error {
	stubSchemaOnce.Do(func() {
		stubSchema, stubSchemaErr = compileStubSchema()
	})
	if stubSchemaErr != nil {
		return fmt.Errorf("compiling stub schema: %w", stubSchemaErr)
	}

	doc, err := yamlToJSONValue(data)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	if doc == nil {
		return nil
	}

	err = stubSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%s: %w", source, err)
	}

	result := &SchemaValidationError{Source: source}
	collectSchemaErrors(verr, result)
	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].Location < result.Errors[j].Location
	})
	return result
}

func compileStubSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("stubs.schema.json", bytes.NewReader(stubSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("stubs.schema.json")
}

// yamlToJSONValue decodes YAML and round-trips it through encoding/json so
// the validator sees the same types json.Unmarshal would produce.
func yamlToJSONValue(data []byte) (interface{}, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("document is not representable as JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(jsonBytes))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return doc, nil
}

// collectSchemaErrors extracts the leaf errors of a validation error tree.
func collectSchemaErrors(err *jsonschema.ValidationError, result *SchemaValidationError) {
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, SchemaError{
			Location: extractFieldFromPath(err.InstanceLocation),
			Message:  err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, result)
	}
}

// extractFieldFromPath converts a JSON Pointer to dot notation.
func extractFieldFromPath(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	path = strings.TrimPrefix(path, "/")
	return strings.ReplaceAll(path, "/", ".")
}
