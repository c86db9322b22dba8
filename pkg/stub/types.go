package stub

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Stub is one canned response together with the predicates selecting it.
type Stub struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	Request  *Matcher  `json:"request" yaml:"request"`
	Response *Response `json:"response" yaml:"response"`

	// Source is the file the stub was loaded from.
	Source string `json:"source,omitempty" yaml:"-"`
}

// Matcher holds request predicates. Every predicate that is set must hold.
type Matcher struct {
	Method      string `json:"method,omitempty" yaml:"method,omitempty"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
	PathPattern string `json:"pathPattern,omitempty" yaml:"pathPattern,omitempty"`

	// Headers match exact values, or simple prefix*, *suffix and *middle*
	// wildcards.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// HeaderPatterns match header values against regular expressions.
	HeaderPatterns map[string]string `json:"headerPatterns,omitempty" yaml:"headerPatterns,omitempty"`
	QueryParams    map[string]string `json:"queryParams,omitempty" yaml:"queryParams,omitempty"`

	BodyContains string                 `json:"bodyContains,omitempty" yaml:"bodyContains,omitempty"`
	BodyEquals   string                 `json:"bodyEquals,omitempty" yaml:"bodyEquals,omitempty"`
	BodyPattern  string                 `json:"bodyPattern,omitempty" yaml:"bodyPattern,omitempty"`
	BodyJSONPath map[string]interface{} `json:"bodyJsonPath,omitempty" yaml:"bodyJsonPath,omitempty"`

	// When is a boolean expression over method, path, query, headers, body
	// and json.
	When string `json:"when,omitempty" yaml:"when,omitempty"`
}

// Response is the canned response.
type Response struct {
	Status   int               `json:"status" yaml:"status"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body     string            `json:"body,omitempty" yaml:"body,omitempty"`
	BodyFile string            `json:"bodyFile,omitempty" yaml:"bodyFile,omitempty"`
	DelayMs  int               `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
}

// Delay returns the fixed delay as a duration.
func (r *Response) Delay() time.Duration {
	return time.Duration(r.DelayMs) * time.Millisecond
}

// HasBody reports whether the response declares a body.
func (r *Response) HasBody() bool {
	return r.Body != "" || r.BodyFile != ""
}

// UnmarshalYAML accepts body as a string or as a mapping/sequence, which is
// serialised to compact JSON. This lets stub files use
// body: {error: NOT_FOUND} instead of a quoted JSON string.
func (r *Response) UnmarshalYAML(node *yaml.Node) error {
	var proxy struct {
		Status   int               `yaml:"status"`
		Headers  map[string]string `yaml:"headers"`
		Body     yaml.Node         `yaml:"body"`
		BodyFile string            `yaml:"bodyFile"`
		DelayMs  int               `yaml:"delayMs"`
	}
	if err := node.Decode(&proxy); err != nil {
		return err
	}
	r.Status = proxy.Status
	r.Headers = proxy.Headers
	r.BodyFile = proxy.BodyFile
	r.DelayMs = proxy.DelayMs
	r.Body = ""

	switch proxy.Body.Kind {
	case 0:
	case yaml.ScalarNode:
		if proxy.Body.Tag != "!!null" {
			r.Body = proxy.Body.Value
		}
	case yaml.MappingNode, yaml.SequenceNode:
		var v interface{}
		if err := proxy.Body.Decode(&v); err != nil {
			return fmt.Errorf("decoding body: %w", err)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding body as JSON: %w", err)
		}
		r.Body = string(data)
	default:
		return fmt.Errorf("line %d: body must be a string, mapping or sequence", proxy.Body.Line)
	}
	return nil
}

// File is the top-level shape of a stub file.
type File struct {
	Stubs []*Stub `json:"stubs" yaml:"stubs"`
}
