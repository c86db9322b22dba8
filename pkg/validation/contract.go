package validation

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Contract is a parsed, validated OpenAPI document. It is read-only after
// LoadContract returns and safe for concurrent use.
type Contract struct {
	doc       *openapi3.T
	basePaths []string
	source    string
}

// ContractSource names where a contract is loaded from. Exactly one field
// should be set.
type ContractSource struct {
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
	Spec string `json:"spec,omitempty" yaml:"spec,omitempty"`
}

// IsZero reports whether no source is configured.
func (s ContractSource) IsZero() bool {
	return s.File == "" && s.URL == "" && s.Spec == ""
}

// String describes the source for logs.
func (s ContractSource) String() string {
	switch {
	case s.File != "":
		return s.File
	case s.URL != "":
		return s.URL
	case s.Spec != "":
		return "inline"
	default:
		return ""
	}
}

// LoadContract loads, validates and prepares a contract.
func LoadContract(ctx context.Context, src ContractSource) (*Contract, error) {
	var doc *openapi3.T
	var err error

	switch {
	case src.File != "":
		doc, err = LoadSpec(src.File)
	case src.URL != "":
		doc, err = LoadSpecFromURL(src.URL)
	case src.Spec != "":
		doc, err = LoadSpecFromString(src.Spec)
	default:
		return nil, fmt.Errorf("no OpenAPI contract source provided (file, url or spec required)")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI contract: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI contract: %w", err)
	}

	return newContract(doc, src.String()), nil
}

// LoadSpec loads an OpenAPI spec from a file path
func LoadSpec(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec from file %s: %w", path, err)
	}

	return doc, nil
}

// LoadSpecFromURL loads an OpenAPI spec from a URL
func LoadSpecFromURL(specURL string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	parsedURL, err := url.Parse(specURL)
	if err != nil {
		return nil, fmt.Errorf("invalid spec URL: %w", err)
	}

	doc, err := loader.LoadFromURI(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec from URL %s: %w", specURL, err)
	}

	return doc, nil
}

// LoadSpecFromString loads an OpenAPI spec from a string
func LoadSpecFromString(spec string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromData([]byte(spec))
	if err != nil {
		return nil, fmt.Errorf("failed to load spec from string: %w", err)
	}

	return doc, nil
}

// newContract strips server declarations from doc and records their base
// paths. Requests are matched on path only: the test double runs on an
// arbitrary host, so hosts and schemes in the contract are not enforced.
func newContract(doc *openapi3.T, source string) *Contract {
	seen := map[string]bool{}
	var bases []string
	collect := func(servers openapi3.Servers) {
		for _, s := range servers {
			if s == nil {
				continue
			}
			base := serverBasePath(s)
			if !seen[base] {
				seen[base] = true
				bases = append(bases, base)
			}
		}
	}

	collect(doc.Servers)
	doc.Servers = nil
	if doc.Paths != nil {
		for _, item := range doc.Paths.Map() {
			collect(item.Servers)
			item.Servers = nil
			for _, op := range item.Operations() {
				if op.Servers != nil {
					collect(*op.Servers)
					op.Servers = nil
				}
			}
		}
	}

	// Longest first so the most specific base path is stripped.
	sort.Slice(bases, func(i, j int) bool {
		if len(bases[i]) != len(bases[j]) {
			return len(bases[i]) > len(bases[j])
		}
		return bases[i] < bases[j]
	})

	return &Contract{doc: doc, basePaths: bases, source: source}
}

// serverBasePath returns the path component of a server URL with variables
// replaced by their defaults and without a trailing slash.
func serverBasePath(s *openapi3.Server) string {
	raw := s.URL
	for name, v := range s.Variables {
		if v != nil {
			raw = strings.ReplaceAll(raw, "{"+name+"}", v.Default)
		}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Path, "/")
}

// Doc returns the underlying document. Callers must not modify it.
func (c *Contract) Doc() *openapi3.T {
	return c.doc
}

// Source describes where the contract was loaded from.
func (c *Contract) Source() string {
	return c.source
}

// Title returns info.title, or "" when absent.
func (c *Contract) Title() string {
	if c.doc == nil || c.doc.Info == nil {
		return ""
	}
	return c.doc.Info.Title
}

// stripBasePath removes the longest matching server base path from p.
// ok is false when the contract declares base paths and none of them match.
func (c *Contract) stripBasePath(p string) (string, bool) {
	if len(c.basePaths) == 0 {
		return p, true
	}
	for _, base := range c.basePaths {
		if base == "" {
			return p, true
		}
		if p == base {
			return "/", true
		}
		if strings.HasPrefix(p, base+"/") {
			return p[len(base):], true
		}
	}
	return p, false
}
