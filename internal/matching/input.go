package matching

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/getmockd/contractmock/pkg/exchange"
)

// Input is the view of a request that matchers are evaluated against.
// An Input is built once per request and shared by every stub.
type Input struct {
	Method string
	Path   string
	Query  url.Values
	Header exchange.Header
	Body   []byte

	jsonOnce sync.Once
	json     interface{}
	jsonOK   bool
}

// NewInput builds an Input from a request snapshot.
func NewInput(req *exchange.Request) *Input {
	in := &Input{
		Method: req.Method,
		Header: req.Header,
		Body:   req.Body,
	}
	if u, err := url.ParseRequestURI(req.URL); err == nil {
		in.Path = u.Path
		in.Query = u.Query()
	} else {
		in.Path, _, _ = strings.Cut(req.URL, "?")
		in.Query = url.Values{}
	}
	return in
}

// WithMethod returns a fresh Input for the same request under another method.
func (in *Input) WithMethod(method string) *Input {
	return &Input{
		Method: method,
		Path:   in.Path,
		Query:  in.Query,
		Header: in.Header,
		Body:   in.Body,
	}
}

// JSON returns the body decoded as JSON. ok is false when the body is not
// valid JSON.
func (in *Input) JSON() (v interface{}, ok bool) {
	in.jsonOnce.Do(func() {
		if len(in.Body) == 0 {
			return
		}
		in.jsonOK = json.Unmarshal(in.Body, &in.json) == nil
	})
	return in.json, in.jsonOK
}

// exprEnv is the environment "when" expressions run against.
func (in *Input) exprEnv() map[string]interface{} {
	query := make(map[string]string, len(in.Query))
	for name, values := range in.Query {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	headers := make(map[string]string, in.Header.Len())
	in.Header.Each(func(name string, values []string) {
		if len(values) > 0 {
			headers[http.CanonicalHeaderKey(name)] = values[0]
		}
	})

	object := map[string]interface{}{}
	if v, ok := in.JSON(); ok {
		if m, isMap := v.(map[string]interface{}); isMap {
			object = m
		}
	}

	return map[string]interface{}{
		"method":  in.Method,
		"path":    in.Path,
		"query":   query,
		"headers": headers,
		"body":    string(in.Body),
		"json":    object,
	}
}

// exprEnvSample declares the types of the "when" environment at compile time.
func exprEnvSample() map[string]interface{} {
	return map[string]interface{}{
		"method":  "",
		"path":    "",
		"query":   map[string]string{},
		"headers": map[string]string{},
		"body":    "",
		"json":    map[string]interface{}{},
	}
}
