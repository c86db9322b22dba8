package exchange

import (
	"net/http"
	"time"
)

// Common header names and values.
const (
	HeaderContentType     = "Content-Type"
	HeaderAuthorization   = "Authorization"
	HeaderWWWAuthenticate = "WWW-Authenticate"
	HeaderRequestID       = "X-Request-Id"

	ContentTypeJSON      = "application/json"
	ContentTypeTextPlain = "text/plain; charset=UTF-8"
)

// Request is a snapshot of an inbound request.
type Request struct {
	Method string
	// URL is the request target: path plus raw query.
	URL    string
	Header Header
	// Body is nil when the request carried no body.
	Body []byte
	// ContentType is the declared content type, "" when not sent.
	ContentType string
}

// NewRequest snapshots r. body is the already-read request body.
func NewRequest(r *http.Request, body []byte) *Request {
	req := &Request{
		Method: r.Method,
		URL:    r.URL.RequestURI(),
		Header: HeaderFrom(r.Header),
	}
	if len(body) > 0 {
		req.Body = body
	}
	req.ContentType = req.Header.Get(HeaderContentType)
	return req
}

// HasBody reports whether the request carries a non-empty body.
func (r *Request) HasBody() bool {
	return len(r.Body) > 0
}

// Response is a candidate or final response.
type Response struct {
	Status int
	Header Header
	Body   string
	// HasBody distinguishes an absent body from an empty string body.
	HasBody bool
	// Delay is applied before the response is written.
	Delay time.Duration
}

// NewTextResponse returns a plain text response with the given status.
func NewTextResponse(status int, body string) *Response {
	resp := &Response{Status: status, Body: body, HasBody: true}
	resp.Header.Set(HeaderContentType, ContentTypeTextPlain)
	return resp
}

// Write sends the response to w. Delay is not applied here.
func (r *Response) Write(w http.ResponseWriter) error {
	dst := w.Header()
	r.Header.Each(func(name string, values []string) {
		key := http.CanonicalHeaderKey(name)
		dst[key] = append([]string(nil), values...)
	})
	w.WriteHeader(r.Status)
	if !r.HasBody || r.Body == "" {
		return nil
	}
	_, err := w.Write([]byte(r.Body))
	return err
}
