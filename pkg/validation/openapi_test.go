package validation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/contractmock/pkg/exchange"
)

const applicationsContract = `
openapi: 3.0.3
info:
  title: Applications API
  version: "1.0"
servers:
  - url: https://api.example.test/ewyrys-epuc/v1.0
security:
  - bearerAuth: []
paths:
  /application:
    post:
      operationId: createApplication
      parameters:
        - name: X-Attempt
          in: header
          required: false
          schema:
            type: integer
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/CreateApplication'
      responses:
        "201":
          description: Created
        "400":
          description: Bad request
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Error'
        "409":
          description: Conflict
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Error'
  /application/{businessKey}:
    parameters:
      - name: businessKey
        in: path
        required: true
        schema:
          type: string
    put:
      operationId: updateApplicationStatus
      parameters:
        - name: dryRun
          in: query
          required: false
          schema:
            type: boolean
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [status]
              properties:
                status:
                  type: string
                  enum: [SUBMITTED, ACCEPTED, REJECTED]
      responses:
        "204":
          description: Updated
          headers:
            X-Revision:
              required: true
              schema:
                type: integer
        "404":
          description: Not found
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Error'
components:
  securitySchemes:
    bearerAuth:
      type: http
      scheme: bearer
      bearerFormat: JWT
  schemas:
    CreateApplication:
      type: object
      required: [businessKey]
      properties:
        businessKey:
          type: string
        applicantName:
          type: string
    Error:
      type: object
      required: [error]
      properties:
        error:
          type: string
        message:
          type: string
        details:
          type: string
        timestamp:
          type: string
`

const (
	createURL = "/ewyrys-epuc/v1.0/application"
	updateURL = "/ewyrys-epuc/v1.0/application/businesskey-ok"
)

func newTestValidator(t *testing.T, cfg *ValidationConfig) *OpenAPIValidator {
	t.Helper()
	contract, err := LoadContract(context.Background(), ContractSource{Spec: applicationsContract})
	require.NoError(t, err)
	v, err := NewOpenAPIValidator(contract, cfg)
	require.NoError(t, err)
	return v
}

func jsonRequest(method, url, body string, headers ...string) *exchange.Request {
	req := &exchange.Request{Method: method, URL: url, ContentType: exchange.ContentTypeJSON}
	req.Header.Set(exchange.HeaderContentType, exchange.ContentTypeJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Add(headers[i], headers[i+1])
	}
	if body != "" {
		req.Body = []byte(body)
	}
	return req
}

func jsonResponse(status int, body string) *exchange.Response {
	resp := &exchange.Response{Status: status, Body: body, HasBody: body != ""}
	resp.Header.Set(exchange.HeaderContentType, exchange.ContentTypeJSON)
	return resp
}

func keys(r *Report) []string {
	out := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		out = append(out, m.Key)
	}
	return out
}

func TestLoadContract(t *testing.T) {
	t.Parallel()

	t.Run("no source", func(t *testing.T) {
		_, err := LoadContract(context.Background(), ContractSource{})
		assert.Error(t, err)
	})

	t.Run("malformed document", func(t *testing.T) {
		_, err := LoadContract(context.Background(), ContractSource{Spec: "openapi: [unterminated"})
		assert.Error(t, err)
	})

	t.Run("invalid document", func(t *testing.T) {
		_, err := LoadContract(context.Background(), ContractSource{Spec: "openapi: 3.0.3\npaths: {}\n"})
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadContract(context.Background(), ContractSource{File: "testdata/does-not-exist.yaml"})
		assert.Error(t, err)
	})

	t.Run("servers reduced to base paths", func(t *testing.T) {
		c, err := LoadContract(context.Background(), ContractSource{Spec: applicationsContract})
		require.NoError(t, err)
		assert.Equal(t, "Applications API", c.Title())
		assert.Equal(t, "inline", c.Source())
		assert.Empty(t, c.Doc().Servers)
		assert.Equal(t, []string{"/ewyrys-epuc/v1.0"}, c.basePaths)
	})
}

func TestContract_StripBasePath(t *testing.T) {
	t.Parallel()

	c := &Contract{basePaths: []string{"/api/v2", "/api"}}
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"/api/v2/items", "/items", true},
		{"/api/items", "/items", true},
		{"/api", "/", true},
		{"/apiary/items", "/apiary/items", false},
		{"/other", "/other", false},
	}
	for _, tt := range tests {
		got, ok := c.stripBasePath(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	root := &Contract{}
	got, ok := root.stripBasePath("/anything")
	assert.True(t, ok)
	assert.Equal(t, "/anything", got)
}

func TestNewOpenAPIValidator_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewOpenAPIValidator(nil, nil)
	assert.ErrorIs(t, err, ErrNoContract)

	contract, err := LoadContract(context.Background(), ContractSource{Spec: applicationsContract})
	require.NoError(t, err)
	_, err = NewOpenAPIValidator(contract, &ValidationConfig{Levels: map[string]string{"validation.*": "LOUD"}})
	assert.Error(t, err)
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, nil)
	bearer := []string{"Authorization", "Bearer abc.def"}

	tests := []struct {
		name     string
		req      *exchange.Request
		wantKeys []string
		contains string
	}{
		{
			name: "valid create",
			req:  jsonRequest("POST", createURL, `{"businessKey":"businesskey-ok"}`, bearer...),
		},
		{
			name:     "missing credentials",
			req:      jsonRequest("POST", createURL, `{"businessKey":"businesskey-ok"}`),
			wantKeys: []string{RuleRequestSecurityMissing},
			contains: "Bearer",
		},
		{
			name:     "schema violation",
			req:      jsonRequest("POST", createURL, `{"businessKey":42}`, bearer...),
			wantKeys: []string{RuleRequestBodySchema},
			contains: "businessKey",
		},
		{
			name:     "required property missing",
			req:      jsonRequest("POST", createURL, `{"applicantName":"Jan"}`, bearer...),
			wantKeys: []string{RuleRequestBodySchema},
			contains: "businessKey",
		},
		{
			name:     "malformed json",
			req:      jsonRequest("POST", createURL, `{"businessKey":`, bearer...),
			wantKeys: []string{RuleRequestBodyInvalidJSON},
		},
		{
			name:     "body missing",
			req:      jsonRequest("POST", createURL, "", bearer...),
			wantKeys: []string{RuleRequestBodyMissing},
		},
		{
			name: "unexpected content type",
			req: func() *exchange.Request {
				r := jsonRequest("POST", createURL, `businessKey=x`, bearer...)
				r.ContentType = "text/plain"
				r.Header.Set(exchange.HeaderContentType, "text/plain")
				return r
			}(),
			wantKeys: []string{RuleRequestContentTypeNotAllowed},
		},
		{
			name:     "invalid header parameter",
			req:      jsonRequest("POST", createURL, `{"businessKey":"x"}`, "Authorization", "Bearer t", "X-Attempt", "first"),
			wantKeys: []string{"validation.request.parameter.header.invalid"},
		},
		{
			name:     "invalid query parameter",
			req:      jsonRequest("PUT", updateURL+"?dryRun=maybe", `{"status":"ACCEPTED"}`, bearer...),
			wantKeys: []string{"validation.request.parameter.query.invalid"},
		},
		{
			name:     "enum violation",
			req:      jsonRequest("PUT", updateURL, `{"status":"LOST"}`, bearer...),
			wantKeys: []string{RuleRequestBodySchema},
		},
		{
			name:     "unknown path",
			req:      jsonRequest("POST", "/ewyrys-epuc/v1.0/unknown", `{}`, bearer...),
			wantKeys: []string{RuleRequestPathMissing},
		},
		{
			name:     "wrong base path",
			req:      jsonRequest("POST", "/other/application", `{}`, bearer...),
			wantKeys: []string{RuleRequestPathMissing},
		},
		{
			name:     "method not allowed",
			req:      jsonRequest("DELETE", createURL, "", bearer...),
			wantKeys: []string{RuleRequestOperationNotAllowed},
		},
		{
			name:     "security and schema together",
			req:      jsonRequest("POST", createURL, `{"businessKey":1}`),
			wantKeys: []string{RuleRequestSecurityMissing, RuleRequestBodySchema},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := v.ValidateRequest(context.Background(), tt.req)
			require.NoError(t, err)
			require.NotNil(t, report)

			if len(tt.wantKeys) == 0 {
				assert.Empty(t, report.Messages)
				assert.False(t, report.HasErrors())
				return
			}
			assert.ElementsMatch(t, tt.wantKeys, keys(report))
			assert.True(t, report.HasErrors())
			if tt.contains != "" {
				assert.Contains(t, report.Render("banner"), tt.contains)
			}
			for _, m := range report.Messages {
				require.NotNil(t, m.Context)
				assert.Equal(t, LocationRequest, m.Context.Location)
				assert.Equal(t, tt.req.Method, m.Context.Method)
			}
		})
	}
}

func TestValidateRequest_BodyWithoutContentType(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, nil)
	req := &exchange.Request{Method: "POST", URL: createURL, Body: []byte(`{"businessKey":"k"}`)}
	req.Header.Set(exchange.HeaderAuthorization, "Bearer t")

	report, err := v.ValidateRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, report.Messages)
}

func TestValidateRequest_Idempotent(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, nil)
	req := jsonRequest("POST", createURL, `{"businessKey":7}`)

	first, err := v.ValidateRequest(context.Background(), req)
	require.NoError(t, err)
	second, err := v.ValidateRequest(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Render("x"), second.Render("x"))
	assert.Equal(t, `{"businessKey":7}`, string(req.Body))
}

func TestValidateRequest_LevelOverrides(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, &ValidationConfig{
		Enabled:         true,
		ValidateRequest: true,
		Levels: map[string]string{
			"validation.request.body.*":           "WARN",
			"validation.request.security.missing": "IGNORE",
		},
	})

	report, err := v.ValidateRequest(context.Background(), jsonRequest("POST", createURL, `{"businessKey":1}`))
	require.NoError(t, err)

	require.Len(t, report.Messages, 2)
	assert.True(t, report.HasErrors(), "security stays an error")
	for _, m := range report.Messages {
		switch m.Key {
		case RuleRequestSecurityMissing:
			assert.Equal(t, LevelError, m.Level)
		case RuleRequestBodySchema:
			assert.Equal(t, LevelWarn, m.Level)
		default:
			t.Fatalf("unexpected key %s", m.Key)
		}
	}
}

func TestValidateRequest_Disabled(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, &ValidationConfig{Enabled: true, ValidateResponse: true})
	report, err := v.ValidateRequest(context.Background(), jsonRequest("POST", "/nowhere", "{"))
	require.NoError(t, err)
	assert.Empty(t, report.Messages)
}

func TestValidateRequest_InvalidURL(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, nil)
	_, err := v.ValidateRequest(context.Background(), jsonRequest("GET", "http://[::1", ""))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestValidateResponse(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, nil)
	errorBody := `{"error":"NOT_FOUND","message":"Application not found"}`

	tests := []struct {
		name     string
		method   string
		url      string
		resp     *exchange.Response
		wantKeys []string
	}{
		{
			name:   "declared status without content",
			method: "POST",
			url:    createURL,
			resp:   &exchange.Response{Status: 201},
		},
		{
			name:   "undeclared status is ignored",
			method: "POST",
			url:    createURL,
			resp:   exchange.NewTextResponse(401, "unauthorized"),
		},
		{
			name:   "undeclared 500 is ignored",
			method: "PUT",
			url:    updateURL,
			resp:   jsonResponse(500, `{"oops":true}`),
		},
		{
			name:   "conforming error body",
			method: "PUT",
			url:    updateURL,
			resp:   jsonResponse(404, errorBody),
		},
		{
			name:     "error body violates schema",
			method:   "PUT",
			url:      updateURL,
			resp:     jsonResponse(404, `{"message":"no error code"}`),
			wantKeys: []string{RuleResponseBodySchema},
		},
		{
			name:     "error body missing",
			method:   "PUT",
			url:      updateURL,
			resp:     jsonResponse(404, ""),
			wantKeys: []string{RuleResponseBodyMissing},
		},
		{
			name:     "error body malformed",
			method:   "PUT",
			url:      updateURL,
			resp:     jsonResponse(404, `{"error":`),
			wantKeys: []string{RuleResponseBodyInvalidJSON},
		},
		{
			name:     "wrong content type",
			method:   "POST",
			url:      createURL,
			resp:     exchange.NewTextResponse(409, "conflict"),
			wantKeys: []string{RuleResponseContentTypeNotAllowed},
		},
		{
			name:     "required header missing",
			method:   "PUT",
			url:      updateURL,
			resp:     &exchange.Response{Status: 204},
			wantKeys: []string{RuleResponseHeaderInvalid},
		},
		{
			name:   "required header present",
			method: "PUT",
			url:    updateURL,
			resp: func() *exchange.Response {
				resp := &exchange.Response{Status: 204}
				resp.Header.Set("X-Revision", "3")
				return resp
			}(),
		},
		{
			name:     "unknown path",
			method:   "GET",
			url:      "/ewyrys-epuc/v1.0/nothing",
			resp:     jsonResponse(200, `{}`),
			wantKeys: []string{"validation.response.path.missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := v.ValidateResponse(context.Background(), tt.url, tt.method, tt.resp)
			require.NoError(t, err)
			require.NotNil(t, report)

			if len(tt.wantKeys) == 0 {
				assert.Empty(t, report.Messages, report.Render(""))
				return
			}
			assert.ElementsMatch(t, tt.wantKeys, keys(report))
			assert.True(t, report.HasErrors())
			for _, m := range report.Messages {
				require.NotNil(t, m.Context)
				assert.Equal(t, LocationResponse, m.Context.Location)
				assert.Equal(t, tt.resp.Status, m.Context.ResponseStatus)
			}
		})
	}
}

func TestValidateResponse_SchemaMessage(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, nil)
	report, err := v.ValidateResponse(context.Background(), updateURL, "PUT", jsonResponse(404, `{"error":5}`))
	require.NoError(t, err)

	rendered := report.Render("Applications OpenAPI response validation failed:")
	lines := strings.Split(rendered, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Applications OpenAPI response validation failed:", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "- [ERROR] [Path '$.error']"), lines[1])
	assert.Contains(t, lines[1], "PUT "+updateURL)
	assert.Contains(t, lines[1], "status=404")
	assert.Contains(t, lines[1], "pointer=/error")
}

func TestValidateResponse_Nil(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, nil)
	_, err := v.ValidateResponse(context.Background(), createURL, "POST", nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestValidateResponse_Disabled(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, &ValidationConfig{Enabled: true, ValidateRequest: true})
	report, err := v.ValidateResponse(context.Background(), updateURL, "PUT", jsonResponse(404, `{`))
	require.NoError(t, err)
	assert.Empty(t, report.Messages)
}

func TestFormatJSONPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", formatJSONPath(nil))
	assert.Equal(t, "$.items[0].name", formatJSONPath([]string{"items", "0", "name"}))
	assert.Equal(t, "$.a", formatJSONPath([]string{"", "a"}))
}
