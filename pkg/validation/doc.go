// Package validation validates exchanges against an OpenAPI contract.
//
// A Contract is loaded once (file, URL or inline string), validated, and then
// shared read-only. Server URLs are reduced to their base paths so the
// contract applies regardless of the host the test double runs on.
//
// OpenAPIValidator checks:
//   - that the request path and method resolve to a contract operation
//   - path, query, header and cookie parameters
//   - request body presence, content type and JSON schema
//   - presence of credentials for declared security requirements
//   - response status, headers, content type and body schema
//
// Every finding carries a rule key such as "validation.request.body.schema".
// A LevelResolver maps keys (or doublestar globs over keys) to ERROR, WARN or
// IGNORE. Two rules are forced regardless of configuration: security
// findings are always ERROR, and undeclared response status codes are always
// IGNORE.
//
// # Usage
//
//	contract, err := validation.LoadContract(ctx, validation.ContractSource{File: "api.yaml"})
//	if err != nil {
//	    return err
//	}
//	v, err := validation.NewOpenAPIValidator(contract, validation.DefaultValidationConfig())
//	if err != nil {
//	    return err
//	}
//	report, err := v.ValidateRequest(ctx, req)
//	if err == nil && report.HasErrors() {
//	    fmt.Println(report.Render("request validation failed:"))
//	}
package validation
