// Package transform intercepts every stub exchange and enforces the API
// contract on it.
//
// A Transformer runs three gates in order, stopping at the first failure:
//
//  1. the auth gate: a bearer token must be present, else 401
//  2. request validation against the contract, else 400
//  3. validation of the candidate stub response, else 400
//
// An exchange that passes all gates is returned untouched. Rejections are
// plain-text diagnostics prefixed with the service name, e.g.
//
//	Ewyrys API OpenAPI request validation failed:
//	- [ERROR] [Path '$.businessKey'] value must be a string (POST /ewyrys-epuc/v1.0/application, location=REQUEST, pointer=/businessKey)
//
// 400 rewrites keep the candidate's delay so timing behaviour stays close to
// the stub's; the 401 is sent immediately.
package transform
