// Package stub defines canned HTTP responses and the request predicates that
// select them.
//
// Stub files are YAML documents holding a list of stubs:
//
//	stubs:
//	  - id: create-application
//	    request:
//	      method: POST
//	      pathPattern: ^/ewyrys-epuc/v1\.0/application$
//	      bodyPattern: businesskey-ok
//	    response:
//	      status: 201
//	      headers:
//	        Content-Type: application/json
//
//	  - id: create-application-delayed
//	    request:
//	      method: POST
//	      pathPattern: ^/ewyrys-epuc/v1\.0/application$
//	      bodyPattern: businesskey-ok
//	      headerPatterns:
//	        X-Delay-create-application: ^true$
//	    response:
//	      status: 201
//	      delayMs: 10000
//
// A response body is given inline (string, or a YAML mapping serialised as
// JSON) or loaded from bodyFile relative to the fixtures directory.
package stub
