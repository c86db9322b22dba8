// Package config loads the server configuration and the stub files it names.
//
// A configuration file looks like this:
//
//	service: "Ewyrys API"
//	port: 8000
//	contract:
//	  file: contract/ewyrys.yaml
//	validation:
//	  enabled: true
//	  validateRequest: true
//	  validateResponse: true
//	auth:
//	  required: true
//	fixturesDir: fixtures
//	stubs:
//	  - file: stubs/create-application.yaml
//	  - files: "stubs/**/*.yaml"
//
// Values may reference environment variables as ${VAR} or ${VAR:-default}.
// A .env file next to the configuration file is loaded first; variables that
// are already set are never overridden. CONTRACTMOCK_* variables override the
// file (see ApplyEnv). Relative paths are resolved against the directory of
// the configuration file.
//
// Stub files are checked against an embedded JSON Schema before they are
// parsed, so type errors are reported with their location in the file.
package config
