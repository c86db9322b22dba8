// Package cli implements the contractmock command line: serve, validate and
// version. BuildServer is exported for embedding the server in Go test
// suites with the same wiring the command uses.
package cli
