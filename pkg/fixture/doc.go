// Package fixture loads stub response bodies from files.
//
// A Loader never fails: when a file cannot be read it returns a JSON
// CONFIGURATION_ERROR payload naming the file, so a broken stub still answers
// and the failure is visible to the client.
package fixture
