package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/contractmock/pkg/stub"
)

// LoadStubs loads every stub named by sources, in order. Glob matches are
// loaded in lexical order. Stub ids must be unique across all files.
// The baseDir is used to resolve relative paths.
func LoadStubs(sources []StubSource, baseDir string) ([]*stub.Stub, error) {
	var result []*stub.Stub

	for i, src := range sources {
		var (
			stubs []*stub.Stub
			err   error
		)
		switch {
		case src.IsFileRef() && src.IsGlob():
			err = errors.New("cannot specify both file and files")
		case src.IsFileRef():
			stubs, err = LoadStubFile(ResolvePath(baseDir, src.File))
		case src.IsGlob():
			stubs, err = loadStubGlob(src.Files, baseDir)
		default:
			err = errors.New("invalid stub source: no file or files specified")
		}
		if err != nil {
			// Provide context about which entry failed
			if src.IsFileRef() {
				return nil, fmt.Errorf("stubs[%d] (file: %s): %w", i, src.File, err)
			}
			if src.IsGlob() {
				return nil, fmt.Errorf("stubs[%d] (files: %s): %w", i, src.Files, err)
			}
			return nil, fmt.Errorf("stubs[%d]: %w", i, err)
		}
		result = append(result, stubs...)
	}

	if err := stub.CheckUniqueIDs(result); err != nil {
		return nil, err
	}
	return result, nil
}

// LoadStubFile reads, schema-checks and parses one stub file.
func LoadStubFile(path string) ([]*stub.Stub, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied: %s", path)
		}
		return nil, fmt.Errorf("reading file: %w", err)
	}

	expanded := []byte(ExpandEnvVars(string(data)))

	if err := ValidateStubDocument(expanded, path); err != nil {
		return nil, err
	}
	stubs, err := stub.Parse(expanded, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stubs, nil
}

// loadStubGlob loads stubs from files matching a glob pattern.
// Supports ** for recursive directory matching via doublestar library.
func loadStubGlob(pattern, baseDir string) ([]*stub.Stub, error) {
	resolvedPattern := ResolvePath(baseDir, pattern)

	matches, err := doublestar.FilepathGlob(resolvedPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern: %w", err)
	}

	// Sort matches for deterministic ordering
	sort.Strings(matches)

	var result []*stub.Stub
	for _, match := range matches {
		relPath, relErr := filepath.Rel(baseDir, match)
		if relErr != nil || relPath == "" {
			relPath = match
		}

		stubs, err := LoadStubFile(match)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", relPath, err)
		}
		result = append(result, stubs...)
	}
	return result, nil
}
