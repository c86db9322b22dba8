package stub

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyFile is returned for a stub file without stubs.
var ErrEmptyFile = errors.New("stub file contains no stubs")

// Parse decodes a stub file. Stubs without an id get one derived from the
// source file name and their position. Every stub is validated.
func Parse(data []byte, source string) ([]*Stub, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if len(file.Stubs) == 0 {
		return nil, ErrEmptyFile
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	for i, s := range file.Stubs {
		if s == nil {
			return nil, fmt.Errorf("stubs[%d]: empty entry", i)
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("%s-%d", base, i+1)
		}
		s.Source = source
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("stubs[%d]: %w", i, err)
		}
	}
	return file.Stubs, nil
}

// CheckUniqueIDs reports the first id used by more than one stub.
func CheckUniqueIDs(stubs []*Stub) error {
	seen := make(map[string]string, len(stubs))
	for _, s := range stubs {
		if prev, ok := seen[s.ID]; ok {
			return fmt.Errorf("duplicate stub id %q (in %s and %s)", s.ID, prev, s.Source)
		}
		seen[s.ID] = s.Source
	}
	return nil
}
