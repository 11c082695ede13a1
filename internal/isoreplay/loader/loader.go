// Package loader reads test-case files into validated test cases
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wrale/isoreplay/api/types/v1alpha1"
	werrors "github.com/wrale/isoreplay/internal/isoreplay/errors"
	"github.com/wrale/isoreplay/internal/isoreplay/interleaving"
)

// Format is the encoding of a test-case file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor maps a file extension to its format
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Decode reads the raw file layout without validating it
func Decode(r io.Reader, format Format) (*v1alpha1.TestFile, error) {
	var file v1alpha1.TestFile

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&file); err != nil {
			return nil, werrors.NewError("INVALID_INPUT", fmt.Sprintf("error parsing json: %v", err), "loader.Decode", werrors.ErrInvalidInput)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
			return nil, werrors.NewError("INVALID_INPUT", fmt.Sprintf("error parsing yaml: %v", err), "loader.Decode", werrors.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	return &file, nil
}

// Build validates a decoded file and returns its test cases in file order
func Build(file *v1alpha1.TestFile) ([]*interleaving.TestCase, error) {
	const op = "loader.Build"

	if len(file.SqlInterleavings) != len(file.Interleaving) {
		return nil, werrors.Malformed(op, "%d sql interleavings but %d operation interleavings",
			len(file.SqlInterleavings), len(file.Interleaving))
	}

	cases := make([]*interleaving.TestCase, len(file.SqlInterleavings))
	for i := range file.SqlInterleavings {
		ops := file.Interleaving[i]
		if ops == nil {
			ops = []v1alpha1.OperationWithTransaction{}
		}
		tc, err := interleaving.FromWire(file.SqlInterleavings[i], ops)
		if err != nil {
			return nil, fmt.Errorf("test case %d: %w", i, err)
		}
		cases[i] = tc
	}

	return cases, nil
}

// Parse decodes and validates a test-case file
func Parse(r io.Reader, format Format) ([]*interleaving.TestCase, error) {
	file, err := Decode(r, format)
	if err != nil {
		return nil, err
	}
	return Build(file)
}

// LoadFile parses the file at path, choosing the format by extension
func LoadFile(path string) ([]*interleaving.TestCase, error) {
	format, ok := FormatFor(path)
	if !ok {
		return nil, fmt.Errorf("unsupported test-case file %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening test-case file: %w", err)
	}
	defer f.Close()

	cases, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cases, nil
}

// ScanDir lists the test-case files of dir in name order
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading test-case directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := FormatFor(entry.Name()); !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	return paths, nil
}
