// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/viper"
)

const schemaURL = "https://github.com/xataio/qbench/schema.json"

//go:embed schema.json
var schemaJSON []byte

// DefaultExtensions are the file extensions loaded when no pattern is given.
var DefaultExtensions = []string{".toml", ".json", ".yaml", ".yml"}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unable to parse document schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("unable to add document schema: %w", err)
	}
	return c.Compile(schemaURL)
})

type loadOptions struct {
	pattern string
}

type LoadOption func(*loadOptions)

// WithPattern restricts loading to files whose name matches the glob
// pattern, compared case-insensitively.
func WithPattern(pattern string) LoadOption {
	return func(o *loadOptions) {
		o.pattern = pattern
	}
}

// Load reads every benchmark file in dir (non-recursive), in lexical order,
// and returns the merged query groups. Groups keep file order and then
// declaration order within each file. Any invalid file fails the whole load;
// the errors of all files are reported together.
func Load(dir string, opts ...LoadOption) ([]QueryGroup, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	files, err := matchFiles(dir, o.pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, NoFilesError{Dir: dir, Pattern: o.pattern}
	}

	var groups []QueryGroup
	var errs []error
	for _, file := range files {
		doc, err := LoadFile(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		groups = append(groups, doc.Queries...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if len(groups) == 0 {
		return nil, NoQueriesError{Dir: dir}
	}

	if err := Validate(groups); err != nil {
		return nil, err
	}

	return groups, nil
}

// LoadFile reads a single benchmark file. The format is taken from the file
// extension; the content is checked against the document schema before it
// is decoded.
func LoadFile(file string) (*Document, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType(strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), "."))

	if err := v.ReadInConfig(); err != nil {
		return nil, InvalidFileError{File: file, Err: err}
	}

	raw, err := json.Marshal(v.AllSettings())
	if err != nil {
		return nil, InvalidFileError{File: file, Err: err}
	}

	if err := ValidateJSON(raw); err != nil {
		return nil, InvalidFileError{File: file, Err: err}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, InvalidFileError{File: file, Err: err}
	}

	for i := range doc.Queries {
		doc.Queries[i].Source = file
	}

	return &doc, nil
}

// ValidateJSON checks a JSON encoded document against the document schema.
func ValidateJSON(raw []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	return sch.Validate(v)
}

func matchFiles(dir, pattern string) ([]string, error) {
	if pattern != "" {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read benchmark directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		name := entry.Name()
		if pattern == "" {
			if !slices.Contains(DefaultExtensions, strings.ToLower(filepath.Ext(name))) {
				continue
			}
		} else if ok, _ := filepath.Match(strings.ToLower(pattern), strings.ToLower(name)); !ok {
			continue
		}

		files = append(files, filepath.Join(dir, name))
	}

	// os.ReadDir already sorts by name; keep the order explicit.
	slices.Sort(files)

	return files, nil
}
