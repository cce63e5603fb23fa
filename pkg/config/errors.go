// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
)

// InvalidFileError is returned when a benchmark file cannot be read, does not
// match the document schema or cannot be decoded.
type InvalidFileError struct {
	File string
	Err  error
}

func (e InvalidFileError) Error() string {
	return fmt.Sprintf("invalid benchmark file %q: %s", e.File, e.Err)
}

func (e InvalidFileError) Unwrap() error {
	return e.Err
}

type DuplicateGroupError struct {
	Name   string
	First  string
	Second string
}

func (e DuplicateGroupError) Error() string {
	if e.First == "" && e.Second == "" {
		return fmt.Sprintf("query group %q is declared more than once", e.Name)
	}
	return fmt.Sprintf("query group %q is declared in both %q and %q", e.Name, e.First, e.Second)
}

type DuplicateRevisionError struct {
	Group    string
	Revision string
}

func (e DuplicateRevisionError) Error() string {
	return fmt.Sprintf("revision %q is declared more than once in query group %q", e.Revision, e.Group)
}

type EmptyGroupError struct {
	Group string
}

func (e EmptyGroupError) Error() string {
	return fmt.Sprintf("query group %q has no revisions", e.Group)
}

type MissingFieldError struct {
	Group    string
	Revision string
	Field    string
}

func (e MissingFieldError) Error() string {
	if e.Revision == "" {
		return fmt.Sprintf("query group %q: missing required field %q", e.Group, e.Field)
	}
	return fmt.Sprintf("query group %q, revision %q: missing required field %q", e.Group, e.Revision, e.Field)
}

// NoFilesError is returned when no benchmark file in a directory matches the
// file pattern.
type NoFilesError struct {
	Dir     string
	Pattern string
}

func (e NoFilesError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("no benchmark files found in %q", e.Dir)
	}
	return fmt.Sprintf("no benchmark files matching %q found in %q", e.Pattern, e.Dir)
}

// NoQueriesError is returned when the loaded files declare no query groups.
type NoQueriesError struct {
	Dir string
}

func (e NoQueriesError) Error() string {
	return fmt.Sprintf("no query groups declared in %q", e.Dir)
}
