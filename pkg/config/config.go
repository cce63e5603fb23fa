// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"strings"
)

// Document is the content of a single benchmark file.
type Document struct {
	Queries []QueryGroup `json:"queries"`
}

// QueryGroup is a named set of revisions of logically the same query. The
// first revision is the default baseline.
type QueryGroup struct {
	Name      string     `json:"name"`
	Revisions []Revision `json:"revisions"`

	// Source is the file the group was loaded from, empty for groups built
	// in code.
	Source string `json:"-"`
}

// Revision is one version of a query plus its setup and teardown scripts.
type Revision struct {
	Name       string `json:"name"`
	Query      string `json:"query"`
	PreScript  string `json:"pre_script,omitempty"`
	PostScript string `json:"post_script,omitempty"`
}

// HasPreScript reports whether the revision has a non-blank pre_script.
func (r Revision) HasPreScript() bool {
	return strings.TrimSpace(r.PreScript) != ""
}

// HasPostScript reports whether the revision has a non-blank post_script.
func (r Revision) HasPostScript() bool {
	return strings.TrimSpace(r.PostScript) != ""
}

// Revision returns the revision with the given name.
func (g QueryGroup) Revision(name string) (Revision, bool) {
	for _, r := range g.Revisions {
		if r.Name == name {
			return r, true
		}
	}
	return Revision{}, false
}

// Validate checks the invariants the benchmark engine relies on: group names
// are unique, every group has at least one revision, revision names are
// unique within a group and every revision has a name and a query. All
// violations are returned together.
func Validate(groups []QueryGroup) error {
	var errs []error

	seen := make(map[string]string, len(groups))
	for _, g := range groups {
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, MissingFieldError{Group: g.Name, Field: "name"})
		} else if src, ok := seen[g.Name]; ok {
			errs = append(errs, DuplicateGroupError{Name: g.Name, First: src, Second: g.Source})
		} else {
			seen[g.Name] = g.Source
		}

		if len(g.Revisions) == 0 {
			errs = append(errs, EmptyGroupError{Group: g.Name})
			continue
		}

		revs := make(map[string]struct{}, len(g.Revisions))
		for _, r := range g.Revisions {
			if strings.TrimSpace(r.Name) == "" {
				errs = append(errs, MissingFieldError{Group: g.Name, Field: "name"})
				continue
			}
			if _, ok := revs[r.Name]; ok {
				errs = append(errs, DuplicateRevisionError{Group: g.Name, Revision: r.Name})
			}
			revs[r.Name] = struct{}{}

			if strings.TrimSpace(r.Query) == "" {
				errs = append(errs, MissingFieldError{Group: g.Name, Revision: r.Name, Field: "query"})
			}
		}
	}

	return errors.Join(errs...)
}
