// Package classify decides whether a URL points at a downloadable file.
//
// Classification is purely lexical: the URL path's suffix is compared,
// case-insensitively, against a configured set of file extensions. No
// network access is performed, and every input produces an answer.
package classify

import (
	"net/url"
	"path"
	"slices"
	"strings"
)

// Set is a normalized set of downloadable file extensions.
// The zero value matches nothing.
type Set struct {
	// exts maps lowercase dotted extensions (".pdf") to presence.
	exts map[string]struct{}
}

// DefaultExtensions is the extension list used when none is configured.
const DefaultExtensions = ".pdf|.zip|.exe|.doc|.docx|.xlsx|.pptx"

// New parses an extension list into a Set. The list accepts comma or pipe
// separators and both dotted (".pdf") and bare ("pdf") forms, in any case.
// Empty entries are dropped, so trailing separators are harmless.
func New(spec string) Set {
	exts := make(map[string]struct{})
	for _, part := range strings.FieldsFunc(spec, func(r rune) bool {
		return r == '|' || r == ','
	}) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		exts[strings.ToLower(part)] = struct{}{}
	}
	return Set{exts: exts}
}

// Match reports whether rawURL's path ends in one of the configured
// extensions. Unparseable URLs and URLs without an extension are never
// downloadable.
func (s Set) Match(rawURL string) bool {
	if len(s.exts) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return false
	}
	_, ok := s.exts[ext]
	return ok
}

// Len returns the number of configured extensions.
func (s Set) Len() int {
	return len(s.exts)
}

// Extensions returns the normalized extensions in lexical order.
// Useful for startup diagnostics.
func (s Set) Extensions() []string {
	out := make([]string, 0, len(s.exts))
	for ext := range s.exts {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}
