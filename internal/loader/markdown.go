// Package loader ships the two reference loaders named in spec.md §1
// as a convenience so `loom build` is runnable out of the box: a
// Markdown+frontmatter content loader and a binary passthrough/copy
// loader. Neither participates in the core's invalidation or
// scheduling logic beyond the ordinary Glob/Map task callbacks any
// blueprint author would write.
package loader

import (
	"bufio"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a parsed Markdown source file: YAML frontmatter plus a
// rendered HTML body.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

const frontmatterDelim = "---"

// ParseMarkdown splits optional leading YAML frontmatter from data and
// renders the remaining Markdown body to HTML.
func ParseMarkdown(data []byte) (Document, error) {
	frontmatter, rest, err := splitFrontmatter(string(data))
	if err != nil {
		return Document{}, err
	}

	fm := make(map[string]any)
	if strings.TrimSpace(frontmatter) != "" {
		if err := yaml.Unmarshal([]byte(frontmatter), &fm); err != nil {
			return Document{}, err
		}
	}

	return Document{Frontmatter: fm, Body: renderMarkdown(rest)}, nil
}

// splitFrontmatter extracts the YAML block delimited by "---" lines at
// the very start of the document, if present.
func splitFrontmatter(content string) (frontmatter, body string, err error) {
	if !strings.HasPrefix(content, frontmatterDelim) {
		return "", content, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var fm strings.Builder
	var rest strings.Builder
	seenFirstDelim := false
	closed := false

	for scanner.Scan() {
		line := scanner.Text()
		if !closed && strings.TrimRight(line, " \t") == frontmatterDelim {
			if !seenFirstDelim {
				seenFirstDelim = true
				continue
			}
			closed = true
			continue
		}
		if closed {
			rest.WriteString(line)
			rest.WriteByte('\n')
		} else {
			fm.WriteString(line)
			fm.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", err
	}
	if !closed {
		return "", content, nil
	}
	return fm.String(), rest.String(), nil
}
