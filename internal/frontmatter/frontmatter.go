// Package frontmatter separates post metadata from the markdown body.
//
// Two header styles are recognized: a YAML block delimited by `---` lines, and
// a leading block of `Key: value` lines terminated by a blank line.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a post split into its metadata fields and markdown body.
type Document struct {
	Fields map[string]any
	Body   []byte
}

// Lookup returns the string value of key, matching keys case-insensitively.
func (d Document) Lookup(key string) (string, bool) {
	for k, v := range d.Fields {
		if !strings.EqualFold(k, key) {
			continue
		}
		switch val := v.(type) {
		case string:
			return val, true
		case nil:
			return "", false
		default:
			return fmt.Sprint(val), true
		}
	}
	return "", false
}

// Title returns the Title field, if any, trimmed of whitespace.
func (d Document) Title() (string, bool) {
	t, ok := d.Lookup("title")
	t = strings.TrimSpace(t)
	return t, ok && t != ""
}

// Parse splits content into metadata and body. Documents without any header
// return empty fields and the whole input as body.
func Parse(content []byte) (Document, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	if had {
		fields, err := ParseYAML(fm)
		if err != nil {
			return Document{}, fmt.Errorf("parse yaml frontmatter: %w", err)
		}
		return Document{Fields: fields, Body: body}, nil
	}

	fields, body := parseMeta(content)
	return Document{Fields: fields, Body: body}, nil
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the final line without a trailing newline.
		closeEOF := []byte(nl + "---")
		if bytes.HasSuffix(content, closeEOF) {
			return content[start : len(content)-len(closeEOF)+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

var (
	metaKeyLine  = regexp.MustCompile(`^[ ]{0,3}([A-Za-z0-9_-]+):\s*(.*)$`)
	metaContLine = regexp.MustCompile(`^[ ]{4,}(.*)$`)
)

// parseMeta reads a leading `Key: value` block. Indented lines continue the
// previous key. The block ends at the first blank line; if the first line is
// not a key line there is no block. Keys are lowercased.
func parseMeta(content []byte) (map[string]any, []byte) {
	fields := map[string]any{}
	rest := content
	var lastKey string

	for len(rest) > 0 {
		line, next, _ := bytes.Cut(rest, []byte("\n"))
		text := strings.TrimRight(string(line), "\r")

		if strings.TrimSpace(text) == "" {
			if lastKey == "" {
				return fields, content
			}
			return fields, next
		}

		if m := metaKeyLine.FindStringSubmatch(text); m != nil {
			lastKey = strings.ToLower(m[1])
			fields[lastKey] = strings.TrimSpace(m[2])
		} else if m := metaContLine.FindStringSubmatch(text); m != nil && lastKey != "" {
			prev, _ := fields[lastKey].(string)
			fields[lastKey] = strings.TrimSpace(prev + " " + strings.TrimSpace(m[1]))
		} else {
			if lastKey == "" {
				return map[string]any{}, content
			}
			return fields, rest
		}
		rest = next
	}
	return fields, rest
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
