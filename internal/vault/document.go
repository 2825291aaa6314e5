// Package vault reads and writes the markdown notes of an Obsidian-style
// vault. A note is an optional YAML frontmatter block followed by a free
// form body; both are read and written whole.
package vault

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

var ErrMalformedDocument = errors.New("malformed document")

// Document is a parsed note. Frontmatter keys keep their original order
// and unknown keys are carried through untouched.
type Document struct {
	meta *yaml.Node // mapping node, nil when the note has no frontmatter
	Body string

	// comments attached to the YAML document rather than to a key
	headComment string
	footComment string
}

// Parse splits content into frontmatter and body.
func Parse(content []byte) (*Document, error) {
	text := string(content)
	first, rest, found := strings.Cut(text, "\n")
	if strings.TrimRight(first, "\r") != delimiter {
		return &Document{Body: text}, nil
	}
	if !found {
		return nil, fmt.Errorf("%w: unterminated frontmatter", ErrMalformedDocument)
	}

	var raw strings.Builder
	body, closed := "", false
	for rest != "" {
		line, next, _ := strings.Cut(rest, "\n")
		if strings.TrimRight(line, "\r") == delimiter {
			body, closed = next, true
			break
		}
		raw.WriteString(line)
		raw.WriteString("\n")
		rest = next
	}
	if !closed {
		return nil, fmt.Errorf("%w: unterminated frontmatter", ErrMalformedDocument)
	}

	root, err := parseMeta(raw.String())
	if err != nil {
		return nil, err
	}
	doc := &Document{meta: root, Body: body}
	if root.Kind == yaml.DocumentNode {
		doc.meta = root.Content[0]
		doc.headComment = root.HeadComment
		doc.footComment = root.FootComment
	}
	return doc, nil
}

// parseMeta returns the document node of raw, or an empty mapping when raw
// holds no YAML content.
func parseMeta(raw string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid frontmatter: %v", ErrMalformedDocument, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: frontmatter is not a mapping", ErrMalformedDocument)
	}
	return &doc, nil
}

// HasFrontmatter reports whether the note carries a metadata block.
func (d *Document) HasFrontmatter() bool {
	return d.meta != nil
}

// Get returns the scalar value stored under key.
func (d *Document) Get(key string) (string, bool) {
	if v := d.lookup(key); v != nil {
		return v.Value, true
	}
	return "", false
}

// Keys lists the frontmatter keys in document order.
func (d *Document) Keys() []string {
	if d.meta == nil {
		return nil
	}
	keys := make([]string, 0, len(d.meta.Content)/2)
	for i := 0; i+1 < len(d.meta.Content); i += 2 {
		keys = append(keys, d.meta.Content[i].Value)
	}
	return keys
}

// Set stores a scalar under key, replacing an existing value in place or
// appending the key at the end of the block. tag is a YAML scalar tag such
// as "!!float"; empty means plain string.
func (d *Document) Set(key, value, tag string) {
	if tag == "" {
		tag = "!!str"
	}
	node := &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}

	if d.meta == nil {
		d.meta = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	for i := 0; i+1 < len(d.meta.Content); i += 2 {
		if d.meta.Content[i].Value == key {
			node.LineComment = d.meta.Content[i+1].LineComment
			d.meta.Content[i+1] = node
			return
		}
	}
	d.meta.Content = append(d.meta.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		node,
	)
}

func (d *Document) lookup(key string) *yaml.Node {
	if d.meta == nil {
		return nil
	}
	for i := 0; i+1 < len(d.meta.Content); i += 2 {
		if d.meta.Content[i].Value == key {
			return d.meta.Content[i+1]
		}
	}
	return nil
}

// Bytes serializes the note. A note without frontmatter is written as its
// body alone.
func (d *Document) Bytes() ([]byte, error) {
	if d.meta == nil {
		return []byte(d.Body), nil
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	if len(d.meta.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		root := &yaml.Node{
			Kind:        yaml.DocumentNode,
			HeadComment: d.headComment,
			FootComment: d.footComment,
			Content:     []*yaml.Node{d.meta},
		}
		if err := enc.Encode(root); err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
	}
	buf.WriteString(delimiter + "\n")
	buf.WriteString(d.Body)
	return buf.Bytes(), nil
}
