package notes

import (
	"bytes"
	"errors"
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

var errNoFrontmatter = errors.New("note has no frontmatter block")

const fence = "---"

// splitNote separates the YAML frontmatter of a markdown note from its body.
// The body is returned byte for byte so rewrites leave it untouched.
func splitNote(raw []byte) (front, body []byte, err error) {
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(raw, []byte(fence+"\n")) {
		return nil, nil, errNoFrontmatter
	}
	rest := raw[len(fence)+1:]
	if bytes.HasPrefix(rest, []byte(fence+"\n")) {
		return nil, rest[len(fence)+1:], nil
	}
	end := bytes.Index(rest, []byte("\n"+fence+"\n"))
	if end < 0 {
		if bytes.HasSuffix(rest, []byte("\n"+fence)) {
			return rest[:len(rest)-len(fence)], nil, nil
		}
		return nil, nil, errNoFrontmatter
	}
	return rest[:end+1], rest[end+len(fence)+2:], nil
}

func joinNote(front, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(fence + "\n")
	b.Write(front)
	if len(front) > 0 && front[len(front)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString(fence + "\n")
	b.Write(body)
	return b.Bytes()
}

func encodeYAML(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// mergeFrontmatter overwrites the keys of front with the fields of v and
// keeps every other key (and its position) as the user left it. Keys named
// in keep are never overwritten.
func mergeFrontmatter(front []byte, v any, keep ...string) ([]byte, error) {
	var doc yaml.Node
	if len(bytes.TrimSpace(front)) > 0 {
		if err := yaml.Unmarshal(front, &doc); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
	}
	var patch yaml.Node
	if err := patch.Encode(v); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	if doc.Kind == 0 {
		return encodeYAML(&patch)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("frontmatter is not a mapping")
	}
	dst := doc.Content[0]

	skip := make(map[string]bool, len(keep))
	for _, k := range keep {
		skip[k] = true
	}
	for i := 0; i+1 < len(patch.Content); i += 2 {
		key, val := patch.Content[i], patch.Content[i+1]
		if skip[key.Value] {
			continue
		}
		if existing := mappingValue(dst, key.Value); existing != nil {
			*existing = *val
			continue
		}
		dst.Content = append(dst.Content, key, val)
	}
	return encodeYAML(&doc)
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func decodeYAML(front []byte, v any) error {
	if len(bytes.TrimSpace(front)) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(front, v); err != nil {
		return fmt.Errorf("parse frontmatter: %w", err)
	}
	return nil
}
