package resource

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlCodec struct{}

// YAMLMeta keeps the comments of a YAML resource file which are not entry comments.
// Head comments of keys are entry comments.
type YAMLMeta struct {
	HeadComment string
	FootComment string
	Keys        map[string]YAMLKeyComments
}

// YAMLKeyComments are the line and foot comments of one key and its value.
// They are dropped when the key is renamed or deleted.
type YAMLKeyComments struct {
	KeyLine   string
	ValueLine string
	KeyFoot   string
	ValueFoot string
}

func (yamlCodec) Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}
	doc := NewDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 {
		return nil, fmt.Errorf("yaml: expected a single document")
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("yaml: line %d: expected a mapping of keys to strings", mapping.Line)
	}
	meta := &YAMLMeta{
		HeadComment: firstNonEmpty(root.HeadComment, mapping.HeadComment),
		FootComment: firstNonEmpty(root.FootComment, mapping.FootComment),
		Keys:        make(map[string]YAMLKeyComments),
	}
	doc.Meta = meta

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k, v := mapping.Content[i], mapping.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("yaml: line %d: value of %q must be a string", v.Line, k.Value)
		}
		if _, dup := doc.Entries.Get(k.Value); dup {
			return nil, fmt.Errorf("yaml: line %d: duplicate key %q", k.Line, k.Value)
		}
		doc.Entries.Set(k.Value, Entry{Value: v.Value, Comment: uncomment(k.HeadComment)})
		c := YAMLKeyComments{KeyLine: k.LineComment, ValueLine: v.LineComment, KeyFoot: k.FootComment, ValueFoot: v.FootComment}
		if c != (YAMLKeyComments{}) {
			meta.Keys[k.Value] = c
		}
	}
	return doc, nil
}

func (yamlCodec) Encode(w io.Writer, doc *Document) error {
	meta, _ := doc.Meta.(*YAMLMeta)
	if meta == nil {
		meta = &YAMLMeta{}
	}

	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for pair := doc.Entries.Oldest(); pair != nil; pair = pair.Next() {
		c := meta.Keys[pair.Key]
		mapping.Content = append(mapping.Content,
			&yaml.Node{
				Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key,
				HeadComment: comment(pair.Value.Comment), LineComment: c.KeyLine, FootComment: c.KeyFoot,
			},
			&yaml.Node{
				Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Value.Value,
				LineComment: c.ValueLine, FootComment: c.ValueFoot,
			},
		)
	}
	root := &yaml.Node{
		Kind:        yaml.DocumentNode,
		Content:     []*yaml.Node{mapping},
		HeadComment: meta.HeadComment,
		FootComment: meta.FootComment,
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}

func uncomment(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		l = strings.TrimPrefix(l, "#")
		lines[i] = strings.TrimPrefix(l, " ")
	}
	return strings.Join(lines, "\n")
}

func comment(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "# " + l
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
