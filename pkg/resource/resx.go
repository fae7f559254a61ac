package resource

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ResxMeta keeps the parts of a .resx file which are not plain string entries.
// Raw elements and comments are stored verbatim as they were read.
type ResxMeta struct {
	Comments   []string
	Schema     string
	Headers    []ResxHeader
	Assemblies []string
	Metadata   []string
	Binary     []ResxRawNode
	Other      []string
}

type ResxHeader struct {
	Name  string
	Value string
}

// ResxRawNode is a data node carrying a type or mimetype, e.g. a file reference or
// a serialized object. Such nodes are preserved but not editable.
type ResxRawNode struct {
	Name string
	Raw  string
}

type resxData struct {
	Name     string `xml:"name,attr"`
	Space    string `xml:"http://www.w3.org/XML/1998/namespace space,attr"`
	Type     string `xml:"type,attr"`
	MimeType string `xml:"mimetype,attr"`
	Value    string `xml:"value"`
	Comment  string `xml:"comment"`
}

type resxHeader struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

var errNoResxRoot = errors.New("resx: missing <root> element")

type resxCodec struct{}

func (resxCodec) Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read resx: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return &Document{Entries: NewDocument().Entries, Meta: DefaultResxMeta()}, nil
	}

	doc := NewDocument()
	meta := &ResxMeta{}
	doc.Meta = meta

	dec := xml.NewDecoder(strings.NewReader(string(data)))
	inRoot := false
	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse resx: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !inRoot {
				if t.Name.Local != "root" {
					return nil, fmt.Errorf("resx: unexpected top level element <%s>", t.Name.Local)
				}
				inRoot = true
				continue
			}
			if err := decodeResxChild(dec, t, data, start, doc, meta); err != nil {
				return nil, err
			}
		case xml.Comment:
			// comments inside <root> are written back right after its start tag
			if inRoot {
				meta.Comments = append(meta.Comments, string(data[start:dec.InputOffset()]))
			}
		case xml.EndElement:
			if inRoot && t.Name.Local == "root" {
				return doc, nil
			}
		}
	}
	if !inRoot {
		return nil, errNoResxRoot
	}
	return nil, fmt.Errorf("resx: unterminated <root> element")
}

func decodeResxChild(dec *xml.Decoder, t xml.StartElement, data []byte, start int64, doc *Document, meta *ResxMeta) error {
	raw := func() (string, error) {
		if err := dec.Skip(); err != nil {
			return "", fmt.Errorf("parse resx <%s>: %w", t.Name.Local, err)
		}
		return string(data[start:dec.InputOffset()]), nil
	}

	switch t.Name.Local {
	case "data":
		var node resxData
		if err := dec.DecodeElement(&node, &t); err != nil {
			return fmt.Errorf("parse resx data: %w", err)
		}
		if node.Name == "" {
			return fmt.Errorf("resx: data element without name at offset %d", start)
		}
		if node.Type != "" || node.MimeType != "" {
			meta.Binary = append(meta.Binary, ResxRawNode{Name: node.Name, Raw: string(data[start:dec.InputOffset()])})
			return nil
		}
		if _, dup := doc.Entries.Get(node.Name); dup {
			return fmt.Errorf("resx: duplicate key %q", node.Name)
		}
		doc.Entries.Set(node.Name, Entry{Value: node.Value, Comment: node.Comment})
	case "resheader":
		var h resxHeader
		if err := dec.DecodeElement(&h, &t); err != nil {
			return fmt.Errorf("parse resx resheader: %w", err)
		}
		meta.Headers = append(meta.Headers, ResxHeader(h))
	case "schema":
		s, err := raw()
		if err != nil {
			return err
		}
		meta.Schema = s
	case "assembly":
		s, err := raw()
		if err != nil {
			return err
		}
		meta.Assemblies = append(meta.Assemblies, s)
	case "metadata":
		s, err := raw()
		if err != nil {
			return err
		}
		meta.Metadata = append(meta.Metadata, s)
	default:
		s, err := raw()
		if err != nil {
			return err
		}
		meta.Other = append(meta.Other, s)
	}
	return nil
}

func (resxCodec) Encode(w io.Writer, doc *Document) error {
	meta, ok := doc.Meta.(*ResxMeta)
	if !ok || meta == nil {
		meta = DefaultResxMeta()
	}
	if err := checkResxText(doc, meta); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	p("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	p("<root>\n")
	for _, c := range meta.Comments {
		p("  %s\n", c)
	}
	if meta.Schema != "" {
		p("  %s\n", meta.Schema)
	}
	for _, h := range meta.Headers {
		p("  <resheader name=\"%s\">\n", escapeAttr(h.Name))
		p("    <value>%s</value>\n", escapeText(h.Value))
		p("  </resheader>\n")
	}
	for _, a := range meta.Assemblies {
		p("  %s\n", a)
	}
	for _, m := range meta.Metadata {
		p("  %s\n", m)
	}
	for pair := doc.Entries.Oldest(); pair != nil; pair = pair.Next() {
		p("  <data name=\"%s\" xml:space=\"preserve\">\n", escapeAttr(pair.Key))
		p("    <value>%s</value>\n", escapeText(pair.Value.Value))
		if pair.Value.Comment != "" {
			p("    <comment>%s</comment>\n", escapeText(pair.Value.Comment))
		}
		p("  </data>\n")
	}
	for _, b := range meta.Binary {
		// a string entry with the same name replaces the binary node
		if _, shadowed := doc.Entries.Get(b.Name); shadowed {
			continue
		}
		p("  %s\n", b.Raw)
	}
	for _, o := range meta.Other {
		p("  %s\n", o)
	}
	p("</root>\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write resx: %w", err)
	}
	return nil
}

// checkResxText rejects text which cannot be represented in XML 1.0.
func checkResxText(doc *Document, meta *ResxMeta) error {
	for _, h := range meta.Headers {
		if err := checkXMLText("resheader "+h.Name, h.Name+h.Value); err != nil {
			return err
		}
	}
	for pair := doc.Entries.Oldest(); pair != nil; pair = pair.Next() {
		if err := checkXMLText(fmt.Sprintf("key %q", pair.Key), pair.Key); err != nil {
			return err
		}
		if err := checkXMLText(fmt.Sprintf("value of %q", pair.Key), pair.Value.Value); err != nil {
			return err
		}
		if err := checkXMLText(fmt.Sprintf("comment of %q", pair.Key), pair.Value.Comment); err != nil {
			return err
		}
	}
	return nil
}

func checkXMLText(what, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("resx: %s is not valid UTF-8", what)
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("resx: %s contains character %U which is not allowed in XML", what, r)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;",
		"\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;")
)

func escapeText(s string) string {
	// carriage returns would be normalized away by the parser
	return strings.ReplaceAll(textEscaper.Replace(s), "\r", "&#xD;")
}

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// DefaultResxMeta returns the schema and headers written by the resource editors
// into every new .resx file.
func DefaultResxMeta() *ResxMeta {
	return &ResxMeta{
		Schema: defaultResxSchema,
		Headers: []ResxHeader{
			{Name: "resmimetype", Value: "text/microsoft-resx"},
			{Name: "version", Value: "2.0"},
			{Name: "reader", Value: "System.Resources.ResXResourceReader, System.Windows.Forms, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089"},
			{Name: "writer", Value: "System.Resources.ResXResourceWriter, System.Windows.Forms, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089"},
		},
	}
}

const defaultResxSchema = `<xsd:schema id="root" xmlns="" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:msdata="urn:schemas-microsoft-com:xml-msdata">
    <xsd:import namespace="http://www.w3.org/XML/1998/namespace" />
    <xsd:element name="root" msdata:IsDataSet="true">
      <xsd:complexType>
        <xsd:choice maxOccurs="unbounded">
          <xsd:element name="metadata">
            <xsd:complexType>
              <xsd:sequence>
                <xsd:element name="value" type="xsd:string" minOccurs="0" />
              </xsd:sequence>
              <xsd:attribute name="name" use="required" type="xsd:string" />
              <xsd:attribute name="type" type="xsd:string" />
              <xsd:attribute name="mimetype" type="xsd:string" />
              <xsd:attribute ref="xml:space" />
            </xsd:complexType>
          </xsd:element>
          <xsd:element name="assembly">
            <xsd:complexType>
              <xsd:attribute name="alias" type="xsd:string" />
              <xsd:attribute name="name" type="xsd:string" />
            </xsd:complexType>
          </xsd:element>
          <xsd:element name="data">
            <xsd:complexType>
              <xsd:sequence>
                <xsd:element name="value" type="xsd:string" minOccurs="0" msdata:Ordinal="1" />
                <xsd:element name="comment" type="xsd:string" minOccurs="0" msdata:Ordinal="2" />
              </xsd:sequence>
              <xsd:attribute name="name" type="xsd:string" use="required" msdata:Ordinal="1" />
              <xsd:attribute name="type" type="xsd:string" msdata:Ordinal="3" />
              <xsd:attribute name="mimetype" type="xsd:string" msdata:Ordinal="4" />
              <xsd:attribute ref="xml:space" />
            </xsd:complexType>
          </xsd:element>
          <xsd:element name="resheader">
            <xsd:complexType>
              <xsd:sequence>
                <xsd:element name="value" type="xsd:string" minOccurs="0" msdata:Ordinal="1" />
              </xsd:sequence>
              <xsd:attribute name="name" type="xsd:string" use="required" />
            </xsd:complexType>
          </xsd:element>
        </xsd:choice>
      </xsd:complexType>
    </xsd:element>
  </xsd:schema>`
