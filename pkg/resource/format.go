package resource

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatResx Format = "resx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	ResxExt = ".resx"
	JSONExt = ".json"
	YAMLExt = ".yaml"
	YMLExt  = ".yml"
)

// Codec converts between the on-disk representation of a resource file and a Document.
type Codec interface {
	Decode(r io.Reader) (*Document, error)
	Encode(w io.Writer, doc *Document) error
}

var codecs = map[Format]Codec{
	FormatResx: resxCodec{},
	FormatJSON: jsonCodec{},
	FormatYAML: yamlCodec{},
}

func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ResxExt:
		return FormatResx, nil
	case JSONExt:
		return FormatJSON, nil
	case YAMLExt, YMLExt:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported resource file extension %q", ext)
	}
}

func CodecFor(format Format) (Codec, error) {
	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("unknown resource format %q", format)
	}
	return c, nil
}

func IsSupported(path string) bool {
	_, err := FormatFromPath(path)
	return err == nil
}
