package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/acronis/go-stacktrace"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/xeipuuv/gojsonschema"
)

// Only flat objects of strings are resource files, nested translations are rejected.
const flatJSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": {"type": "string"}
}`

var compiledFlatJSONSchema = mustCompileSchema(flatJSONSchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchemaLoader().Compile(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Errorf("compile schema: %w", err))
	}
	return s
}

func validationErrorsAsStackTrace(errResults []gojsonschema.ResultError) *stacktrace.StackTrace {
	st := stacktrace.New("validation failed")
	for i := range errResults {
		errResult := errResults[i]
		_ = st.Append(stacktrace.New(errResult.Description(), stacktrace.WithInfo("context", errResult.Context().String("."))))
	}
	return st
}

type jsonCodec struct{}

func (jsonCodec) Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	doc := NewDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	res, err := compiledFlatJSONSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("schema validate: %w", err)
	}
	if !res.Valid() {
		return nil, validationErrorsAsStackTrace(res.Errors())
	}

	values := orderedmap.New[string, string]()
	if err := json.Unmarshal(data, values); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	for pair := values.Oldest(); pair != nil; pair = pair.Next() {
		doc.Entries.Set(pair.Key, Entry{Value: pair.Value})
	}
	return doc, nil
}

func (jsonCodec) Encode(w io.Writer, doc *Document) error {
	if doc.Entries.Len() == 0 {
		if _, err := io.WriteString(w, "{}\n"); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for pair := doc.Entries.Oldest(); pair != nil; pair = pair.Next() {
		key, err := marshalJSONString(pair.Key)
		if err != nil {
			return fmt.Errorf("encode json key %q: %w", pair.Key, err)
		}
		value, err := marshalJSONString(pair.Value.Value)
		if err != nil {
			return fmt.Errorf("encode json value of %q: %w", pair.Key, err)
		}
		buf.WriteString(jsonIndent)
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if pair.Next() != nil {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

const jsonIndent = "    "

// marshalJSONString encodes s without escaping &, < and >, which translations often contain.
func marshalJSONString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
