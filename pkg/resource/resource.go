package resource

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Entry struct {
	Value   string
	Comment string
}

// Document is the decoded content of a resource file. Meta holds codec specific
// parts of the file which are not editable entries but must survive a save.
type Document struct {
	Entries *orderedmap.OrderedMap[string, Entry]
	Meta    any
}

func NewDocument() *Document {
	return &Document{Entries: orderedmap.New[string, Entry]()}
}

func (d *Document) Clone() *Document {
	c := &Document{
		Entries: orderedmap.New[string, Entry](orderedmap.WithCapacity[string, Entry](d.Entries.Len())),
		Meta:    d.Meta,
	}
	for pair := d.Entries.Oldest(); pair != nil; pair = pair.Next() {
		c.Entries.Set(pair.Key, pair.Value)
	}
	return c
}

// File is a resource file identified by its base name.
type File struct {
	Name   string
	Path   string
	Format Format

	doc *Document
}

// New creates an empty resource file which does not exist on disk yet.
func New(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:   filepath.Base(path),
		Path:   path,
		Format: format,
		doc:    NewDocument(),
	}, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resource file: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes data using the codec selected by the extension of path.
func Parse(path string, data []byte) (*File, error) {
	f, err := New(path)
	if err != nil {
		return nil, err
	}
	codec, err := CodecFor(f.Format)
	if err != nil {
		return nil, err
	}
	doc, err := codec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Name, err)
	}
	f.doc = doc
	return f, nil
}

func (f *File) Bytes() ([]byte, error) {
	codec, err := CodecFor(f.Format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, f.doc); err != nil {
		return nil, fmt.Errorf("encode %s: %w", f.Name, err)
	}
	return buf.Bytes(), nil
}

func (f *File) Save() error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.Path, data, 0644); err != nil {
		return fmt.Errorf("write resource file: %w", err)
	}
	return nil
}

func (f *File) Document() *Document {
	return f.doc
}

func (f *File) Len() int {
	return f.doc.Entries.Len()
}

func (f *File) Has(key string) bool {
	_, ok := f.doc.Entries.Get(key)
	return ok
}

func (f *File) Get(key string) (string, bool) {
	e, ok := f.doc.Entries.Get(key)
	return e.Value, ok
}

func (f *File) Entry(key string) (Entry, bool) {
	return f.doc.Entries.Get(key)
}

// Set stores value under key. An existing key keeps its position and comment.
func (f *File) Set(key, value string) {
	e, _ := f.doc.Entries.Get(key)
	e.Value = value
	f.doc.Entries.Set(key, e)
}

func (f *File) SetEntry(key string, e Entry) {
	f.doc.Entries.Set(key, e)
}

func (f *File) Delete(key string) bool {
	_, ok := f.doc.Entries.Delete(key)
	return ok
}

// Rename moves the entry stored under oldKey to newKey keeping its position.
func (f *File) Rename(oldKey, newKey string) error {
	e, ok := f.doc.Entries.Get(oldKey)
	if !ok {
		return fmt.Errorf("key %q not found in %s", oldKey, f.Name)
	}
	if _, exists := f.doc.Entries.Get(newKey); exists {
		return fmt.Errorf("key %q already exists in %s", newKey, f.Name)
	}
	f.doc.Entries.Set(newKey, e)
	if err := f.doc.Entries.MoveAfter(newKey, oldKey); err != nil {
		return fmt.Errorf("move key: %w", err)
	}
	f.doc.Entries.Delete(oldKey)
	return nil
}

func (f *File) Keys() []string {
	keys := make([]string, 0, f.doc.Entries.Len())
	for pair := f.doc.Entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Range calls fn for every entry in file order until fn returns false.
func (f *File) Range(fn func(key string, e Entry) bool) {
	for pair := f.doc.Entries.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Replace swaps the content of f with the content of other, keeping f's identity.
func (f *File) Replace(other *File) {
	f.doc = other.doc
}

func (f *File) Clone() *File {
	c := *f
	c.doc = f.doc.Clone()
	return &c
}
