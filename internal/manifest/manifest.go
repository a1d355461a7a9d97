package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"github.com/rs/zerolog/log"
)

// FileName is the manifest file looked for during discovery
const FileName = "package.json"

// Top-level keys with typed handling; every other key is carried through untouched
const (
	keyName                 = "name"
	keyDependencies         = "dependencies"
	keyDevDependencies      = "devDependencies"
	keyPeerDependencies     = "peerDependencies"
	keyOptionalDependencies = "optionalDependencies"
	keyResolutions          = "resolutions"
	keyResolveModules       = "resolveModules"
)

var categoryKeys = []string{
	keyDependencies,
	keyDevDependencies,
	keyPeerDependencies,
	keyOptionalDependencies,
	keyResolutions,
}

// Manifest is one package.json. Dependency maps are live: changes to them are
// reflected by Marshal. All other fields are written back exactly as read, in
// their original order.
type Manifest struct {
	Path string
	Name string

	Dependencies         *DependencyMap
	DevDependencies      *DependencyMap
	PeerDependencies     *DependencyMap
	OptionalDependencies *DependencyMap
	// Resolutions holds the raw override map, keyed by "**/<name>"
	Resolutions *DependencyMap
	// ResolveModules names packages whose resolutions are always kept current
	ResolveModules []string

	fields   []field
	original []byte
	mode     fs.FileMode
}

type field struct {
	key string
	raw []byte
}

// Load reads and parses the manifest at path
func Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	m, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	m.mode = info.Mode().Perm()
	return m, nil
}

// Parse decodes data as the manifest stored at path
func Parse(path string, data []byte) (*Manifest, error) {
	m := &Manifest{
		Path:     path,
		original: data,
		mode:     0644,
	}

	in := jlexer.Lexer{Data: data}
	m.UnmarshalEasyJSON(&in)
	in.Consumed()
	if err := in.Error(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	log.Trace().
		Str("path", path).
		Str("name", m.Name).
		Int("fields", len(m.fields)).
		Msg("Parsed manifest")

	return m, nil
}

// Category returns the dependency map stored under a top-level key, or nil
func (m *Manifest) Category(key string) *DependencyMap {
	switch key {
	case keyDependencies:
		return m.Dependencies
	case keyDevDependencies:
		return m.DevDependencies
	case keyPeerDependencies:
		return m.PeerDependencies
	case keyOptionalDependencies:
		return m.OptionalDependencies
	case keyResolutions:
		return m.Resolutions
	default:
		return nil
	}
}

func (m *Manifest) setCategory(key string, deps *DependencyMap) {
	switch key {
	case keyDependencies:
		m.Dependencies = deps
	case keyDevDependencies:
		m.DevDependencies = deps
	case keyPeerDependencies:
		m.PeerDependencies = deps
	case keyOptionalDependencies:
		m.OptionalDependencies = deps
	case keyResolutions:
		m.Resolutions = deps
	}
}

// Original returns the bytes last read from or written to disk
func (m *Manifest) Original() []byte {
	return m.original
}

func (m *Manifest) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.AddError(fmt.Errorf("manifest must be a JSON object, got null"))
		return
	}

	in.Delim('{')
	for in.Ok() && !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		raw := in.Raw()
		if !in.Ok() {
			break
		}
		m.setField(key, bytes.Clone(raw))
		in.WantComma()
	}
	in.Delim('}')
	if !in.Ok() {
		return
	}

	for _, f := range m.fields {
		if err := m.decodeField(f); err != nil {
			in.AddError(err)
			return
		}
	}
}

// setField records a top-level value; a repeated key keeps its first position
func (m *Manifest) setField(key string, raw []byte) {
	for i := range m.fields {
		if m.fields[i].key == key {
			m.fields[i].raw = raw
			return
		}
	}
	m.fields = append(m.fields, field{key: key, raw: raw})
}

func (m *Manifest) decodeField(f field) error {
	if bytes.Equal(f.raw, []byte("null")) {
		return nil
	}

	nested := jlexer.Lexer{Data: f.raw}
	switch f.key {
	case keyName:
		if f.raw[0] != '"' {
			return fmt.Errorf("%q must be a string", keyName)
		}
		m.Name = nested.String()
	case keyResolveModules:
		if f.raw[0] != '[' {
			return fmt.Errorf("%q must be an array of strings", keyResolveModules)
		}
		modules := make([]string, 0)
		nested.Delim('[')
		for nested.Ok() && !nested.IsDelim(']') {
			modules = append(modules, nested.String())
			nested.WantComma()
		}
		nested.Delim(']')
		if err := nested.Error(); err != nil {
			return fmt.Errorf("%q must be an array of strings: %w", keyResolveModules, err)
		}
		m.ResolveModules = modules
	case keyDependencies, keyDevDependencies, keyPeerDependencies, keyOptionalDependencies, keyResolutions:
		if f.raw[0] != '{' {
			return fmt.Errorf("%q must be an object", f.key)
		}
		deps := NewDependencyMap()
		deps.UnmarshalEasyJSON(&nested)
		if err := nested.Error(); err != nil {
			return fmt.Errorf("invalid %q: %w", f.key, err)
		}
		m.setCategory(f.key, deps)
	}
	return nil
}

// MarshalEasyJSON writes fields in their original order. Dependency categories
// that did not exist in the file are appended at the end.
func (m *Manifest) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawByte('{')
	written := make(map[string]bool, len(m.fields))
	first := true
	writeKey := func(key string) {
		if !first {
			out.RawByte(',')
		}
		first = false
		out.String(key)
		out.RawByte(':')
		written[key] = true
	}

	for _, f := range m.fields {
		writeKey(f.key)
		if deps := m.Category(f.key); deps != nil {
			deps.MarshalEasyJSON(out)
		} else {
			out.Raw(f.raw, nil)
		}
	}

	for _, key := range categoryKeys {
		if written[key] {
			continue
		}
		if deps := m.Category(key); deps != nil {
			writeKey(key)
			deps.MarshalEasyJSON(out)
		}
	}

	out.RawByte('}')
}

// Marshal renders the manifest as JSON indented with two spaces, without a trailing newline
func (m *Manifest) Marshal() ([]byte, error) {
	w := jwriter.Writer{NoEscapeHTML: true}
	m.MarshalEasyJSON(&w)
	compact, err := w.BuildBytes()
	if err != nil {
		return nil, err
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent manifest %s: %w", m.Path, err)
	}
	return indented.Bytes(), nil
}
