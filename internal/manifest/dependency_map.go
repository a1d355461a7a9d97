package manifest

import (
	"fmt"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// DependencyMap maps dependency names to version specs, keeping insertion order
type DependencyMap struct {
	keys   []string
	values map[string]string
}

func NewDependencyMap() *DependencyMap {
	return &DependencyMap{
		keys:   make([]string, 0),
		values: make(map[string]string),
	}
}

// Keys returns the names in file order
func (d *DependencyMap) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

func (d *DependencyMap) Get(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	value, ok := d.values[name]
	return value, ok
}

// Set updates name in place, or appends it when absent
func (d *DependencyMap) Set(name, spec string) {
	if _, ok := d.values[name]; !ok {
		d.keys = append(d.keys, name)
	}
	d.values[name] = spec
}

func (d *DependencyMap) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

func (d *DependencyMap) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawByte('{')
	for i, key := range d.keys {
		if i > 0 {
			out.RawByte(',')
		}
		out.String(key)
		out.RawByte(':')
		out.String(d.values[key])
	}
	out.RawByte('}')
}

// UnmarshalEasyJSON accepts an object of strings; any other value type is an error.
// A repeated key keeps its first position and its last value.
func (d *DependencyMap) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if d.values == nil {
		d.values = make(map[string]string)
	}
	in.Delim('{')
	for in.Ok() && !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		raw := in.Raw()
		if !in.Ok() {
			break
		}
		if len(raw) == 0 || raw[0] != '"' {
			in.AddError(fmt.Errorf("version spec of %q must be a string, got %s", key, raw))
			break
		}
		nested := jlexer.Lexer{Data: raw}
		d.Set(key, nested.String())
		in.WantComma()
	}
	in.Delim('}')
}
