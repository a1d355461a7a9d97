package npm

import (
	"fmt"

	"github.com/mailru/easyjson/jlexer"
)

// Packument is the subset of a registry package document needed to pick versions.
// Versions keeps the order in which the registry lists them.
type Packument struct {
	Name     string
	Versions []string
	Time     map[string]string
	DistTags map[string]string
}

// UnmarshalEasyJSON walks the document token by token so that the key order of
// the "versions" object survives decoding
func (p *Packument) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeString()
		in.WantColon()
		switch key {
		case "name":
			if in.IsNull() {
				in.Skip()
			} else {
				p.Name = in.String()
			}
		case "versions":
			p.Versions = readKeys(in)
		case "time":
			p.Time = readStringMap(in)
		case "dist-tags":
			p.DistTags = readStringMap(in)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

func readKeys(in *jlexer.Lexer) []string {
	if in.IsNull() {
		in.Skip()
		return nil
	}
	keys := make([]string, 0)
	in.Delim('{')
	for !in.IsDelim('}') {
		keys = append(keys, in.String())
		in.WantColon()
		in.SkipRecursive()
		in.WantComma()
	}
	in.Delim('}')
	return keys
}

// readStringMap keeps string values only; "time" may carry other shapes on some mirrors
func readStringMap(in *jlexer.Lexer) map[string]string {
	if in.IsNull() {
		in.Skip()
		return nil
	}
	values := make(map[string]string)
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		raw := in.Raw()
		if len(raw) > 0 && raw[0] == '"' {
			nested := jlexer.Lexer{Data: raw}
			values[key] = nested.String()
		}
		in.WantComma()
	}
	in.Delim('}')
	return values
}

func (p *Packument) validate() error {
	if p.Versions == nil {
		return fmt.Errorf("%w: missing \"versions\"", ErrMalformed)
	}
	if p.Time == nil {
		return fmt.Errorf("%w: missing \"time\"", ErrMalformed)
	}
	if p.DistTags == nil {
		return fmt.Errorf("%w: missing \"dist-tags\"", ErrMalformed)
	}
	if p.DistTags["latest"] == "" {
		return fmt.Errorf("%w: missing \"dist-tags.latest\"", ErrMalformed)
	}
	return nil
}
